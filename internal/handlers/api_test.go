package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"

	"snapfeed/internal/feed"
	"snapfeed/internal/middleware"
	"snapfeed/internal/storage"
	"snapfeed/internal/storage/sqlite"
	"snapfeed/internal/telemetry"

	"github.com/alexedwards/scs/v2"
	"go.opentelemetry.io/otel/metric/noop"
)

// newTestServer wires the full handler stack against a real sqlite store and
// a local blob store. Sessions use scs's in-memory store; CSRF stays out of
// the chain so tests can speak plain JSON.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := sqlite.NewStore(filepath.Join(t.TempDir(), "test_snapfeed.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Migrate("../../migrations"); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	blobs, err := storage.NewLocalStore(t.TempDir(), "http://media.test")
	if err != nil {
		t.Fatalf("failed to create blob store: %v", err)
	}

	metrics, err := telemetry.NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("failed to build metrics: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := feed.NewService(store, blobs, logger, metrics)

	sessions := &middleware.Sessions{Manager: scs.New()}
	api := NewAPIHandler(store, svc, sessions, logger, 10<<20)

	mux := http.NewServeMux()
	mux.Handle("POST /api/register", api.HandleRegister())
	mux.Handle("POST /api/login", api.HandleLogin())
	mux.Handle("POST /api/logout", api.HandleLogout())
	mux.Handle("POST /api/posts", api.HandleCreatePost())
	mux.Handle("GET /api/feed", api.HandleFeed())
	mux.Handle("DELETE /api/posts/{id}", api.HandleDeletePost())

	srv := httptest.NewServer(sessions.Manager.LoadAndSave(mux))
	t.Cleanup(srv.Close)

	return srv
}

// newClient returns an http client with its own cookie jar, i.e. its own
// session identity.
func newClient(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func postJSON(t *testing.T, client *http.Client, url string, body any) *http.Response {
	t.Helper()

	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}

// signUp registers and logs in a fresh user, returning their client and id.
func signUp(t *testing.T, srv *httptest.Server, email string) (*http.Client, int64) {
	t.Helper()

	client := newClient(t)
	creds := credentials{Email: email, Password: "correct horse battery"}

	resp := postJSON(t, client, srv.URL+"/api/register", creds)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register returned %d", resp.StatusCode)
	}
	user := decodeJSON[userResponse](t, resp)

	resp = postJSON(t, client, srv.URL+"/api/login", creds)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login returned %d", resp.StatusCode)
	}
	resp.Body.Close()

	return client, user.ID
}

// uploadPost sends a multipart post creation request.
func uploadPost(t *testing.T, client *http.Client, url, filename, contentType, content, caption string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("failed to create multipart part: %v", err)
	}
	if _, err := io.WriteString(part, content); err != nil {
		t.Fatalf("failed to write file content: %v", err)
	}
	if err := mw.WriteField("caption", caption); err != nil {
		t.Fatalf("failed to write caption: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	resp, err := client.Post(url+"/api/posts", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("upload request failed: %v", err)
	}
	return resp
}

func TestRegister(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	client := newClient(t)

	resp := postJSON(t, client, srv.URL+"/api/register", credentials{Email: "Alice@Example.COM", Password: "password123"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	user := decodeJSON[userResponse](t, resp)
	if user.ID == 0 {
		t.Error("expected a user id")
	}
	// email normalised to lower case
	if user.Email != "alice@example.com" {
		t.Errorf("expected normalised email, got %q", user.Email)
	}

	tests := []struct {
		name     string
		creds    credentials
		wantCode int
	}{
		{"duplicate email", credentials{Email: "alice@example.com", Password: "password123"}, http.StatusConflict},
		{"duplicate email different case", credentials{Email: "ALICE@example.com", Password: "password123"}, http.StatusConflict},
		{"invalid email", credentials{Email: "not-an-email", Password: "password123"}, http.StatusBadRequest},
		{"short password", credentials{Email: "bob@example.com", Password: "short"}, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, newClient(t), srv.URL+"/api/register", tc.creds)
			resp.Body.Close()
			if resp.StatusCode != tc.wantCode {
				t.Errorf("expected %d, got %d", tc.wantCode, resp.StatusCode)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	resp := postJSON(t, newClient(t), srv.URL+"/api/register", credentials{Email: "carol@example.com", Password: "password123"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register returned %d", resp.StatusCode)
	}

	tests := []struct {
		name     string
		creds    credentials
		wantCode int
	}{
		{"valid credentials", credentials{Email: "carol@example.com", Password: "password123"}, http.StatusOK},
		{"wrong password", credentials{Email: "carol@example.com", Password: "wrongwrong"}, http.StatusUnauthorized},
		{"unknown email", credentials{Email: "nobody@example.com", Password: "password123"}, http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, newClient(t), srv.URL+"/api/login", tc.creds)
			resp.Body.Close()
			if resp.StatusCode != tc.wantCode {
				t.Errorf("expected %d, got %d", tc.wantCode, resp.StatusCode)
			}
		})
	}
}

func TestAnonymousAccess(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	client := newClient(t)

	resp, err := client.Get(srv.URL + "/api/feed")
	if err != nil {
		t.Fatalf("feed request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous feed: expected 401, got %d", resp.StatusCode)
	}

	resp = uploadPost(t, client, srv.URL, "cat.jpg", "image/jpeg", "bytes", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous upload: expected 401, got %d", resp.StatusCode)
	}
}

func TestPostLifecycle(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	alice, _ := signUp(t, srv, "alice@example.com")
	bob, _ := signUp(t, srv, "bob@example.com")

	// alice posts first, bob second
	resp := uploadPost(t, alice, srv.URL, "sunrise.jpg", "image/jpeg", "jpeg bytes", "sunrise")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("alice's upload returned %d", resp.StatusCode)
	}
	alicePost := decodeJSON[storage.Post](t, resp)
	if alicePost.MediaType != storage.MediaTypeImage {
		t.Errorf("expected image, got %q", alicePost.MediaType)
	}

	resp = uploadPost(t, bob, srv.URL, "skate.mp4", "video/mp4", "mp4 bytes", "kickflip")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("bob's upload returned %d", resp.StatusCode)
	}
	bobPost := decodeJSON[storage.Post](t, resp)
	if bobPost.MediaType != storage.MediaTypeVideo {
		t.Errorf("expected video, got %q", bobPost.MediaType)
	}

	// alice's feed: bob's newer post first, ownership relative to alice
	feedResp, err := alice.Get(srv.URL + "/api/feed")
	if err != nil {
		t.Fatalf("feed request failed: %v", err)
	}
	if feedResp.StatusCode != http.StatusOK {
		t.Fatalf("feed returned %d", feedResp.StatusCode)
	}
	fr := decodeJSON[feedResponse](t, feedResp)
	if len(fr.Posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(fr.Posts))
	}
	if fr.Posts[0].ID != bobPost.ID || fr.Posts[1].ID != alicePost.ID {
		t.Errorf("wrong feed order: [%s, %s]", fr.Posts[0].ID, fr.Posts[1].ID)
	}
	if fr.Posts[0].IsOwner || !fr.Posts[1].IsOwner {
		t.Errorf("wrong ownership flags: [%t, %t]", fr.Posts[0].IsOwner, fr.Posts[1].IsOwner)
	}

	// alice cannot delete bob's post
	resp = doDelete(t, alice, srv.URL+"/api/posts/"+bobPost.ID.String())
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("cross-user delete: expected 403, got %d", resp.StatusCode)
	}

	// but she can delete her own
	resp = doDelete(t, alice, srv.URL+"/api/posts/"+alicePost.ID.String())
	if resp.StatusCode != http.StatusOK {
		t.Errorf("own delete: expected 200, got %d", resp.StatusCode)
	}
	dr := decodeJSON[deleteResponse](t, resp)
	if !dr.Success {
		t.Error("expected success=true")
	}

	// gone now
	resp = doDelete(t, alice, srv.URL+"/api/posts/"+alicePost.ID.String())
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("repeat delete: expected 404, got %d", resp.StatusCode)
	}

	// malformed id is rejected before hitting the service
	resp = doDelete(t, alice, srv.URL+"/api/posts/not-a-uuid")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad uuid: expected 400, got %d", resp.StatusCode)
	}
}

func TestCreatePostWithoutFile(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	alice, _ := signUp(t, srv, "alice@example.com")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("caption", "no file here"); err != nil {
		t.Fatalf("failed to write caption: %v", err)
	}
	mw.Close()

	resp, err := alice.Post(srv.URL+"/api/posts", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestLogout(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	alice, _ := signUp(t, srv, "alice@example.com")

	resp := postJSON(t, alice, srv.URL+"/api/logout", struct{}{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout returned %d", resp.StatusCode)
	}

	resp, err := alice.Get(srv.URL + "/api/feed")
	if err != nil {
		t.Fatalf("feed request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("feed after logout: expected 401, got %d", resp.StatusCode)
	}
}

func doDelete(t *testing.T, client *http.Client, url string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodDelete, url, strings.NewReader(""))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("delete request failed: %v", err)
	}
	return resp
}
