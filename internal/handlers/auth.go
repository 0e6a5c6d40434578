package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"snapfeed/internal/middleware"
	"snapfeed/internal/storage"

	"github.com/justinas/nosurf"
	"golang.org/x/crypto/bcrypt"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

func (h *APIHandler) HandleRegister() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// user already logged in
		if h.Sessions.UserID(r) != 0 {
			h.writeError(w, http.StatusBadRequest, "InvalidInput", "Already logged in.")
			return
		}

		var creds credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			h.writeError(w, http.StatusBadRequest, "InvalidInput", "Invalid request body.")
			return
		}

		email := strings.ToLower(strings.TrimSpace(creds.Email))

		if len(email) < 3 || !strings.Contains(email, "@") {
			h.writeError(w, http.StatusBadRequest, "InvalidInput", "A valid email address is required.")
			return
		}
		if len(creds.Password) < 8 {
			h.writeError(w, http.StatusBadRequest, "InvalidInput", "Password must be at least 8 characters.")
			return
		}

		hashedPwd, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
		if err != nil {
			h.Logger.Error("hashing password", "err", err)
			h.writeError(w, http.StatusInternalServerError, "InternalServerError", "internal error")
			return
		}

		user, err := h.Store.CreateUser(r.Context(), email, string(hashedPwd))
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrUniqueViolation):
				h.writeError(w, http.StatusConflict, "Conflict", "An account with that email already exists.")
			case errors.Is(err, storage.ErrCheckViolation):
				h.writeError(w, http.StatusBadRequest, "InvalidInput", "A valid email address is required.")
			default:
				h.Logger.Error("creating user", "err", err)
				h.writeError(w, http.StatusInternalServerError, "InternalServerError", "internal error")
			}
			return
		}

		h.Logger.Info("user registered", "id", user.ID)

		h.writeJSON(w, http.StatusCreated, userResponse{ID: user.ID, Email: user.Email})
	})
}

// HandleLogin verifies credentials and establishes the session
func (h *APIHandler) HandleLogin() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var creds credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			h.writeError(w, http.StatusBadRequest, "InvalidInput", "Invalid request body.")
			return
		}

		email := strings.ToLower(strings.TrimSpace(creds.Email))

		user, err := h.Store.GetUserByEmail(r.Context(), email)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrNotFound):
				h.writeError(w, http.StatusUnauthorized, "Unauthorized", "Invalid email or password.")
			default:
				h.Logger.Error("db error on login", "err", err)
				h.writeError(w, http.StatusInternalServerError, "InternalServerError", "internal error")
			}
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
			h.writeError(w, http.StatusUnauthorized, "Unauthorized", "Invalid email or password.")
			return
		}

		// fresh token against session fixation
		if err := h.Sessions.Manager.RenewToken(r.Context()); err != nil {
			h.Logger.Error("session token renewal", "err", err)
			h.writeError(w, http.StatusInternalServerError, "InternalServerError", "internal error")
			return
		}

		h.Sessions.Manager.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

		h.Logger.Info("user logged in", "id", user.ID)

		h.writeJSON(w, http.StatusOK, userResponse{ID: user.ID, Email: user.Email})
	})
}

func (h *APIHandler) HandleLogout() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// destroy session in db and clear cookie
		if err := h.Sessions.Manager.Destroy(r.Context()); err != nil {
			h.Logger.Error("destroy session", "err", err)
			h.writeError(w, http.StatusInternalServerError, "InternalServerError", "internal error")
			return
		}

		h.Logger.Info("user logged out")
		h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	})
}

// HandleCSRFToken hands the session's CSRF token to API clients, which echo
// it back in the X-CSRF-Token header on state-changing requests.
func (h *APIHandler) HandleCSRFToken() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.writeJSON(w, http.StatusOK, map[string]string{"token": nosurf.Token(r)})
	})
}
