package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"snapfeed/internal/storage"

	"github.com/google/uuid"
)

func createTestUser(t *testing.T, store *Store) *storage.User {
	t.Helper()

	user, err := store.CreateUser(context.Background(), genEmail(), gen60CharString())
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func newTestPost(ownerID int64, caption string) *storage.Post {
	id := uuid.Must(uuid.NewV7())
	return &storage.Post{
		ID:         id,
		OwnerID:    ownerID,
		Caption:    caption,
		MediaURL:   fmt.Sprintf("https://media.test/%s.jpg", id),
		MediaType:  storage.MediaTypeImage,
		StoredName: id.String() + ".jpg",
	}
}

func TestInsertPost(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, store)

	post := newTestPost(user.ID, "first post")
	created, err := store.InsertPost(ctx, post)
	if err != nil {
		t.Fatalf("failed to insert post: %v", err)
	}

	if created.ID != post.ID {
		t.Errorf("id mismatch: want %s, got %s", post.ID, created.ID)
	}
	if created.OwnerID != user.ID {
		t.Errorf("owner mismatch: want %d, got %d", user.ID, created.OwnerID)
	}
	if created.Caption != "first post" {
		t.Errorf("caption mismatch: got %q", created.Caption)
	}
	if created.MediaType != storage.MediaTypeImage {
		t.Errorf("media type mismatch: got %q", created.MediaType)
	}
	// created_at comes from the database, not the zero value we sent
	if created.CreatedAt.IsZero() || time.Since(created.CreatedAt) > 5*time.Second {
		t.Errorf("invalid created_at: %s", created.CreatedAt)
	}

	// duplicate id must be rejected
	if _, err := store.InsertPost(ctx, post); !errors.Is(err, storage.ErrUniqueViolation) {
		t.Errorf("expected unique violation for duplicate id, got %v", err)
	}
}

func TestInsertPostUnknownOwner(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)

	post := newTestPost(12345, "orphan")
	if _, err := store.InsertPost(context.Background(), post); err == nil {
		t.Fatal("expected foreign key failure for unknown owner, got nil")
	}
}

func TestGetPostByID(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, store)
	post := newTestPost(user.ID, "hello")

	if _, err := store.InsertPost(ctx, post); err != nil {
		t.Fatalf("failed to insert post: %v", err)
	}

	got, err := store.GetPostByID(ctx, post.ID)
	if err != nil {
		t.Fatalf("failed to get post: %v", err)
	}
	if got.StoredName != post.StoredName {
		t.Errorf("stored_name mismatch: want %q, got %q", post.StoredName, got.StoredName)
	}

	if _, err := store.GetPostByID(ctx, uuid.Must(uuid.NewV7())); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestListPostsByCreatedDesc(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	empty, err := store.ListPostsByCreatedDesc(ctx)
	if err != nil {
		t.Fatalf("failed to list posts: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty feed, got %d posts", len(empty))
	}

	user := createTestUser(t, store)

	// inserted back to back, so created_at values collide at second
	// resolution and the id tie-break has to keep insertion order
	var inserted []*storage.Post
	for i := range 5 {
		post := newTestPost(user.ID, fmt.Sprintf("post %d", i))
		if _, err := store.InsertPost(ctx, post); err != nil {
			t.Fatalf("failed to insert post %d: %v", i, err)
		}
		inserted = append(inserted, post)
	}

	listed, err := store.ListPostsByCreatedDesc(ctx)
	if err != nil {
		t.Fatalf("failed to list posts: %v", err)
	}
	if len(listed) != len(inserted) {
		t.Fatalf("expected %d posts, got %d", len(inserted), len(listed))
	}

	for i, post := range listed {
		want := inserted[len(inserted)-1-i]
		if post.ID != want.ID {
			t.Errorf("position %d: want %s (%q), got %s (%q)",
				i, want.ID, want.Caption, post.ID, post.Caption)
		}
	}
}

func TestDeletePost(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, store)
	post := newTestPost(user.ID, "short lived")

	if _, err := store.InsertPost(ctx, post); err != nil {
		t.Fatalf("failed to insert post: %v", err)
	}

	if err := store.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("failed to delete post: %v", err)
	}

	if _, err := store.GetPostByID(ctx, post.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected post to be gone, got %v", err)
	}

	// hard delete: a second delete observes absence, not success
	if err := store.DeletePost(ctx, post.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound on double delete, got %v", err)
	}
}
