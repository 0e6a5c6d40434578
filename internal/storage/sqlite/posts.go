package sqlite

import (
	"context"
	"fmt"

	"snapfeed/internal/storage"

	"github.com/google/uuid"
)

// InsertPost persists a new post. created_at is assigned by the database,
// never taken from the caller, so the returned row is the authoritative one.
func (s *Store) InsertPost(ctx context.Context, post *storage.Post) (*storage.Post, error) {
	query := `INSERT INTO posts (id, owner_id, caption, media_url, media_type, stored_name)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING *`

	var created storage.Post
	err := s.db.GetContext(ctx, &created, query,
		post.ID, post.OwnerID, post.Caption, post.MediaURL, post.MediaType, post.StoredName)
	if err != nil {
		return nil, fmt.Errorf("cannot create post %s: %w", post.ID, mapSqlError(err))
	}
	return &created, nil
}

func (s *Store) GetPostByID(ctx context.Context, id uuid.UUID) (*storage.Post, error) {
	query := `SELECT * FROM posts
		WHERE id = ?
		LIMIT 1`

	var post storage.Post
	if err := s.db.GetContext(ctx, &post, query, id); err != nil {
		return nil, fmt.Errorf("cannot find post %s: %w", id, mapSqlError(err))
	}
	return &post, nil
}

// ListPostsByCreatedDesc returns every post, newest first. The id tie-break
// keeps the order total and stable when timestamps collide (ids are UUIDv7,
// so id order tracks insertion order).
func (s *Store) ListPostsByCreatedDesc(ctx context.Context) ([]*storage.Post, error) {
	query := `SELECT * FROM posts
		ORDER BY created_at DESC, id DESC`

	posts := []*storage.Post{}
	if err := s.db.SelectContext(ctx, &posts, query); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", mapSqlError(err))
	}

	return posts, nil
}

// DeletePost removes the row permanently. Deleting an id that is already
// gone reports ErrNotFound rather than succeeding silently.
func (s *Store) DeletePost(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM posts
		WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("could not delete post: %w", mapSqlError(err))
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}

	return nil
}
