package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Store interface {
	// users
	CreateUser(ctx context.Context, email, passwordHash string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// posts
	InsertPost(ctx context.Context, post *Post) (*Post, error)
	GetPostByID(ctx context.Context, id uuid.UUID) (*Post, error)
	ListPostsByCreatedDesc(ctx context.Context) ([]*Post, error)
	DeletePost(ctx context.Context, id uuid.UUID) error

	Close() error
}

var (
	ErrNotFound        = errors.New("record not found")
	ErrUniqueViolation = errors.New("unique constraint violation")
	ErrCheckViolation  = errors.New("check constraint violation")
)

type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// Post is a single user-created media record. Everything is immutable after
// creation; the only lifecycle transition is a hard delete.
type Post struct {
	ID         uuid.UUID `db:"id" json:"id"`
	OwnerID    int64     `db:"owner_id" json:"owner_id"`
	Caption    string    `db:"caption" json:"caption"`
	MediaURL   string    `db:"media_url" json:"media_url"`
	MediaType  MediaType `db:"media_type" json:"media_type"`
	StoredName string    `db:"stored_name" json:"stored_name"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
