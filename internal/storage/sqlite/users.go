package sqlite

import (
	"context"
	"fmt"
	"strings"

	"snapfeed/internal/storage"
)

func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) (*storage.User, error) {
	query := `INSERT INTO users (email, password_hash)
		VALUES (?, ?)
		RETURNING *`

	email = strings.ToLower(strings.TrimSpace(email))

	var user storage.User
	if err := s.db.GetContext(ctx, &user, query, email, passwordHash); err != nil {
		return nil, fmt.Errorf("cannot create user %q: %w", email, mapSqlError(err))
	}
	return &user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*storage.User, error) {
	query := `SELECT * FROM users
		WHERE id = ?
		LIMIT 1`

	var user storage.User
	if err := s.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, fmt.Errorf("cannot find user id %d: %w", id, mapSqlError(err))
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	query := `SELECT * FROM users
		WHERE email = ?
		LIMIT 1`

	email = strings.ToLower(strings.TrimSpace(email))

	var user storage.User
	if err := s.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, fmt.Errorf("cannot find user %q: %w", email, mapSqlError(err))
	}
	return &user, nil
}
