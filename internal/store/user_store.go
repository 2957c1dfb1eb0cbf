package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/taskchat/taskchat/internal/model"
)

// CreateUser inserts a new account and returns its id. Returns
// ErrEmailTaken when the email is already registered.
func (s *SQLiteStore) CreateUser(ctx context.Context, name, email, passwordHash string) (int64, error) {
	var exists int
	err := s.db.GetContext(ctx, &exists,
		"SELECT COUNT(*) FROM users WHERE email = ?", email)
	if err != nil {
		return 0, fmt.Errorf("checking email %s: %w", email, err)
	}
	if exists > 0 {
		return 0, ErrEmailTaken
	}

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO users (name, email, password) VALUES (?, ?, ?)",
		name, email, passwordHash,
	)
	if err != nil {
		return 0, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading new user id: %w", err)
	}
	return id, nil
}

// GetUserByEmail retrieves an account by email. Returns ErrBadCredentials
// when no such account exists, so login failures read uniformly.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := s.db.GetContext(ctx, &user,
		"SELECT id, name, email, password, created_at FROM users WHERE email = ?",
		email,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return &user, nil
}
