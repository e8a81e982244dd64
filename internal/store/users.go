package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"coedit/server/internal/domain"
)

// CreateUser registers a user unless the email is already taken.
// Returns false when the user already existed.
func (s *RoomStore) CreateUser(ctx context.Context, user *domain.User) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, photo_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO NOTHING
	`, user.ID, user.Username, user.Email, user.PhotoURL)
	if err != nil {
		return false, fmt.Errorf("insert user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert user rows: %w", err)
	}
	return n > 0, nil
}

func (s *RoomStore) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, email, photo_url FROM users WHERE email = $1
	`, email).Scan(&u.ID, &u.Username, &u.Email, &u.PhotoURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}
