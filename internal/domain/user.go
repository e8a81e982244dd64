package domain

import (
	"github.com/google/uuid"
)

type UserID string

// User is a registered account, separate from room membership.
type User struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	PhotoURL string `json:"photoURL"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(username, email, photoURL string) (*User, error) {
	ident, err := NewIdentity(username, email, photoURL)
	if err != nil {
		return nil, err
	}
	return &User{
		ID:       UserID(uuid.NewString()),
		Username: ident.Username,
		Email:    ident.Email,
		PhotoURL: ident.PhotoURL,
	}, nil
}
