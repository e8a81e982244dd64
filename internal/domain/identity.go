// Package domain contains entities without logic, just meta-data.
package domain

import "errors"

const (
	MaxUsernameLen = 64
	MaxEmailLen    = 254
)

var (
	ErrUsernameEmpty   = errors.New("username empty")
	ErrUsernameTooLong = errors.New("username too long")
	ErrEmailEmpty      = errors.New("email empty")
	ErrEmailTooLong    = errors.New("email too long")
)

// Identity is what a connection presents when it joins a room.
// Email is the durable membership key.
type Identity struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	PhotoURL string `json:"photoURL"`
}

// NewIdentity avoids raw literals in adapters and keeps validation in one place.
func NewIdentity(username, email, photoURL string) (Identity, error) {
	if username == "" {
		return Identity{}, ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return Identity{}, ErrUsernameTooLong
	}
	if email == "" {
		return Identity{}, ErrEmailEmpty
	}
	if len(email) > MaxEmailLen {
		return Identity{}, ErrEmailTooLong
	}
	return Identity{Username: username, Email: email, PhotoURL: photoURL}, nil
}
