package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestNewIdentity(t *testing.T) {
	tests := []struct {
		name     string
		username string
		email    string
		wantErr  error
	}{
		{"valid", "alice", "alice@example.com", nil},
		{"empty username", "", "alice@example.com", ErrUsernameEmpty},
		{"long username", strings.Repeat("a", MaxUsernameLen+1), "alice@example.com", ErrUsernameTooLong},
		{"empty email", "alice", "", ErrEmailEmpty},
		{"long email", "alice", strings.Repeat("a", MaxEmailLen+1), ErrEmailTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewIdentity(tt.username, tt.email, "https://example.com/p.png")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && (id.Username != tt.username || id.Email != tt.email) {
				t.Fatalf("identity = %+v", id)
			}
		})
	}
}

func TestFindMember(t *testing.T) {
	r := Room{
		ID: "R1",
		Members: []Member{
			{Username: "alice", Email: "alice@example.com"},
			{Username: "bob", Email: "bob@example.com"},
		},
	}

	m, ok := r.FindMember("bob@example.com")
	if !ok || m.Username != "bob" {
		t.Fatalf("FindMember = %+v, %v", m, ok)
	}
	if _, ok := r.FindMember("carol@example.com"); ok {
		t.Fatalf("found absent member")
	}
}

func TestRemovalOutcomeString(t *testing.T) {
	if got := MemberRemoved.String(); got != "member_removed" {
		t.Fatalf("MemberRemoved = %q", got)
	}
	if got := RoomDeleted.String(); got != "room_deleted" {
		t.Fatalf("RoomDeleted = %q", got)
	}
}
