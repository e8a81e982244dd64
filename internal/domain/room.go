package domain

import (
	"errors"
	"time"
)

type RoomID string

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomExists     = errors.New("room already exists")
	ErrMemberNotFound = errors.New("member not found")
)

// Member is a durable participant record attached to a room,
// independent of current connectivity. At most one per email per room.
type Member struct {
	Username string    `json:"username"`
	Email    string    `json:"email"`
	PhotoURL string    `json:"photoURL"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Room is a named collaborative editing session. Members keep insertion
// order; Code is the whole current document, replaced on every edit.
type Room struct {
	ID           RoomID    `json:"roomId"`
	Members      []Member  `json:"members"`
	Code         string    `json:"code"`
	LastModified time.Time `json:"lastModified"`
}

// FindMember returns the member with the given email, if any.
func (r *Room) FindMember(email string) (Member, bool) {
	for _, m := range r.Members {
		if m.Email == email {
			return m, true
		}
	}
	return Member{}, false
}

// RemovalOutcome reports what RemoveMember did to the room.
type RemovalOutcome int

const (
	MemberRemoved RemovalOutcome = iota
	// RoomDeleted means the removed member was the last one and the
	// room itself is gone. Empty rooms are never persisted.
	RoomDeleted
)

func (o RemovalOutcome) String() string {
	if o == RoomDeleted {
		return "room_deleted"
	}
	return "member_removed"
}
