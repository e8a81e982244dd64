package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"coedit/server/internal/core"
)

// Wire event names. Inherited from the protocol the clients speak; do not
// rename without a client migration.
const (
	EventJoin         = "JOIN"
	EventJoined       = "JOINED"
	EventCodeChange   = "CODE_CHANGE"
	EventSyncCode     = "SYNC_CODE"
	EventLeave        = "LEAVE"
	EventDisconnected = "DISCONNECTED"
	EventRoomNotFound = "room_not_found"
	EventError        = "error"
)

// JoinedPayload announces an updated presence list to a room, including
// the new arrival.
type JoinedPayload struct {
	Type         string            `json:"type"`
	Clients      []core.ClientInfo `json:"clients"`
	Username     string            `json:"username"`
	ConnectionID string            `json:"connectionId"`
	Email        string            `json:"email"`
	PhotoURL     string            `json:"photoURL"`
}

type CodeChangePayload struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

type DisconnectedPayload struct {
	Type         string `json:"type"`
	ConnectionID string `json:"connectionId"`
	Username     string `json:"username"`
}

type RoomNotFoundPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type ErrorPayload struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// encode marshals an outbound payload. Payload structs are marshalable by
// construction; a failure here is a programming error.
func encode(v any) core.Frame {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.events").Msg("encode payload")
		return nil
	}
	return b
}
