package signal

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"coedit/server/internal/app"
	"coedit/server/internal/core"
	"coedit/server/internal/domain"
)

func (ctl *Controller) handleJoin(
	ctx context.Context,
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	type joinPayload struct {
		Type     string `json:"type"`
		RoomID   string `json:"roomId"`
		Username string `json:"username"`
		Email    string `json:"email"`
		PhotoURL string `json:"photoURL"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendJSON(conn, app.ErrorPayload{Type: app.EventError, Error: "bad_payload"})
		return
	}

	ident, err := domain.NewIdentity(p.Username, p.Email, p.PhotoURL)
	if err != nil {
		ctl.sendJSON(conn, app.ErrorPayload{Type: app.EventError, Error: err.Error()})
		return
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.RoomID).Msg("join")
	if err := ctl.Orch.OnJoin(ctx, sid, domain.RoomID(p.RoomID), ident); err != nil {
		ctl.reportError(conn, p.RoomID, err)
		return
	}
}

// handleLeave drops the room subscription; the connection stays open and
// may join again.
func (ctl *Controller) handleLeave(
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	type leavePayload struct {
		Type   string `json:"type"`
		RoomID string `json:"roomId"`
	}
	var p leavePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad leave payload")
		ctl.sendJSON(conn, app.ErrorPayload{Type: app.EventError, Error: "bad_payload"})
		return
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.RoomID).Msg("leave")
	ctl.Orch.OnLeave(sid, domain.RoomID(p.RoomID))
	ctl.sendJSON(conn, map[string]any{"type": "left"})
}

// reportError maps a failed operation to a point-to-point notice. Errors
// are never broadcast; only the originator learns about them.
func (ctl *Controller) reportError(conn *WsSignalConn, roomID string, err error) {
	if errors.Is(err, domain.ErrRoomNotFound) {
		ctl.sendJSON(conn, app.RoomNotFoundPayload{Type: app.EventRoomNotFound, Message: "Room not found"})
		return
	}
	log.Error().Err(err).Str("module", "signal").Str("room", roomID).Msg("store operation failed")
	if ctl.Orch.Metrics != nil {
		ctl.Orch.Metrics.StoreErrorsTotal.Inc()
	}
	ctl.sendJSON(conn, app.ErrorPayload{Type: app.EventError, Error: "internal error"})
}
