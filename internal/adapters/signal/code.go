package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"coedit/server/internal/app"
	"coedit/server/internal/core"
	"coedit/server/internal/domain"
)

func (ctl *Controller) handleCodeChange(
	ctx context.Context,
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	type codeChangePayload struct {
		Type   string `json:"type"`
		RoomID string `json:"roomId"`
		Code   string `json:"code"`
	}
	var p codeChangePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad code change payload")
		ctl.sendJSON(conn, app.ErrorPayload{Type: app.EventError, Error: "bad_payload"})
		return
	}

	if !ctl.limiter.Allow(sid) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("edit rate limit exceeded, dropping")
		return
	}

	if err := ctl.Orch.Sync.ApplyEdit(ctx, sid, domain.RoomID(p.RoomID), p.Code); err != nil {
		ctl.reportError(conn, p.RoomID, err)
		return
	}
}

// handleSyncCode delivers text point-to-point to one connection. An empty
// code field asks the server for the room's current text, which covers a
// reconnecting participant pulling state without anyone else typing.
func (ctl *Controller) handleSyncCode(
	ctx context.Context,
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	type syncCodePayload struct {
		Type     string `json:"type"`
		TargetID string `json:"targetConnectionId"`
		RoomID   string `json:"roomId"`
		Code     string `json:"code"`
	}
	var p syncCodePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad sync code payload")
		ctl.sendJSON(conn, app.ErrorPayload{Type: app.EventError, Error: "bad_payload"})
		return
	}

	target, ok := ctl.Orch.Registry.Session(core.SessionID(p.TargetID))
	if !ok {
		log.Debug().Str("module", "signal").Str("target", p.TargetID).Msg("sync target gone")
		return
	}

	code := p.Code
	if code == "" {
		var err error
		code, err = ctl.Orch.Sync.CurrentCode(ctx, domain.RoomID(p.RoomID))
		if err != nil {
			ctl.reportError(conn, p.RoomID, err)
			return
		}
	}

	if err := ctl.Orch.Sync.Resync(target, code); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("target", p.TargetID).Msg("resync delivery failed")
	}
}
