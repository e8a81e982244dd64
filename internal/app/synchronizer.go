package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"coedit/server/internal/core"
	"coedit/server/internal/domain"
	"coedit/server/internal/metrics"
)

// DocumentCache is the optional fast path for current document text.
// Implemented by cache.CodeCache; nil disables caching.
type DocumentCache interface {
	Put(ctx context.Context, roomID domain.RoomID, code string) error
	Get(ctx context.Context, roomID domain.RoomID) (string, bool, error)
	Invalidate(ctx context.Context, roomID domain.RoomID) error
}

// Synchronizer persists document edits and relays them to the rest of the
// room. Consistency policy is whole-document last-write-wins: the edit
// whose store write completes last fully replaces prior text, no merge.
type Synchronizer struct {
	store    RoomStore
	presence *core.Presence
	cache    DocumentCache
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewSynchronizer(store RoomStore, presence *core.Presence, cache DocumentCache, m *metrics.Metrics) *Synchronizer {
	return &Synchronizer{store: store, presence: presence, cache: cache, metrics: m, now: time.Now}
}

// ApplyEdit persists newText as the room's current document and fans it
// out to every other live session in the room. The originator gets no
// echo. A missing room aborts before any persistence or fan-out;
// domain.ErrRoomNotFound is returned for the caller to report
// point-to-point.
func (s *Synchronizer) ApplyEdit(ctx context.Context, from core.SessionID, roomID domain.RoomID, newText string) error {
	if err := s.store.UpdateCode(ctx, roomID, newText, s.now()); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.EditsTotal.Inc()
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, roomID, newText); err != nil {
			log.Warn().Err(err).Str("module", "app.sync").Str("room", string(roomID)).Msg("cache write failed")
		}
	}

	frame := encode(CodeChangePayload{Type: EventCodeChange, Code: newText})
	res := s.presence.Broadcast(roomID, frame, from)
	if s.metrics != nil {
		s.metrics.BroadcastsTotal.WithLabelValues(EventCodeChange).Inc()
	}
	log.Debug().Str("module", "app.sync").Str("room", string(roomID)).Int("sent_to", res.SentTo).Msg("edit relayed")
	return nil
}

// Resync delivers text point-to-point to one connection, bypassing the
// room fan-out. Used when a participant pulls the latest state after
// reconnecting instead of waiting for someone else to type.
func (s *Synchronizer) Resync(target *core.Session, text string) error {
	frame := encode(CodeChangePayload{Type: EventCodeChange, Code: text})
	return target.Conn().TrySend(frame)
}

// CurrentCode returns the room's current document, from the cache when
// possible. The store stays authoritative; cache errors degrade to a
// store read.
func (s *Synchronizer) CurrentCode(ctx context.Context, roomID domain.RoomID) (string, error) {
	if s.cache != nil {
		code, ok, err := s.cache.Get(ctx, roomID)
		if err != nil {
			log.Warn().Err(err).Str("module", "app.sync").Str("room", string(roomID)).Msg("cache read failed")
		} else if ok {
			return code, nil
		}
	}

	room, err := s.store.FindByID(ctx, roomID)
	if err != nil {
		return "", err
	}
	if s.cache != nil {
		if err := s.cache.Put(ctx, roomID, room.Code); err != nil {
			log.Warn().Err(err).Str("module", "app.sync").Str("room", string(roomID)).Msg("cache backfill failed")
		}
	}
	return room.Code, nil
}
