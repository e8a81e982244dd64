package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"coedit/server/internal/core"
	"coedit/server/internal/domain"
)

type sessionEntry struct {
	session *core.Session
	rooms   map[domain.RoomID]struct{}
	cancel  context.CancelFunc
}

// Registry is the process-local session table: connection id to the last
// known identity that connection presented, plus its room subscriptions.
// Rebuilt from scratch on restart, never persisted. Injected into handlers
// so it can be faked in tests.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[core.SessionID]*sessionEntry)}
}

func (r *Registry) Bind(sid core.SessionID, sess *core.Session, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{
		session: sess,
		rooms:   make(map[domain.RoomID]struct{}),
		cancel:  cancel,
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound session")
}

func (r *Registry) Session(sid core.SessionID) (*core.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.session, true
	}
	return nil, false
}

func (r *Registry) AddRoom(sid core.SessionID, roomID domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	e.rooms[roomID] = struct{}{}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(roomID)).Msg("subscribed room")
	return true
}

func (r *Registry) RemoveRoom(sid core.SessionID, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sid]; ok {
		delete(e.rooms, roomID)
	}
}

// Rooms returns the rooms the connection is currently subscribed to.
func (r *Registry) Rooms(sid core.SessionID) []domain.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok {
		return nil
	}
	out := make([]domain.RoomID, 0, len(e.rooms))
	for id := range e.rooms {
		out = append(out, id)
	}
	return out
}

// Unbind removes the session and returns it together with its room
// subscriptions. The second call for the same sid reports found=false, so
// disconnect cleanup runs exactly once.
func (r *Registry) Unbind(sid core.SessionID) (*core.Session, []domain.RoomID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return nil, nil, false
	}
	delete(r.sessions, sid)
	rooms := make([]domain.RoomID, 0, len(e.rooms))
	for id := range e.rooms {
		rooms = append(rooms, id)
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbound session")
	return e.session, rooms, true
}

func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.cancel != nil {
		e.cancel()
	}
	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
