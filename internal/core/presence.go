package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"coedit/server/internal/domain"
)

// ClientInfo is a read-only view of a live session for presence payloads.
type ClientInfo struct {
	ConnectionID string `json:"connectionId"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PhotoURL     string `json:"photoURL"`
}

// PublishResult reports delivery stats/backpressure to the caller.
type PublishResult struct {
	SentTo  int
	Dropped []*Session
}

// Presence is the transport-side registry of who is live in which room.
// It is the source of truth for fan-out; the durable member list in the
// store includes offline participants and is a separate projection.
// It never closes adapter-owned connections.
type Presence struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]map[SessionID]*Session
}

func NewPresence() *Presence {
	return &Presence{rooms: make(map[domain.RoomID]map[SessionID]*Session)}
}

func (p *Presence) Subscribe(roomID domain.RoomID, s *Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rooms[roomID] == nil {
		p.rooms[roomID] = make(map[SessionID]*Session)
	}
	p.rooms[roomID][s.SID()] = s
	log.Debug().Str("module", "core.presence").Str("sid", string(s.SID())).Str("room", string(roomID)).Msg("subscribed")
}

func (p *Presence) Unsubscribe(roomID domain.RoomID, sid SessionID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sessions := p.rooms[roomID]
	if sessions == nil {
		return
	}
	delete(sessions, sid)
	if len(sessions) == 0 {
		delete(p.rooms, roomID)
	}
	log.Debug().Str("module", "core.presence").Str("sid", string(sid)).Str("room", string(roomID)).Msg("unsubscribed")
}

// Sessions returns the live sessions subscribed to a room, in no
// particular order.
func (p *Presence) Sessions(roomID domain.RoomID) []*Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Session, 0, len(p.rooms[roomID]))
	for _, s := range p.rooms[roomID] {
		out = append(out, s)
	}
	return out
}

// Snapshot returns presence info for every live session in a room.
func (p *Presence) Snapshot(roomID domain.RoomID) []ClientInfo {
	sessions := p.Sessions(roomID)
	out := make([]ClientInfo, 0, len(sessions))
	for _, s := range sessions {
		ident := s.Identity()
		out = append(out, ClientInfo{
			ConnectionID: string(s.SID()),
			Username:     ident.Username,
			Email:        ident.Email,
			PhotoURL:     ident.PhotoURL,
		})
	}
	return out
}

func (p *Presence) Count(roomID domain.RoomID) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.rooms[roomID])
}

// Broadcast delivers a frame to every live session in the room except
// exclude. Sends are non-blocking; a session whose buffer is full is
// reported as dropped, not retried.
func (p *Presence) Broadcast(roomID domain.RoomID, frame Frame, exclude SessionID) PublishResult {
	targets := p.Sessions(roomID)
	res := PublishResult{}
	for _, s := range targets {
		if s.SID() == exclude {
			continue
		}
		if err := s.Conn().TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, s)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.presence").Str("room", string(roomID)).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}
