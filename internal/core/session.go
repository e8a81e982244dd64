package core

import (
	"sync"

	"coedit/server/internal/domain"
)

// Session binds one live connection to the identity it presented at join
// time. It is ephemeral and process-local; durable membership lives in the
// room store. The identity is guarded because roommates snapshot it while
// the owning connection may be re-joining.
type Session struct {
	sid  SessionID
	conn SignalConnection

	mu       sync.RWMutex
	identity domain.Identity
}

func NewSession(sid SessionID, conn SignalConnection) *Session {
	return &Session{sid: sid, conn: conn}
}

func (s *Session) SID() SessionID         { return s.sid }
func (s *Session) Conn() SignalConnection { return s.conn }

func (s *Session) Identity() domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

func (s *Session) SetIdentity(ident domain.Identity) {
	s.mu.Lock()
	s.identity = ident
	s.mu.Unlock()
}
