package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"coedit/server/internal/core"
	"coedit/server/internal/domain"
)

// memStore is an in-memory RoomStore with the same semantics as the
// Postgres implementation.
type memStore struct {
	mu    sync.Mutex
	rooms map[domain.RoomID]*domain.Room
}

func newMemStore() *memStore {
	return &memStore{rooms: make(map[domain.RoomID]*domain.Room)}
}

func (s *memStore) addRoom(id domain.RoomID, members ...domain.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[id] = &domain.Room{ID: id, Members: members}
}

func (s *memStore) FindByID(_ context.Context, roomID domain.RoomID) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	cp := *room
	cp.Members = append([]domain.Member(nil), room.Members...)
	return &cp, nil
}

func (s *memStore) UpsertMember(_ context.Context, roomID domain.RoomID, ident domain.Identity, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return false, domain.ErrRoomNotFound
	}
	for i, m := range room.Members {
		if m.Email == ident.Email {
			room.Members[i].JoinedAt = now
			return false, nil
		}
	}
	room.Members = append(room.Members, domain.Member{
		Username: ident.Username,
		Email:    ident.Email,
		PhotoURL: ident.PhotoURL,
		JoinedAt: now,
	})
	return true, nil
}

func (s *memStore) UpdateCode(_ context.Context, roomID domain.RoomID, code string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return domain.ErrRoomNotFound
	}
	room.Code = code
	room.LastModified = now
	return nil
}

func (s *memStore) RemoveMember(_ context.Context, roomID domain.RoomID, email string) (domain.RemovalOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return 0, domain.ErrRoomNotFound
	}
	for i, m := range room.Members {
		if m.Email == email {
			room.Members = append(room.Members[:i], room.Members[i+1:]...)
			if len(room.Members) == 0 {
				delete(s.rooms, roomID)
				return domain.RoomDeleted, nil
			}
			return domain.MemberRemoved, nil
		}
	}
	return 0, domain.ErrMemberNotFound
}

// fakeConn records delivered frames.
type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	fail   bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("buffer full")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {}

// events decodes every delivered frame and returns their envelopes.
func (c *fakeConn) events(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.frames))
	for _, f := range c.frames {
		var m map[string]any
		if err := json.Unmarshal(f, &m); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		out = append(out, m)
	}
	return out
}

func (c *fakeConn) countType(t *testing.T, event string) int {
	t.Helper()
	n := 0
	for _, e := range c.events(t) {
		if e["type"] == event {
			n++
		}
	}
	return n
}

type fixture struct {
	store *memStore
	orch  *Orchestrator
}

func newFixture() *fixture {
	store := newMemStore()
	presence := core.NewPresence()
	return &fixture{
		store: store,
		orch: &Orchestrator{
			Registry:   NewRegistry(),
			Presence:   presence,
			Reconciler: NewReconciler(store),
			Sync:       NewSynchronizer(store, presence, nil, nil),
		},
	}
}

// connect binds a fresh fake connection.
func (f *fixture) connect(sid core.SessionID) *fakeConn {
	conn := &fakeConn{}
	f.orch.OnConnect(sid, core.NewSession(sid, conn), nil)
	return conn
}

func ident(name string) domain.Identity {
	return domain.Identity{Username: name, Email: name + "@x.com", PhotoURL: "https://pics/" + name}
}
