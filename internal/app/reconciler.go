package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"coedit/server/internal/domain"
)

// RoomStore is the durable store the sync engine consumes. Implemented by
// store.RoomStore; tests use an in-memory fake.
type RoomStore interface {
	FindByID(ctx context.Context, roomID domain.RoomID) (*domain.Room, error)
	UpsertMember(ctx context.Context, roomID domain.RoomID, ident domain.Identity, now time.Time) (bool, error)
	UpdateCode(ctx context.Context, roomID domain.RoomID, code string, now time.Time) error
	RemoveMember(ctx context.Context, roomID domain.RoomID, email string) (domain.RemovalOutcome, error)
}

// Reconciler merges joining identities into a room's durable member list.
// It never touches live presence; that is the orchestrator's job.
type Reconciler struct {
	store RoomStore
	now   func() time.Time
}

func NewReconciler(store RoomStore) *Reconciler {
	return &Reconciler{store: store, now: time.Now}
}

// Join upserts the identity into the room's member list keyed by email.
// A rejoin refreshes the member's timestamp instead of duplicating the
// entry. Returns the room after the merge and whether the member is new.
// Fails with domain.ErrRoomNotFound when the room does not exist; nothing
// is persisted in that case.
func (r *Reconciler) Join(ctx context.Context, roomID domain.RoomID, ident domain.Identity) (*domain.Room, bool, error) {
	isNew, err := r.store.UpsertMember(ctx, roomID, ident, r.now())
	if err != nil {
		return nil, false, err
	}

	room, err := r.store.FindByID(ctx, roomID)
	if err != nil {
		return nil, false, err
	}

	log.Info().Str("module", "app.reconciler").
		Str("room", string(roomID)).
		Str("email", ident.Email).
		Bool("new_member", isNew).
		Msg("membership reconciled")
	return room, isNew, nil
}

// RemoveMember is the only path that permanently deletes durable
// membership; removing the last member deletes the room itself.
func (r *Reconciler) RemoveMember(ctx context.Context, roomID domain.RoomID, email string) (domain.RemovalOutcome, error) {
	outcome, err := r.store.RemoveMember(ctx, roomID, email)
	if err != nil {
		return 0, err
	}
	log.Info().Str("module", "app.reconciler").
		Str("room", string(roomID)).
		Str("email", email).
		Str("outcome", outcome.String()).
		Msg("member removed")
	return outcome, nil
}
