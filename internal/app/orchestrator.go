package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"coedit/server/internal/core"
	"coedit/server/internal/domain"
	"coedit/server/internal/metrics"
)

// ErrSessionUnknown means the connection was never bound, or already
// disconnected.
var ErrSessionUnknown = errors.New("session unknown")

// Orchestrator drives the connection lifecycle: subscribe on JOIN,
// explicit leave, and disconnect. It keeps the session registry and the
// live presence sets consistent with each other; durable membership is
// delegated to the reconciler.
type Orchestrator struct {
	Registry   *Registry
	Presence   *core.Presence
	Reconciler *Reconciler
	Sync       *Synchronizer
	Metrics    *metrics.Metrics
}

// OnConnect registers a fresh connection with no room.
func (o *Orchestrator) OnConnect(sid core.SessionID, sess *core.Session, cancel context.CancelFunc) {
	o.Registry.Bind(sid, sess, cancel)
	if o.Metrics != nil {
		o.Metrics.ConnectionsTotal.Inc()
		o.Metrics.ActiveConnections.Inc()
	}
}

// OnJoin subscribes the connection to the room, reconciles durable
// membership, and announces the updated presence list to everyone in the
// room, the new arrival included. When the room does not exist the
// subscription is rolled back and the connection stays connected with no
// room, free to retry another JOIN.
func (o *Orchestrator) OnJoin(ctx context.Context, sid core.SessionID, roomID domain.RoomID, ident domain.Identity) error {
	sess, ok := o.Registry.Session(sid)
	if !ok {
		return ErrSessionUnknown
	}
	sess.SetIdentity(ident)

	o.Presence.Subscribe(roomID, sess)
	o.Registry.AddRoom(sid, roomID)

	_, isNew, err := o.Reconciler.Join(ctx, roomID, ident)
	if err != nil {
		o.Presence.Unsubscribe(roomID, sid)
		o.Registry.RemoveRoom(sid, roomID)
		return err
	}

	frame := encode(JoinedPayload{
		Type:         EventJoined,
		Clients:      o.Presence.Snapshot(roomID),
		Username:     ident.Username,
		ConnectionID: string(sid),
		Email:        ident.Email,
		PhotoURL:     ident.PhotoURL,
	})
	o.Presence.Broadcast(roomID, frame, "")
	if o.Metrics != nil {
		o.Metrics.BroadcastsTotal.WithLabelValues(EventJoined).Inc()
	}

	log.Info().Str("module", "app.orchestrator").
		Str("sid", string(sid)).
		Str("room", string(roomID)).
		Bool("new_member", isNew).
		Msg("joined room")
	return nil
}

// OnLeave handles an explicit leave: the session drops its subscription
// and the room is told, but durable membership is untouched.
func (o *Orchestrator) OnLeave(sid core.SessionID, roomID domain.RoomID) {
	sess, ok := o.Registry.Session(sid)
	if !ok {
		return
	}
	o.Presence.Unsubscribe(roomID, sid)
	o.Registry.RemoveRoom(sid, roomID)
	o.announceDeparture(roomID, sid, sess.Identity().Username)
	log.Info().Str("module", "app.orchestrator").Str("sid", string(sid)).Str("room", string(roomID)).Msg("left room")
}

// OnDisconnect runs the abrupt-disconnect path. It fires exactly once per
// connection: the registry entry is taken atomically, so a second call is
// a no-op. Every room the connection was subscribed to gets one departure
// notice; durable membership stays as it was, so a reconnect is
// recognized by email and refreshed rather than duplicated.
func (o *Orchestrator) OnDisconnect(sid core.SessionID) {
	sess, rooms, ok := o.Registry.Unbind(sid)
	if !ok {
		return
	}
	if o.Metrics != nil {
		o.Metrics.ActiveConnections.Dec()
	}

	username := sess.Identity().Username
	for _, roomID := range rooms {
		o.Presence.Unsubscribe(roomID, sid)
		o.announceDeparture(roomID, sid, username)
	}
	log.Info().Str("module", "app.orchestrator").Str("sid", string(sid)).Int("rooms", len(rooms)).Msg("disconnected")
}

func (o *Orchestrator) announceDeparture(roomID domain.RoomID, sid core.SessionID, username string) {
	frame := encode(DisconnectedPayload{
		Type:         EventDisconnected,
		ConnectionID: string(sid),
		Username:     username,
	})
	o.Presence.Broadcast(roomID, frame, sid)
	if o.Metrics != nil {
		o.Metrics.BroadcastsTotal.WithLabelValues(EventDisconnected).Inc()
	}
}
