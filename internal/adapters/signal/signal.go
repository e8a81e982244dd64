// Package signal is the websocket adapter: it owns connections and their
// pumps, decodes inbound envelopes, and hands events to the orchestrator.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"coedit/server/internal/app"
	"coedit/server/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

const (
	sendBuffer   = 32
	writeWait    = 5 * time.Second
	editLimit    = 300
	editInterval = time.Second
)

type Controller struct {
	Orch       *app.Orchestrator
	ReadLimit  int64
	PingPeriod time.Duration

	limiter *RateLimiter
}

func NewController(orch *app.Orchestrator, readLimit int64, pingPeriod time.Duration) *Controller {
	return &Controller{
		Orch:       orch,
		ReadLimit:  readLimit,
		PingPeriod: pingPeriod,
		limiter:    NewRateLimiter(editLimit, editInterval),
	}
}

// WsSignalConn wraps a websocket connection behind a buffered send
// channel so fan-out never blocks on a slow peer.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and starts the connection lifecycle.
// Each connection gets a fresh id; the client-token cookie only
// identifies the browser across connections.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	sid := core.SessionID(uuid.NewString())
	log.Info().Str("module", "signal").
		Str("sid", string(sid)).
		Str("client", c.GetString("client_token")).
		Msg("new WS connection")

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, sendBuffer),
	}

	sess := core.NewSession(sid, conn)
	ctx, cancel := context.WithCancel(ctx)
	ctl.Orch.OnConnect(sid, sess, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, conn)
}
