package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ekaraca/watchtogether/internal/app"
	"github.com/ekaraca/watchtogether/internal/core"
	"github.com/ekaraca/watchtogether/internal/domain"
)

var (
	ErrBackpressure     = errors.New("backpressure")
	ErrConnectionClosed = errors.New("connection closed")
)

type SignalWSController struct {
	Orch *app.Orchestrator
}

func NewSignalWSController(orch *app.Orchestrator) *SignalWSController {
	return &SignalWSController{Orch: orch}
}

type wsSignalConn struct {
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
	send   chan core.Frame
}

// TrySend queues a frame without blocking. A broadcast may still be in
// flight on the dispatch loop while the read pump tears the connection
// down, so a closed connection answers with an error, never a panic.
func (c *wsSignalConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}
	select {
	case c.send <- f:
		return nil
	default:
		return ErrBackpressure
	}
}

func (c *wsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// client is the per-connection view: a fresh id per socket, admitted only
// after a successful join.
type client struct {
	id     domain.ParticipantID
	conn   *wsSignalConn
	joined bool
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	id := domain.ParticipantID(uuid.NewString())
	log.Info().Str("module", "signal").Str("id", string(id)).Str("ct", c.GetString("client_token")).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}

	cl := &client{
		id: id,
		conn: &wsSignalConn{
			conn: ws,
			send: make(chan core.Frame, 32),
		},
	}

	ctx, cancel := context.WithCancel(ctx)

	go ctl.writePump(ctx, cl.conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, cl)
	}()
}
