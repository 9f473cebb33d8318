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

	"github.com/kylechi05/swan-hacks-2025/internal/app"
	"github.com/kylechi05/swan-hacks-2025/internal/app/orch"
	"github.com/kylechi05/swan-hacks-2025/internal/core"
	"github.com/kylechi05/swan-hacks-2025/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// SignalWSController owns the websocket signaling surface: it parses
// inbound frames, drives the orchestrator and serializes outbound
// events back to the room or chat members.
type SignalWSController struct {
	Orch    *orch.Orchestrator
	Policy  app.Policy
	Limiter *ChatRateLimiter
}

func NewSignalWSController(o *orch.Orchestrator) *SignalWSController {
	return &SignalWSController{
		Orch:    o,
		Policy:  app.SimplePolicy{},
		Limiter: NewChatRateLimiter(20, 10*time.Second),
	}
}

type wsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsSignalConn) TrySend(f core.Frame) error {
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

func (c *wsSignalConn) Close() {
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

// HandleSignal upgrades the request and runs the connection's pumps.
// Every transport connection gets a fresh ephemeral session id.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(uuid.NewString())
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}

	conn := &wsSignalConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	ctx, cancel := context.WithCancel(ctx)
	ctl.Orch.Registry.BindSignal(sid, conn, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, conn)
}

// sendTo delivers one event to a session, consulting the backpressure
// policy when the connection cannot keep up.
func (ctl *SignalWSController) sendTo(sid core.SessionID, v any) {
	conn, ok := ctl.Orch.Registry.Signal(sid)
	if !ok {
		return
	}
	if err := ctl.trySendJSON(conn, v); err != nil && errors.Is(err, ErrBackpressure) {
		if ctl.Policy != nil && ctl.Policy.OnBackPressure(sid) == app.KickMember {
			log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("kicking slow member")
			ctl.Orch.Registry.Cancel(sid)
		}
	}
}

// broadcastRoom fans an event out to the meeting room's members,
// excluding except when non-empty.
func (ctl *SignalWSController) broadcastRoom(id domain.MeetingID, except core.SessionID, v any) {
	for _, member := range ctl.Orch.Rooms.Members(id) {
		if member == except {
			continue
		}
		ctl.sendTo(member, v)
	}
}

func (ctl *SignalWSController) broadcastSIDs(sids []core.SessionID, except core.SessionID, v any) {
	for _, sid := range sids {
		if sid == except {
			continue
		}
		ctl.sendTo(sid, v)
	}
}

type errorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (ctl *SignalWSController) sendError(conn core.SignalConnection, msg string) {
	ctl.sendJSON(conn, errorEvent{Type: "error", Message: msg})
}

func (ctl *SignalWSController) sendChatError(conn core.SignalConnection, msg string) {
	ctl.sendJSON(conn, errorEvent{Type: "chat-error", Message: msg})
}
