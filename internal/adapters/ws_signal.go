package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Ring/internal/app"
	"github.com/dkeye/Ring/internal/core"
	"github.com/dkeye/Ring/internal/domain"
)

type SignalWSController struct {
	Hub        *app.Hub
	ReadLimit  int64
	PingPeriod time.Duration
}

type wsSignalConn struct {
	id     domain.ConnID
	conn   *websocket.Conn
	send   chan core.Frame
	done   chan struct{}
	once   sync.Once
	closed atomic.Bool
}

func (c *wsSignalConn) ID() domain.ConnID { return c.id }

func (c *wsSignalConn) TrySend(f core.Frame) error {
	if c.closed.Load() {
		return core.ErrBackpressure
	}
	select {
	case c.send <- f:
		return nil
	default:
		return core.ErrBackpressure
	}
}

// Close never closes the send channel: a concurrent TrySend may still be
// enqueueing. The done channel unblocks the write pump instead.
func (c *wsSignalConn) Close() {
	c.once.Do(func() {
		c.closed.Store(true)
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *wsSignalConn) Alive() bool { return !c.closed.Load() }

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Str("module", "adapters.signal").Err(err).Msg("ws upgrade failed")
		return
	}

	conn := &wsSignalConn{
		id:   domain.ConnID(uuid.NewString()),
		conn: ws,
		send: make(chan core.Frame, 32),
		done: make(chan struct{}),
	}
	log.Info().Str("module", "adapters.signal").Str("conn", string(conn.id)).Msg("new signal connection")

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, conn)
}

func (ctl *SignalWSController) writePump(ctx context.Context, c *wsSignalConn) {
	ticker := time.NewTicker(ctl.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case data := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Str("module", "adapters.signal").Str("conn", string(c.id)).Err(err).Msg("write failed")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, c *wsSignalConn) {
	// Identity is bound by the first register-user event on this connection.
	var userID domain.UserID

	defer func() {
		log.Info().Str("module", "adapters.signal").Str("conn", string(c.id)).Str("user", string(userID)).Msg("signal connection closed")
		c.Close()
		ctl.Hub.HandleDisconnect(userID, c)
	}()

	if ctl.ReadLimit > 0 {
		c.conn.SetReadLimit(ctl.ReadLimit)
	}
	pongWait := ctl.PingPeriod * 10 / 9
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				return
			}
			ctl.dispatch(&userID, c, data)
		}
	}
}

// dispatch routes one inbound event into the hub. A failure while processing
// one event is contained here: it is reported to the sender and never reaches
// other sessions.
func (ctl *SignalWSController) dispatch(userID *domain.UserID, c *wsSignalConn, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "adapters.signal").Str("conn", string(c.id)).Interface("panic", r).Msg("event handler panicked")
			ctl.sendFailed(c, "", "server_error", "Failed to process event")
		}
	}()

	var env core.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Str("module", "adapters.signal").Str("conn", string(c.id)).Err(err).Msg("bad envelope")
		ctl.sendFailed(c, "", "invalid_payload", "Malformed event envelope")
		return
	}

	switch env.Event {
	case core.EvRegisterUser:
		var p core.RegisterUser
		if !ctl.bind(c, env, &p) {
			return
		}
		user, err := domain.NewUser(p.UserID, p.DisplayName)
		if err != nil {
			ctl.sendFailed(c, "", "invalid_user", err.Error())
			return
		}
		*userID = user.ID
		ctl.Hub.Register(user, c)

	case core.EvInitiateCall:
		var p core.InitiateCall
		if !ctl.bind(c, env, &p) {
			return
		}
		ctl.Hub.Initiate(c, p)

	case core.EvAcceptCall:
		var p core.CallRef
		if !ctl.bind(c, env, &p) {
			return
		}
		ctl.Hub.Accept(*userID, p.CallID)

	case core.EvDeclineCall:
		var p core.DeclineCall
		if !ctl.bind(c, env, &p) {
			return
		}
		ctl.Hub.Decline(*userID, p.CallID, p.Reason)

	case core.EvCancelCall:
		var p core.CallRef
		if !ctl.bind(c, env, &p) {
			return
		}
		ctl.Hub.Cancel(*userID, p.CallID)

	case core.EvEndCall:
		var p core.EndCall
		if !ctl.bind(c, env, &p) {
			return
		}
		ctl.Hub.End(*userID, p.CallID, p.Reason)

	case core.EvJoinCallRoom:
		var p core.CallRef
		if !ctl.bind(c, env, &p) {
			return
		}
		ctl.Hub.JoinRoom(*userID, c, p.CallID)

	case core.EvOffer, core.EvAnswer, core.EvICECandidate:
		var p core.RelayPayload
		if !ctl.bind(c, env, &p) {
			return
		}
		ctl.Hub.Relay(env.Event, *userID, c, p)

	default:
		log.Warn().Str("module", "adapters.signal").Str("event", env.Event).Msg("unknown event")
		ctl.sendFailed(c, "", "unknown_event", "Unknown event: "+env.Event)
	}
}

// bind unmarshals an event payload, reporting a typed failure on bad input.
func (ctl *SignalWSController) bind(c *wsSignalConn, env core.Envelope, out any) bool {
	if err := json.Unmarshal(env.Data, out); err != nil {
		log.Warn().Str("module", "adapters.signal").Str("event", env.Event).Err(err).Msg("bad payload")
		ctl.sendFailed(c, "", "invalid_payload", "Malformed "+env.Event+" payload")
		return false
	}
	return true
}

func (ctl *SignalWSController) sendFailed(c *wsSignalConn, callID domain.CallID, reason, message string) {
	frame, err := core.NewFrame(core.EvCallFailed, core.CallFailed{CallID: callID, Reason: reason, Message: message})
	if err != nil {
		return
	}
	_ = c.TrySend(frame)
}
