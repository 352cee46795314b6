package signal

import (
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/app"
	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// Options tunes the websocket transport.
type Options struct {
	MaxSignalPayloadBytes int
	EgressFrames          int
	EgressBytes           int64
	PingInterval          time.Duration
	PongTimeout           time.Duration
}

// Controller upgrades HTTP requests and runs the per-connection pumps.
type Controller struct {
	Svc  *app.Service
	opts Options
}

func NewController(svc *app.Service, opts Options) *Controller {
	return &Controller{Svc: svc, opts: opts}
}

// wsConn adapts one websocket to core.SignalConnection. The send
// channel caps queued frames and queuedBytes caps queued bytes;
// overflowing either is backpressure. The byte budget is advisory:
// concurrent senders can overshoot it by one frame.
type wsConn struct {
	conn        *websocket.Conn
	send        chan core.Frame
	queuedBytes atomic.Int64
	maxBytes    int64

	mu     sync.RWMutex
	closed bool
	reason string
}

func newWSConn(ws *websocket.Conn, opts Options) *wsConn {
	return &wsConn{
		conn:     ws,
		send:     make(chan core.Frame, opts.EgressFrames),
		maxBytes: opts.EgressBytes,
	}
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	if c.queuedBytes.Load()+int64(len(f)) > c.maxBytes {
		return ErrBackpressure
	}
	select {
	case c.send <- f:
		c.queuedBytes.Add(int64(len(f)))
		return nil
	default:
		return ErrBackpressure
	}
}

// Close tears the connection down once. The first caller's reason wins
// and is carried in the close frame.
func (c *wsConn) Close(reason string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.reason = reason
	close(c.send)
	c.mu.Unlock()

	deadline := time.Now().Add(time.Second)
	msg := websocket.FormatCloseMessage(closeCode(reason), reason)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, deadline)
	_ = c.conn.Close()
}

func (c *wsConn) Buffered() int {
	return int(c.queuedBytes.Load())
}

func (c *wsConn) CloseReason() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reason
}

func closeCode(reason string) int {
	switch reason {
	case core.ReasonShutdown, core.ReasonEvicted, core.ReasonLeaving:
		return websocket.CloseGoingAway
	case core.ReasonFrameOversize:
		return websocket.CloseMessageTooBig
	case core.ReasonBadFrame:
		return websocket.CloseInvalidFramePayloadData
	case core.ReasonInternalError:
		return websocket.CloseInternalServerErr
	case core.ReasonSlowConsumer, core.ReasonHeartbeat:
		return websocket.ClosePolicyViolation
	case core.ReasonServerFull:
		return websocket.CloseTryAgainLater
	default:
		return websocket.CloseNormalClosure
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and hands the connection to the
// service. Capacity is checked before the upgrade so a full server
// answers with plain HTTP 503.
func (ctl *Controller) HandleSignal(c *gin.Context) {
	if !ctl.Svc.CanAccept() {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := newWSConn(ws, ctl.opts)
	sess, err := ctl.Svc.Connect(conn)
	if err != nil {
		conn.Close(core.ReasonServerFull)
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sess.ID)).Str("ct", c.GetString("client_token")).Msg("new WS connection")

	go ctl.writePump(conn)
	go ctl.readPump(sess.ID, conn)
}
