package signal

import (
	"errors"
	"net"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/app"
	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/core"
	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/domain"
)

const writeTimeout = 5 * time.Second

// frameSlack widens the transport read limit past the signal payload
// budget, leaving room for the JSON envelope around it.
const frameSlack = 4096

func (ctl *Controller) writePump(c *wsConn) {
	ticker := time.NewTicker(ctl.opts.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			c.queuedBytes.Add(-int64(len(data)))
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				c.Close("")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump write error")
				c.Close("")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close("")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(sid domain.SessionID, c *wsConn) {
	defer func() {
		c.Close("")
		reason := c.CloseReason()
		if reason == "" {
			reason = core.ReasonConnectionLost
		}
		ctl.Svc.Disconnect(sid, reason)
		log.Info().Str("module", "signal").Str("sid", string(sid)).Str("reason", reason).Msg("readPump closing")
	}()

	c.conn.SetReadLimit(int64(ctl.opts.MaxSignalPayloadBytes + frameSlack))
	idle := ctl.opts.PingInterval + ctl.opts.PongTimeout
	_ = c.conn.SetReadDeadline(time.Now().Add(idle))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(idle))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			var netErr net.Error
			switch {
			case errors.Is(err, websocket.ErrReadLimit):
				c.Close(core.ReasonFrameOversize)
			case errors.As(err, &netErr) && netErr.Timeout():
				c.Close(core.ReasonHeartbeat)
			}
			log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(idle))

		if ferr := ctl.Svc.HandleFrame(sid, data); ferr != nil {
			c.Close(fatalReason(ferr))
			return
		}
	}
}

// fatalReason maps a fatal frame error to a close reason.
func fatalReason(err error) string {
	switch {
	case errors.Is(err, app.ErrFrameOversize):
		return core.ReasonFrameOversize
	case errors.Is(err, app.ErrBadFrame):
		return core.ReasonBadFrame
	default:
		return core.ReasonInternalError
	}
}
