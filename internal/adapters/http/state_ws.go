package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Duet/internal/app/facade"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var ErrBackpressure = errors.New("backpressure")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StateWSController pushes every republished snapshot to the browser.
type StateWSController struct {
	call       Call
	readLimit  int64
	pingPeriod time.Duration
}

func NewStateWSController(call Call, readLimit int64, pingPeriod time.Duration) *StateWSController {
	if readLimit <= 0 {
		readLimit = 32768
	}
	if pingPeriod <= 0 {
		pingPeriod = 54 * time.Second
	}
	return &StateWSController{call: call, readLimit: readLimit, pingPeriod: pingPeriod}
}

type wsStateConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *wsStateConn) TrySend(b []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- b:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsStateConn) Close() {
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

func (ctl *StateWSController) HandleState(ctx context.Context, c *gin.Context) {
	sid := c.GetString("client_token")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.readLimit)

	conn := &wsStateConn{
		conn: ws,
		send: make(chan []byte, 16),
	}
	ctx, cancel := context.WithCancel(ctx)

	ctl.sendJSON(conn, ctl.call.Snapshot())
	unsubscribe := ctl.call.Subscribe(func(s facade.Snapshot) {
		ctl.sendJSON(conn, s)
	})

	go ctl.writePump(ctx, conn)
	go func() {
		defer func() {
			unsubscribe()
			cancel()
			conn.Close()
			log.Info().Str("module", "adapters.http").Str("sid", sid).Msg("ws state closed")
		}()
		ctl.readPump(ctx, conn)
	}()
}

func (ctl *StateWSController) writePump(ctx context.Context, c *wsStateConn) {
	ping := time.NewTicker(ctl.pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			c.Close()
			return
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("writePump ping")
				c.Close()
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "adapters.http").Msg("writePump set deadline")
				c.Close()
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "adapters.http").Msg("writePump write error")
				c.Close()
				return
			}
		}
	}
}

// readPump only exists to notice the browser going away; the socket is
// push-only.
func (ctl *StateWSController) readPump(ctx context.Context, c *wsStateConn) {
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.pingPeriod * 2))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.pingPeriod * 2))
	})
	for {
		if ctx.Err() != nil {
			return
		}
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (ctl *StateWSController) sendJSON(c *wsStateConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("sendJSON marshal")
		return
	}
	if err := c.TrySend(b); err != nil && errors.Is(err, ErrBackpressure) {
		log.Warn().Str("module", "adapters.http").Msg("state push dropped")
	}
}
