package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"cpu_boost/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultInterval  = 1 * time.Second
	minInterval      = 10 * time.Millisecond
	maxInterval      = 10 * time.Second
	maxIntervalMilli = 10_000
)

// Envelope used for WebSocket messages.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary      Boost status stream
// @Description  Sends the boost status every interval. With changes_only=true a
// @Description  message is sent only when the boost state or request flag changed.
// @Tags         boost
// @Param        interval      query  string  false  "Go duration, e.g. 200ms (max 10s)"
// @Param        interval_ms   query  int     false  "Interval in milliseconds (max 10000)"
// @Param        changes_only  query  bool    false  "Suppress unchanged states"
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	interval := h.parseInterval(c)
	changesOnly, _ := strconv.ParseBool(c.Query("changes_only"))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Reader goroutine handles control frames and detects disconnects.
	done := make(chan struct{})
	go h.startReader(conn, done)

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	ctx := c.Request.Context()
	stream := &stateStream{changesOnly: changesOnly}

	// Send initial state immediately.
	if err := h.sendState(ctx, conn, stream); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "err", err)
		}
		return
	}

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case <-ticker.C:
			if err := h.sendState(ctx, conn, stream); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		}
	}
}

// parseInterval reads ?interval=2s or ?interval_ms=2000 with bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d >= minInterval && d <= maxInterval {
			return d
		}
	}

	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= maxIntervalMilli {
			d := time.Duration(v) * time.Millisecond
			if d < minInterval {
				d = minInterval
			}
			return d
		}
	}

	return defaultInterval
}

// startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
	}
}

// stateStream remembers what was last sent on one connection.
type stateStream struct {
	changesOnly bool
	sent        bool
	last        streamKey
}

type streamKey struct {
	active    bool
	requested bool
	cycleID   string
	floorKHz  int
}

func keyOf(st models.BoostStatus) streamKey {
	return streamKey{active: st.Active, requested: st.Requested, cycleID: st.CycleID, floorKHz: st.FloorKHz}
}

// shouldSend reports whether st must be written and records it as sent.
func (s *stateStream) shouldSend(st models.BoostStatus) bool {
	k := keyOf(st)
	if s.changesOnly && s.sent && k == s.last {
		return false
	}
	s.sent = true
	s.last = k
	return true
}

// sendState fetches and writes the current state with a write deadline.
func (h *Handler) sendState(ctx context.Context, conn *websocket.Conn, stream *stateStream) error {
	st, err := h.services.Monitoring.GetState(ctx)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_get_state_failed", "err", err)
		}
		return err
	}
	if !stream.shouldSend(st) {
		return nil
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(wsEnvelope{Type: "state", Data: st})
}
