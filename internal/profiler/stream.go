package profiler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	streamBuffer   = 32
	maxInboundSize = 512
)

var upgrader = websocket.Upgrader{
	// the profiler is a development tool
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamMessage is pushed to websocket subscribers
type StreamMessage struct {
	Type    string   `json:"type"`
	Profile *Summary `json:"profile,omitempty"`
}

// Stream pushes the summary of every new profile over a websocket
func (h *Handlers) Stream(c *gin.Context) {
	logger := h.profiler.logger

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	summaries, unsubscribe := h.profiler.Store().Subscribe(streamBuffer)
	defer unsubscribe()

	// reads only serve to notice the peer going away
	done := make(chan struct{})
	conn.SetReadLimit(maxInboundSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.write(conn, StreamMessage{Type: "hello"}); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case summary, ok := <-summaries:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "profiler closed"),
					time.Now().Add(writeWait))
				return
			}
			if err := h.write(conn, StreamMessage{Type: "profile", Profile: &summary}); err != nil {
				logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (h *Handlers) write(conn *websocket.Conn, msg StreamMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}
