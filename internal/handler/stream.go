package handler

import (
	"net/http"
	"time"

	"github.com/auditgate/auditgate/internal/pkg/logger"
	"github.com/auditgate/auditgate/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamHandler tails new request-log entries over a websocket.
type StreamHandler struct {
	hub *service.Hub
}

func NewStreamHandler(hub *service.Hub) *StreamHandler {
	return &StreamHandler{hub: hub}
}

func (h *StreamHandler) Tail(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "error", err.Error())
		return
	}

	entries, cancel := h.hub.Subscribe()
	defer cancel()
	defer conn.Close()

	closed := make(chan struct{})
	go func() {
		// the only thing we expect from the client is the close frame
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return
			}
			if err := conn.WriteJSON(entry); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
