package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"threat-monitor/internal/logging"
	"threat-monitor/internal/models"
)

const (
	maxConnections = 50
	sendBuffer     = 16
	writeTimeout   = 5 * time.Second
)

// Hub pushes newly emitted alerts to connected dashboard clients. It is
// subscribed to the alert store, so every append reaches every open socket.
// Each connection writes from its own goroutine behind a buffered channel:
// Broadcast never blocks on a slow client, it drops the client instead, so
// the emission path can never stall on socket backpressure.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *logging.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]chan models.ThreatAlert
}

// NewHub creates an empty hub.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
		conns:  make(map[*websocket.Conn]chan models.ThreatAlert),
	}
}

// Broadcast hands the alert to every connected client's send queue. A
// client whose queue is full is not keeping up and gets dropped.
func (h *Hub) Broadcast(alert models.ThreatAlert) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.conns {
		select {
		case ch <- alert:
		default:
			h.logger.Warnf("Dropping websocket client that stopped reading")
			delete(h.conns, conn)
			close(ch)
			conn.Close()
		}
	}
}

// Serve upgrades the request and keeps the connection registered until the
// client goes away.
func (h *Hub) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("Websocket upgrade failed: %v", err)
		return
	}

	ch := make(chan models.ThreatAlert, sendBuffer)
	h.mu.Lock()
	if len(h.conns) >= maxConnections {
		h.mu.Unlock()
		h.logger.Warnf("Max websocket connections reached, rejecting client")
		conn.Close()
		return
	}
	h.conns[conn] = ch
	total := len(h.conns)
	h.mu.Unlock()
	h.logger.Infof("Websocket client connected (total: %d)", total)

	go h.writeLoop(conn, ch)

	// Read loop only detects disconnects; clients never send payloads.
	go func() {
		defer func() {
			h.drop(conn)
			h.logger.Infof("Websocket client disconnected")
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// writeLoop drains one connection's send queue. Every write carries a
// deadline so a wedged socket fails instead of hanging the loop.
func (h *Hub) writeLoop(conn *websocket.Conn, ch chan models.ThreatAlert) {
	for alert := range ch {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(gin.H{"type": "alert", "alert": alert}); err != nil {
			h.logger.Errorf("Failed to push alert to websocket client: %v", err)
			h.drop(conn)
			return
		}
	}
}

// drop unregisters the connection if still registered and closes it. Safe
// to call from both the read and write loops.
func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if ch, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		close(ch)
	}
	h.mu.Unlock()
	conn.Close()
}

// clientCount reports the number of registered connections.
func (h *Hub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}
