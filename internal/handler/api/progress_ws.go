package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/internal/domain/models"
	applogger "github.com/OffGrid0xDAO/OffGrid-Scalp-Bot-sub004/pkg/logger"
)

const wsWriteTimeout = 5 * time.Second

// ProgressHub fans optimizer iteration records out to connected WebSocket
// clients. Slow or dead clients are dropped, they never stall the optimizer.
type ProgressHub struct {
	mu       sync.Mutex
	conns    map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
	l        *applogger.Logger
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{
		conns: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// SetLogger injects a structured logger.
func (h *ProgressHub) SetLogger(l *applogger.Logger) { h.l = l }

func (h *ProgressHub) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/optimize/stream", h.Handle)
}

// Handle upgrades the connection and keeps it registered until the client
// goes away. Inbound messages are discarded; the stream is one-way.
func (h *ProgressHub) Handle(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		if h.l != nil {
			h.l.Warn("ws upgrade failed", applogger.Error(err))
		}
		return nil
	}
	h.register(conn)
	defer h.unregister(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}

// Broadcast sends one iteration record to every connected client.
func (h *ProgressHub) Broadcast(rec models.IterationRecord) {
	b, err := json.Marshal(rec)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			if h.l != nil {
				h.l.Debug("ws client dropped", applogger.Error(err))
			}
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

// ClientCount reports the number of connected clients.
func (h *ProgressHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *ProgressHub) register(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *ProgressHub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.conns[conn]; ok {
		conn.Close()
		delete(h.conns, conn)
	}
	h.mu.Unlock()
}
