package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"wisefido-vitalsim/internal/models"
)

const writeWait = 200 * time.Millisecond

// Hub broadcasts readings to connected websocket clients
type Hub struct {
	mu       sync.Mutex
	writeMu  sync.Mutex // one writer per connection at a time
	conns    map[*websocket.Conn]bool
	origins  map[string]bool
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHub accepts same-host origins plus allowedOrigins ("*" accepts any)
func NewHub(allowedOrigins []string, logger *zap.Logger) *Hub {
	h := &Hub{
		conns:   make(map[*websocket.Conn]bool),
		origins: make(map[string]bool, len(allowedOrigins)),
		logger:  logger,
	}
	for _, o := range allowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			h.origins[strings.ToLower(strings.TrimRight(o, "/"))] = true
		}
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.origins["*"] {
		return true
	}
	if h.origins[strings.ToLower(origin)] {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func (h *Hub) add(c *websocket.Conn) {
	h.mu.Lock()
	h.conns[c] = true
	h.mu.Unlock()
}

func (h *Hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
}

func (h *Hub) snapshot() []*websocket.Conn {
	h.mu.Lock()
	clients := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	return clients
}

// Count connected clients
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Publish sends r to every client; clients that fail the write are dropped
func (h *Hub) Publish(_ context.Context, r models.Reading) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}
	h.broadcastText(b)
	return nil
}

func (h *Hub) broadcastText(b []byte) {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	for _, c := range h.snapshot() {
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			h.logger.Debug("Dropping websocket client", zap.String("remote", c.RemoteAddr().String()), zap.Error(err))
			_ = c.Close()
			h.remove(c)
		}
	}
}

// ServeWS upgrades the request and holds the connection until the client leaves
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	h.add(conn)
	h.logger.Info("Websocket client connected", zap.String("remote", conn.RemoteAddr().String()))
	defer func() {
		h.remove(conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Close disconnects every client
func (h *Hub) Close() {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	for _, c := range h.snapshot() {
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		_ = c.Close()
		h.remove(c)
	}
}
