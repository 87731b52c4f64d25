package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeTimeout = 10 * time.Second

// client serializes writes; a websocket.Conn allows one concurrent writer
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

// Hub tracks websocket connections per user
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*websocket.Conn]*client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*websocket.Conn]*client)}
}

func (h *Hub) AddClient(userId string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.clients[userId]
	if !ok {
		conns = make(map[*websocket.Conn]*client)
		h.clients[userId] = conns
	}
	conns[conn] = &client{conn: conn}
	zap.L().Debug("Websocket client connected", zap.String("user_id", userId), zap.Int("connections", len(conns)))
}

func (h *Hub) RemoveClient(userId string, conn *websocket.Conn) {
	h.mu.Lock()
	if conns, ok := h.clients[userId]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.clients, userId)
		}
	}
	h.mu.Unlock()
	_ = conn.Close()
}

// ClientCount returns the number of open connections for userId
func (h *Hub) ClientCount(userId string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userId])
}

// SendJSON writes v to a single connection of userId
func (h *Hub) SendJSON(userId string, conn *websocket.Conn, v any) error {
	h.mu.RLock()
	c, ok := h.clients[userId][conn]
	h.mu.RUnlock()
	if !ok {
		return websocket.ErrCloseSent
	}
	return c.writeJSON(v)
}

// BroadcastJSON writes v to every connection of userId. Connections that
// fail the write are dropped.
func (h *Hub) BroadcastJSON(userId string, v any) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients[userId]))
	for _, c := range h.clients[userId] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.writeJSON(v); err != nil {
			zap.L().Debug("Dropping websocket client", zap.String("user_id", userId), zap.Error(err))
			h.RemoveClient(userId, c.conn)
		}
	}
}

// CloseAll closes every connection
func (h *Hub) CloseAll() {
	h.mu.Lock()
	all := h.clients
	h.clients = make(map[string]map[*websocket.Conn]*client)
	h.mu.Unlock()

	for _, conns := range all {
		for conn := range conns {
			_ = conn.Close()
		}
	}
}
