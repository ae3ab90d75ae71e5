package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/classpulse/backend/internal/models"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Hub maintains the set of live WebSocket connections and implements the
// live.Dispatcher contract: broadcast to all, to one role, or to a single
// connection. Sends are fire-and-forget; a client whose buffer is full is
// skipped rather than blocking the rest.
type Hub struct {
	clients map[string]*Client
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// Register adds a client connection.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client connected",
		zap.String("conn_id", c.ID),
		zap.Int("total", total))
}

// Unregister removes a client and closes its send channel. Safe to call
// more than once for the same client.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c.ID]
	if ok {
		delete(h.clients, c.ID)
		close(c.send)
	}
	h.mu.Unlock()
	if ok {
		h.logger.Debug("client disconnected", zap.String("conn_id", c.ID))
	}
}

// SetRole records the role a connection joined as, so role-targeted
// broadcasts can find it.
func (h *Hub) SetRole(connID string, role models.Role) {
	h.mu.Lock()
	if c, ok := h.clients[connID]; ok {
		c.role = role
	}
	h.mu.Unlock()
}

// ToAll sends an event to every connected client.
func (h *Hub) ToAll(event string, data interface{}) {
	env, err := envelope(event, data)
	if err != nil {
		h.logger.Warn("encode event", zap.String("event", event), zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.trySend(env)
	}
}

// ToRole sends an event to every connected client that joined as role.
func (h *Hub) ToRole(role models.Role, event string, data interface{}) {
	env, err := envelope(event, data)
	if err != nil {
		h.logger.Warn("encode event", zap.String("event", event), zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.role == role {
			c.trySend(env)
		}
	}
}

// ToConnection sends an event to one client; unknown ids are ignored.
func (h *Hub) ToConnection(connID, event string, data interface{}) {
	env, err := envelope(event, data)
	if err != nil {
		h.logger.Warn("encode event", zap.String("event", event), zap.Error(err))
		return
	}
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if ok {
		c.trySend(env)
	}
}

// Drop disconnects one client. Events already queued on its send channel
// are flushed before the connection closes.
func (h *Hub) Drop(connID string) {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	h.Unregister(c)
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func envelope(event string, data interface{}) (Envelope, error) {
	if data == nil {
		return Envelope{Event: event}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: raw}, nil
}
