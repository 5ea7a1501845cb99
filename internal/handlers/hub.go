// internal/handlers/hub.go
package handlers

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/show/internal/game"
	"github.com/sirupsen/logrus"
)

// sendBufferSize is the per-client outbound queue length.
const sendBufferSize = 64

// Client is one websocket connection. Its ID doubles as the player id once the
// connection creates or joins a room.
type Client struct {
	ID   uuid.UUID
	Send chan []byte

	mu     sync.Mutex
	roomID string
	done   chan struct{}
	dead   bool
}

// NewClient returns a client with a fresh id and an outbound queue of size buf.
func NewClient(buf int) *Client {
	if buf < 1 {
		buf = sendBufferSize
	}
	return &Client{ID: uuid.New(), Send: make(chan []byte, buf), done: make(chan struct{})}
}

// RoomID returns the room the client currently sits in, or "".
func (c *Client) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

func (c *Client) setRoom(roomID string) {
	c.mu.Lock()
	c.roomID = roomID
	c.mu.Unlock()
}

// Done is closed once the client has been evicted for falling behind. The
// connection handler then tears the socket down and leaves the room.
func (c *Client) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == nil {
		c.done = make(chan struct{})
	}
	return c.done
}

// Evicted reports whether the client has been cut off.
func (c *Client) Evicted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dead
}

func (c *Client) evict() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dead {
		return
	}
	c.dead = true
	if c.done == nil {
		c.done = make(chan struct{})
	}
	close(c.done)
}

// enqueue never blocks. A full queue means the client missed a message it
// cannot recover, so it is evicted instead of being left with stale state.
func (c *Client) enqueue(data []byte) bool {
	if c.Evicted() {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		c.evict()
		return false
	}
}

// Hub maps player ids to live connections. Its methods are the room broadcast
// callbacks, so they run under a room lock and must never block. Slow clients
// are dropped from the hub and disconnected.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*Client
	logger  logrus.FieldLogger
}

func NewHub(logger logrus.FieldLogger) *Hub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Hub{clients: make(map[uuid.UUID]*Client), logger: logger}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
}

// Unregister forgets c if it is still the registered connection for its id.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if h.clients[c.ID] == c {
		delete(h.clients, c.ID)
	}
	h.mu.Unlock()
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast delivers ev to every listed player that is still connected.
func (h *Hub) Broadcast(recipients []uuid.UUID, ev game.GameEvent) {
	data := game.EncodeEvent(ev)
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, id := range recipients {
		h.deliverLocked(id, ev.Type, data)
	}
}

// SendToPlayer delivers ev to a single player.
func (h *Hub) SendToPlayer(playerID uuid.UUID, ev game.GameEvent) {
	data := game.EncodeEvent(ev)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deliverLocked(playerID, ev.Type, data)
}

func (h *Hub) deliverLocked(playerID uuid.UUID, typ game.GameEventType, data []byte) {
	c, ok := h.clients[playerID]
	if !ok {
		return
	}
	if !c.enqueue(data) {
		h.logger.WithField("player", playerID).Warnf("send queue full on %s, evicting client", typ)
		delete(h.clients, playerID)
	}
}
