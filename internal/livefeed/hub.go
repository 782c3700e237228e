package livefeed

import (
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Conn is the subset of *websocket.Conn the hub needs. Narrowed so tests can
// substitute stub connections.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Client is one live-feed subscriber. Writes are serialized per connection;
// gorilla conns do not allow concurrent writers.
type Client struct {
	hub     *Hub
	conn    Conn
	writeMu sync.Mutex
	closed  atomic.Bool
}

// Open reports whether the connection is still considered writable.
func (c *Client) Open() bool {
	return !c.closed.Load()
}

func (c *Client) write(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Shutdown closes the connection and removes the client from the hub.
// Safe to call more than once.
func (c *Client) Shutdown() {
	if c.closed.CompareAndSwap(false, true) {
		_ = c.conn.Close()
		c.hub.remove(c)
	}
}

// ReadLoop blocks consuming inbound frames until the peer goes away. There
// is no client->server protocol; reading only serves disconnect detection
// and keepalive control frames.
func (c *Client) ReadLoop() {
	defer c.Shutdown()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Hub tracks the connected live-feed clients and fans payloads out to them.
// Delivery is fire-and-forget: a client that is not connected at broadcast
// time misses the message for good.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	if logger == nil {
		logger = logrus.New()
	}
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Add registers a connection and returns its client handle. The caller owns
// running ReadLoop.
func (h *Hub) Add(conn Conn) *Client {
	c := &Client{hub: h, conn: conn}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.logger.WithField("clients", n).Info("live feed client connected")
	return c
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	_, present := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	if present {
		h.logger.WithField("clients", n).Info("live feed client disconnected")
	}
}

// Len returns the number of registered clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends payload to every open client. A failed or non-open client
// never aborts delivery to the rest; failing clients are shut down.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.RLock()
	snapshot := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.RUnlock()

	for _, c := range snapshot {
		if !c.Open() {
			continue
		}
		if err := c.write(payload); err != nil {
			h.logger.WithError(err).Debug("dropping live feed client after failed write")
			c.Shutdown()
		}
	}
}
