package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"aimigo/internal/core"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub pushes session snapshots to connected widgets.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
	logger  core.Logger
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// NewHub creates a hub with no connections.
func NewHub(logger core.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*client]struct{}),
		logger:  logger,
	}
}

// Serve upgrades the request and streams snapshots of handle, starting with
// the one current returns after the connection is registered.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, handle string, current func() core.Snapshot) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "handle", handle, "error", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
	h.register(handle, c)
	if data, err := json.Marshal(newSessionResponse(handle, current())); err == nil {
		select {
		case c.send <- data:
		default:
		}
	}

	go h.writePump(handle, c)
	go h.readPump(handle, c)
}

// Publish sends a snapshot to every connection of handle. Slow connections
// miss intermediate snapshots; each snapshot carries the full state.
func (h *Hub) Publish(handle string, snap core.Snapshot) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns := h.clients[handle]
	if len(conns) == 0 {
		return
	}

	data, err := json.Marshal(newSessionResponse(handle, snap))
	if err != nil {
		h.logger.Error("marshal snapshot", "handle", handle, "error", err)
		return
	}

	for c := range conns {
		select {
		case c.send <- data:
		default:
			h.logger.Debug("websocket client lagging, snapshot dropped", "handle", handle, "version", snap.Version)
		}
	}
}

// CloseSession disconnects every connection of handle.
func (h *Hub) CloseSession(handle string) {
	h.mu.Lock()
	conns := h.clients[handle]
	delete(h.clients, handle)
	h.mu.Unlock()

	for c := range conns {
		close(c.done)
	}
}

// Connections returns the number of connections of handle.
func (h *Hub) Connections(handle string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[handle])
}

func (h *Hub) register(handle string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[handle] == nil {
		h.clients[handle] = make(map[*client]struct{})
	}
	h.clients[handle][c] = struct{}{}
	h.logger.Debug("websocket connected", "handle", handle, "connections", len(h.clients[handle]))
}

// unregister removes c once; it reports whether c was still registered.
func (h *Hub) unregister(handle string, c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.clients[handle]
	if _, ok := conns[c]; !ok {
		return false
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.clients, handle)
	}
	close(c.done)
	h.logger.Debug("websocket disconnected", "handle", handle)
	return true
}

func (h *Hub) writePump(handle string, c *client) {
	defer c.conn.Close()

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.unregister(handle, c)
				return
			}
		case <-c.done:
			h.flush(c)
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
			return
		}
	}
}

// flush writes snapshots still queued when the session closes.
func (h *Hub) flush(c *client) {
	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			return
		}
	}
}

// readPump drains client frames so close frames are processed.
func (h *Hub) readPump(handle string, c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.unregister(handle, c)
			return
		}
	}
}
