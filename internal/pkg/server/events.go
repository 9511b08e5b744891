package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/anicoll/rako-integration/internal/pkg/model"
)

// sendBufferSize is the per-client outbound message buffer. A client that
// falls this far behind is dropped rather than allowed to stall the
// broadcast path.
const sendBufferSize = 64

const (
	eventState        = "state"
	eventRegistered   = "registered"
	eventDeregistered = "deregistered"
)

type event struct {
	Type      string             `json:"type"`
	Timestamp time.Time          `json:"timestamp"`
	UniqueID  string             `json:"unique_id"`
	State     *model.EntityState `json:"state,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// Hub broadcasts entity lifecycle and state events to websocket clients.
// It is registered as a publisher sink so every published state reaches
// connected clients.
type Hub struct {
	logger *zap.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub() *Hub {
	return &Hub{
		logger:  zap.L(),
		clients: make(map[*client]struct{}),
	}
}

// Serve upgrades the request and streams events until the client
// disconnects.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBufferSize)}
	h.register(c)

	go h.writeLoop(c)
	h.readLoop(c)
}

// Write implements the publisher sink for live state broadcasts.
func (h *Hub) Write(_ context.Context, state model.EntityState) error {
	h.broadcast(event{
		Type:      eventState,
		Timestamp: time.Now(),
		UniqueID:  state.UniqueID,
		State:     &state,
	})
	return nil
}

func (h *Hub) RegisterEntity(state model.EntityState) error {
	h.broadcast(event{
		Type:      eventRegistered,
		Timestamp: time.Now(),
		UniqueID:  state.UniqueID,
		State:     &state,
	})
	return nil
}

func (h *Hub) DeregisterEntity(uniqueID string) error {
	h.broadcast(event{
		Type:      eventDeregistered,
		Timestamp: time.Now(),
		UniqueID:  uniqueID,
	})
	return nil
}

// Close disconnects every client.
func (h *Hub) Close() error {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		close(c.send)
	}
	return nil
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", zap.Int("clients", count))
}

// unregister removes a client. Only the goroutine that actually removes
// it from the map closes the send channel, so concurrent disconnect paths
// cannot double-close.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, existed := h.clients[c]
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()

	if existed {
		close(c.send)
	}
	h.logger.Debug("websocket client disconnected", zap.Int("clients", count))
}

func (h *Hub) broadcast(ev event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("failed to encode event", zap.Error(err))
		return
	}

	h.mu.RLock()
	slow := make([]*client, 0)
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.unregister(c)
	}
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readLoop drains inbound frames so pings and close handshakes are
// processed, then tears the client down on error.
func (h *Hub) readLoop(c *client) {
	defer h.unregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
