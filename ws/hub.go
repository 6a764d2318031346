package ws

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/edithfert/fertpro/models"
	"github.com/edithfert/fertpro/pkg/soilsim"
)

// EventPublisher is what services use to reach connected browsers.
type EventPublisher interface {
	// BroadcastToAll sends event to every connection.
	BroadcastToAll(event Event)
	// PublishToSession sends event to every connection of one session
	// (a session can have several tabs open).
	PublishToSession(sessionID string, event Event)
	// ViewChanged tells a session's connections that the view changed and
	// starts or stops their soil streams accordingly.
	ViewChanged(sessionID string, view models.View)
}

// SelectViewFunc applies a view change requested over the socket.
type SelectViewFunc func(sessionID string, view models.View) error

// Hub owns every live connection.
//
// Locking: mu guards clients. A client's send channel is only written while
// holding mu (read) and only closed while holding mu (write), so a send can
// never hit a closed channel.
type Hub struct {
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	seq atomic.Int64

	sim    *soilsim.Simulator
	logger *zap.Logger

	onSelectView SelectViewFunc
	shutdown     atomic.Bool
}

// NewHub creates a Hub whose dashboard streams are driven by sim.
func NewHub(sim *soilsim.Simulator, logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]bool),
		sim:     sim,
		logger:  logger,
	}
}

// OnSelectView registers the callback behind the select_view op. It is set
// once during startup, before any connection is accepted.
func (h *Hub) OnSelectView(fn SelectViewFunc) {
	h.onSelectView = fn
}

// Register adds c to the hub. Connections arriving after Shutdown are
// refused and false is returned.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.shutdown.Load() {
		return false
	}

	if _, ok := h.clients[c.sessionID]; !ok {
		h.clients[c.sessionID] = make(map[*Client]bool)
	}
	h.clients[c.sessionID][c] = true

	h.logger.Debug("client connected",
		zap.String("session", c.sessionID),
		zap.Int("session_connections", len(h.clients[c.sessionID])),
	)
	return true
}

// Unregister removes c, stops its soil stream and closes its send channel.
// Calling it more than once is harmless.
func (h *Hub) Unregister(c *Client) {
	// The stream emits through sendTo, which needs mu; stop it before
	// taking the write lock.
	c.retire()

	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[c.sessionID]
	if !ok || !clients[c] {
		return
	}
	delete(clients, c)
	close(c.send)

	if len(clients) == 0 {
		delete(h.clients, c.sessionID)
	}
	h.logger.Debug("client disconnected",
		zap.String("session", c.sessionID),
		zap.Int("session_connections", len(clients)),
	)
}

// BroadcastToAll sends event to every connection.
func (h *Hub) BroadcastToAll(event Event) {
	data, ok := h.encode(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, clients := range h.clients {
		for c := range clients {
			h.trySend(c, data)
		}
	}
}

// PublishToSession sends event to the connections of sessionID.
func (h *Hub) PublishToSession(sessionID string, event Event) {
	data, ok := h.encode(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[sessionID] {
		h.trySend(c, data)
	}
}

// ViewChanged starts the soil stream of each connection of sessionID when
// view is the dashboard and stops it otherwise, then publishes view_changed.
// Calls for one session must be serialized with view commits; the session
// service makes them under the session lock.
func (h *Hub) ViewChanged(sessionID string, view models.View) {
	for _, c := range h.sessionClients(sessionID) {
		if view == models.ViewDashboard {
			c.startSoilStream()
		} else {
			c.stopSoilStream()
		}
	}

	h.PublishToSession(sessionID, Event{
		Op:   OpViewChanged,
		Data: ViewChangedData{View: view},
	})
}

// ConnectionCount returns the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, clients := range h.clients {
		n += len(clients)
	}
	return n
}

// Shutdown closes every connection and refuses new ones. It returns once all
// soil streams have stopped.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.shutdown.Store(true)
	var all []*Client
	for _, clients := range h.clients {
		for c := range clients {
			all = append(all, c)
			close(c.send)
		}
	}
	h.clients = make(map[string]map[*Client]bool)
	h.mu.Unlock()

	for _, c := range all {
		c.retire()
	}
	h.logger.Info("hub shut down", zap.Int("closed_connections", len(all)))
}

// sendTo encodes event and queues it for one connection.
func (h *Hub) sendTo(c *Client, event Event) {
	data, ok := h.encode(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.clients[c.sessionID][c] {
		h.trySend(c, data)
	}
}

// trySend queues data without blocking. A full buffer means the browser is
// not keeping up; the message is dropped and the next one will carry fresher
// state anyway. Callers hold mu.
func (h *Hub) trySend(c *Client, data []byte) {
	select {
	case c.send <- data:
	default:
		h.logger.Warn("send buffer full, dropping event", zap.String("session", c.sessionID))
	}
}

func (h *Hub) encode(event Event) ([]byte, bool) {
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal event", zap.String("op", event.Op), zap.Error(err))
		return nil, false
	}
	return data, true
}

func (h *Hub) sessionClients(sessionID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*Client, 0, len(h.clients[sessionID]))
	for c := range h.clients[sessionID] {
		out = append(out, c)
	}
	return out
}
