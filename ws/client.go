package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/edithfert/fertpro/models"
	"github.com/edithfert/fertpro/pkg"
)

const (
	// writeWait bounds a single write to the socket.
	writeWait = 10 * time.Second

	// pongWait is how long the server waits for any client message. The page
	// sends a heartbeat every 30s, so three missed beats drop the connection.
	pongWait = 90 * time.Second

	maxMessageSize = 4096
	sendBufferSize = 256
)

// Client is one WebSocket connection.
//
// ReadPump and WritePump each run in their own goroutine because gorilla
// connections allow one concurrent reader and one concurrent writer.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	sessionID string
	send      chan []byte
	mu        sync.Mutex // serializes conn writes

	streamMu     sync.Mutex
	streamCancel context.CancelFunc
	streamDone   chan struct{}
	retired      bool
}

func newClient(hub *Hub, conn *websocket.Conn, sessionID string) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		sessionID: sessionID,
		send:      make(chan []byte, sendBufferSize),
	}
}

// ReadPump reads client ops until the connection fails, then unregisters.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.hub.logger.Warn("failed to set read deadline", zap.String("session", c.sessionID), zap.Error(err))
		return
	}

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Info("unexpected close", zap.String("session", c.sessionID), zap.Error(err))
			}
			return
		}

		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			c.hub.logger.Debug("invalid message", zap.String("session", c.sessionID), zap.Error(err))
			continue
		}

		c.handleEvent(event)
	}
}

func (c *Client) handleEvent(event Event) {
	// Any message proves the browser is alive.
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}

	switch event.Op {
	case OpHeartbeat:
		c.hub.sendTo(c, Event{Op: OpHeartbeatAck})

	case OpSelectView:
		c.handleSelectView(event)

	default:
		c.hub.logger.Debug("unknown op", zap.String("session", c.sessionID), zap.String("op", event.Op))
	}
}

// handleSelectView forwards a view change to the session service through
// the hub callback. The callback calls back into Hub.ViewChanged, which
// starts or stops this client's stream.
func (c *Client) handleSelectView(event Event) {
	// Data arrives as map[string]any; round-trip through JSON to get a
	// typed payload.
	dataBytes, err := json.Marshal(event.Data)
	if err != nil {
		return
	}

	var data SelectViewData
	if err := json.Unmarshal(dataBytes, &data); err != nil {
		return
	}

	view, err := models.ParseView(data.View)
	if err != nil {
		c.hub.sendTo(c, Event{Op: OpError, Data: ErrorData{Op: OpSelectView, Key: models.ErrUnknownView.Error()}})
		return
	}

	if c.hub.onSelectView == nil {
		return
	}
	if err := c.hub.onSelectView(c.sessionID, view); err != nil {
		key, ok := pkg.NoticeKey(err)
		if !ok {
			key = "error.internal"
		}
		c.hub.logger.Debug("select_view rejected", zap.String("session", c.sessionID), zap.Error(err))
		c.hub.sendTo(c, Event{Op: OpError, Data: ErrorData{Op: OpSelectView, Key: key}})
	}
}

// WritePump drains send onto the socket. It exits when the hub closes send
// or a write fails.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.writeMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.writeMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

// startSoilStream begins a fresh simulation for this connection unless one
// is already running or the client is retired.
func (c *Client) startSoilStream() {
	c.streamMu.Lock()
	defer c.streamMu.Unlock()

	if c.retired || c.streamCancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.streamCancel = cancel
	c.streamDone = done

	go func() {
		defer close(done)
		c.hub.sim.Run(ctx, func(r models.SoilReading) {
			c.hub.sendTo(c, Event{Op: OpSoilUpdate, Data: r})
		})
	}()
}

// stopSoilStream cancels the running simulation, if any, and waits for it
// to exit. The stream may be started again later.
func (c *Client) stopSoilStream() {
	c.streamMu.Lock()
	cancel, done := c.streamCancel, c.streamDone
	c.streamCancel, c.streamDone = nil, nil
	c.streamMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// retire stops the stream for good.
func (c *Client) retire() {
	c.streamMu.Lock()
	c.retired = true
	c.streamMu.Unlock()

	c.stopSoilStream()
}

// streaming reports whether a soil stream is running.
func (c *Client) streaming() bool {
	c.streamMu.Lock()
	defer c.streamMu.Unlock()
	return c.streamCancel != nil
}
