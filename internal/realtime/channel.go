// Package realtime maintains the websocket channel that carries
// out-of-band order-status pushes from the backend.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handler receives the raw data payload of one event.
type Handler func(data json.RawMessage)

// envelope is the wire frame: every message names its event and
// carries an opaque data payload.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// Channel is a websocket client with per-event-name subscriptions.
// Handlers are registered on the channel, not the connection, so they
// survive reconnects. At most one handler is active per event name;
// re-subscribing replaces the prior handler.
type Channel struct {
	url string
	log *zap.Logger

	mu       sync.RWMutex
	handlers map[string]Handler
	conn     *websocket.Conn
	closed   bool
	done     chan struct{}
}

// NewChannel constructs a Channel for the given websocket URL.
func NewChannel(url string, log *zap.Logger) *Channel {
	return &Channel{
		url:      url,
		log:      log,
		handlers: make(map[string]Handler),
		done:     make(chan struct{}),
	}
}

// Connect dials the backend and starts the read loop. Reconnection
// after a dropped connection is handled internally with capped
// backoff; connection-level failures are logged, never surfaced to
// subscribers.
func (c *Channel) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

// Close shuts the channel down. No reconnect is attempted afterwards.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

// Subscribe registers the handler for an event name, replacing any
// prior handler so an event is never delivered twice.
func (c *Channel) Subscribe(event string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = h
}

// Unsubscribe removes the handler for an event name.
func (c *Channel) Unsubscribe(event string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, event)
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.log.Warn("socket read failed", zap.Error(err))
			conn.Close()
			c.reconnect()
			return
		}
		c.dispatch(raw)
	}
}

func (c *Channel) dispatch(raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
		c.log.Warn("malformed socket frame dropped", zap.ByteString("frame", raw))
		return
	}

	c.mu.RLock()
	h := c.handlers[env.Event]
	c.mu.RUnlock()

	if h == nil {
		return
	}
	h(env.Data)
}

func (c *Channel) reconnect() {
	backoff := initialBackoff
	for {
		select {
		case <-c.done:
			return
		case <-time.After(backoff):
		}

		conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
		if err != nil {
			c.log.Warn("socket reconnect failed", zap.Error(err), zap.Duration("backoff", backoff))
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			conn.Close()
			return
		}
		c.conn = conn
		c.mu.Unlock()

		c.log.Info("socket reconnected")
		go c.readLoop(conn)
		return
	}
}
