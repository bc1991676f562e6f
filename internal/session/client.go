package session

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client is one participant's live channel into a room. Outbound frames are
// queued on a bounded channel drained by WritePump so a slow consumer never
// stalls the room's serialization point.
type Client struct {
	Conn        *websocket.Conn
	DisplayName string

	send    chan []byte
	limiter *rate.Limiter

	mu     sync.Mutex
	hook   func(v any)
	closed bool
}

// NewClient wraps a websocket connection. messageRate limits inbound frames
// per second; zero or negative disables limiting.
func NewClient(conn *websocket.Conn, displayName string, sendBuffer int, messageRate float64) *Client {
	c := &Client{
		Conn:        conn,
		DisplayName: displayName,
		send:        make(chan []byte, sendBuffer),
	}
	if messageRate > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(messageRate), int(messageRate)*2)
	}
	return c
}

// SetSendHook replaces the default queued WebSocket sender (used in tests).
func (c *Client) SetSendHook(fn func(v any)) {
	c.mu.Lock()
	c.hook = fn
	c.mu.Unlock()
}

// Allow reports whether another inbound frame fits the client's rate budget.
func (c *Client) Allow() bool {
	if c.limiter == nil {
		return true
	}
	return c.limiter.Allow()
}

// Send marshals v and queues it for delivery. A full queue drops the frame
// for this client only; the caller keeps going. Safe to call concurrently
// with Close: frames sent to a closed client are discarded.
func (c *Client) Send(v any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hook != nil {
		c.hook(v)
		return true
	}
	if c.closed {
		return false
	}

	data, err := json.Marshal(v)
	if err != nil {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		// Client's send buffer full — drop message
		return false
	}
}

// WritePump drains the outbound queue onto the websocket and keeps the
// connection alive with pings. Runs on its own goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close shuts the outbound queue. Safe to call multiple times.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
