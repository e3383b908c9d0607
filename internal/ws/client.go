// Package ws holds the WebSocket connection registry and client protocol.
package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

const sendBufferSize = 256

// Client is one live WebSocket connection. Writes go through a buffered
// channel so a slow peer never blocks fan-out; a full buffer closes the
// client instead.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func newClient(id string, conn *websocket.Conn) *Client {
	return &Client{
		id:   id,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

func (c *Client) ID() string { return c.id }

// Send queues a message for delivery. Messages to a closed client are
// dropped silently.
func (c *Client) Send(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	select {
	case c.send <- data:
	default:
		// Buffer full: the peer is not keeping up, drop the connection.
		c.closeLocked()
	}
}

// Close marks the client closed and releases its writer.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// SendChan exposes the outbound queue to the write pump and to tests.
func (c *Client) SendChan() <-chan []byte {
	return c.send
}
