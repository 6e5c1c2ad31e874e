package hub

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chatService/internal/errs"
)

const (
	writeWait      = 10 * time.Second
	pingPeriod     = 30 * time.Second
	sendBufferSize = 64
)

// Conn is the transport side of a client connection. *websocket.Conn
// satisfies it; tests substitute a capture fake.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one live connection's membership handle. Outbound frames are
// enqueued on a buffered channel and drained by a single write loop, so
// delivery order per client matches enqueue order and a broadcast never
// blocks on a slow socket.
type Client struct {
	ID     string
	UserID string

	conn   Conn
	send   chan []byte
	closed chan struct{}
	once   sync.Once
}

func NewClient(userID string, conn Conn) *Client {
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		closed: make(chan struct{}),
	}
}

// Start launches the write loop. Call exactly once per client.
func (c *Client) Start() {
	go c.writeLoop()
}

// Send enqueues payload for delivery. A client that cannot keep up has its
// connection closed so backpressure stays bounded.
func (c *Client) Send(payload []byte) error {
	select {
	case <-c.closed:
		return errs.Error("client closed")
	case c.send <- payload:
		return nil
	default:
		c.Close()
		return errs.Error("client send buffer full")
	}
}

// Close tears the connection down. Safe to call from both the read and the
// write side concurrently, the transition happens exactly once.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.closed)
		_ = c.conn.Close()
	})
}

// Done is closed once the client has been torn down.
func (c *Client) Done() <-chan struct{} {
	return c.closed
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.closed:
			return
		case payload := <-c.send:
			if err := c.writeMessage(websocket.TextMessage, payload); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			if err := c.writeMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

func (c *Client) writeMessage(messageType int, payload []byte) error {
	if ws, ok := c.conn.(*websocket.Conn); ok {
		_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	}
	return c.conn.WriteMessage(messageType, payload)
}
