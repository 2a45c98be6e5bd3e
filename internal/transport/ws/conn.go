package ws

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/cwrk-planet/relay-service/internal/domain"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var ErrSendBufferFull = errors.New("send buffer full")

// wsConn is one client connection. Outbound frames go through a buffered queue
// drained by writePump, so Send never blocks the caller.
type wsConn struct {
	id   string
	conn *websocket.Conn
	addr string

	mu       sync.Mutex
	send     chan []byte
	closed   bool
	username string

	done chan struct{}
}

func newWsConn(c *websocket.Conn, addr string, buffer int) *wsConn {
	if buffer <= 0 {
		buffer = 256
	}
	return &wsConn{
		id:   uuid.NewString(),
		conn: c,
		addr: addr,
		send: make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Send queues a frame. It fails fast when the connection is closed or its
// queue is full.
func (c *wsConn) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.ErrConnClosed
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (c *wsConn) sendJSON(v any) error {
	return c.Send(encode(v))
}

// markClosed flips the connection to closed and stops the write pump. It
// returns false if the connection was already closed.
func (c *wsConn) markClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	c.closed = true
	close(c.send)
	return true
}

func (c *wsConn) setUsername(name string) {
	if name == "" {
		return
	}
	c.mu.Lock()
	c.username = name
	c.mu.Unlock()
}

func (c *wsConn) Username() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.username
}

// writePump drains the send queue until it is closed or a write fails, and
// pings the peer every pingEvery.
func (c *wsConn) writePump(pingEvery, writeWait time.Duration) {
	ticker := time.NewTicker(pingEvery)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		close(c.done)
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				if !isExpectedCloseError(err) {
					logConnError("ws write failed", c, err)
				}
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// isExpectedCloseError reports errors that only mean the peer is gone.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, websocket.ErrCloseSent) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "use of closed network connection") ||
		strings.Contains(s, "broken pipe") ||
		strings.Contains(s, "connection reset by peer")
}
