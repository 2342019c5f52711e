package bus

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 256
)

// Conn wraps one client's websocket connection with a buffered write pump
// so a single slow socket never blocks the dispatcher goroutine (spec §4.1,
// grounded on the teacher's per-connection SafeWriteJSON pattern in
// internal/player.go, generalized into an explicit pump+channel instead of
// a per-write mutex).
type Conn struct {
	ID        string
	socket    *websocket.Conn
	send      chan []byte
	log       *logrus.Entry
	closeOnce sync.Once
	done      chan struct{}
}

// NewConn wraps a websocket connection and starts its write pump.
func NewConn(id string, socket *websocket.Conn, log *logrus.Logger) *Conn {
	c := &Conn{
		ID:     id,
		socket: socket,
		send:   make(chan []byte, sendBuffer),
		log:    log.WithField("conn", id),
		done:   make(chan struct{}),
	}
	go c.writePump()
	return c
}

// Enqueue buffers a pre-marshaled payload for delivery. It never blocks: if
// the connection's buffer is full the message is dropped and logged, never
// reordered relative to messages that do get through.
func (c *Conn) Enqueue(payload []byte) {
	select {
	case c.send <- payload:
	case <-c.done:
	default:
		c.log.Warn("send buffer full, dropping message")
	}
}

func (c *Conn) writePump() {
	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.log.WithError(err).Debug("write failed, closing connection")
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// Close shuts down the write pump and underlying socket. Safe to call more
// than once.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.socket.Close()
	})
}

// ReadMessage blocks until the next inbound frame arrives; the dispatcher's
// reader goroutine uses this directly since read order is per-connection
// and does not need buffering.
func (c *Conn) ReadMessage() (int, []byte, error) {
	return c.socket.ReadMessage()
}
