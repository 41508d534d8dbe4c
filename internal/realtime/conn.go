// Package realtime implements the WebSocket connection gateway embedded in
// the wiki server: schema-based path routing of upgrade requests, per-room
// broadcaster groups, and the room chat handler built on top of them.
package realtime

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = 54 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Outbound message buffer size per connection.
	sendBuffer = 256
)

var (
	// ErrConnClosed is returned by SendText once the connection is closed.
	ErrConnClosed = errors.New("connection closed")

	// ErrSendBufferFull is returned by SendText when the peer is too slow to
	// drain its outbound buffer. The message is dropped.
	ErrSendBufferFull = errors.New("send buffer full")
)

// Conn wraps one established WebSocket connection. Outbound text frames are
// queued on a buffered channel and written by a single write pump, so sends
// from one goroutine are delivered in order. Inbound text frames and the
// connection teardown are delivered through callbacks registered with OnText
// and OnClose.
type Conn struct {
	id string
	ws *websocket.Conn

	send chan []byte
	done chan struct{}

	closeOnce sync.Once

	mu      sync.Mutex
	open    bool
	onText  func(text string)
	onClose func()
}

func newConn(ws *websocket.Conn) *Conn {
	return &Conn{
		id:   uuid.NewString(),
		ws:   ws,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
		open: true,
	}
}

// ID returns the opaque per-socket identifier used in logs.
func (c *Conn) ID() string {
	return c.id
}

// Open reports whether the connection is still usable.
func (c *Conn) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// OnText registers the callback invoked for each inbound text frame.
func (c *Conn) OnText(fn func(text string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onText = fn
}

// OnClose registers the callback invoked exactly once when the connection
// closes, whether by the peer, a network error, or an explicit close.
func (c *Conn) OnClose(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onClose = fn
}

// SendText queues one text frame for delivery to the peer.
func (c *Conn) SendText(text string) error {
	c.mu.Lock()
	open := c.open
	c.mu.Unlock()
	if !open {
		return ErrConnClosed
	}

	select {
	case c.send <- []byte(text):
		return nil
	case <-c.done:
		return ErrConnClosed
	default:
		return ErrSendBufferFull
	}
}

// Close tears down the connection. Safe to call multiple times.
func (c *Conn) Close() {
	c.close()
}

// RejectPolicyViolation sends reason to the peer as a text frame, then closes
// the socket with close code 1008 (policy violation). It writes to the socket
// directly and is intended for rejecting a connection before its pumps have
// taken over the socket.
func (c *Conn) RejectPolicyViolation(reason string) {
	c.mu.Lock()
	open := c.open
	c.mu.Unlock()
	if !open {
		return
	}

	deadline := time.Now().Add(writeWait)
	_ = c.ws.SetWriteDeadline(deadline)
	_ = c.ws.WriteMessage(websocket.TextMessage, []byte(reason))
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), deadline)
	c.close()
}

// close marks the connection closed, detaches both callbacks, closes the
// underlying socket and fires the close callback. The callbacks are detached
// before the callback runs so a connection cannot leak handler state.
func (c *Conn) close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.open = false
		onClose := c.onClose
		c.onText = nil
		c.onClose = nil
		c.mu.Unlock()

		close(c.done)
		c.ws.Close()

		if onClose != nil {
			onClose()
		}
	})
}

// readPump reads frames from the peer until the socket closes, dispatching
// text frames to the OnText callback. It drives the pong side of the
// heartbeat: any frame (including pongs) extends the read deadline.
func (c *Conn) readPump() {
	defer c.close()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseAbnormalClosure,
				websocket.ClosePolicyViolation) {
				log.Printf("WebSocket read error on %s: %v", c.id, err)
			}
			return
		}

		if messageType != websocket.TextMessage {
			continue
		}

		c.mu.Lock()
		fn := c.onText
		c.mu.Unlock()
		if fn != nil {
			fn(string(message))
		}
	}
}

// writePump writes queued frames to the peer and pings it on a ticker.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			// Flush anything queued before the close was requested.
			for {
				select {
				case message := <-c.send:
					_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
					if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
						return
					}
				default:
					_ = c.ws.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
						time.Now().Add(writeWait))
					return
				}
			}
		}
	}
}
