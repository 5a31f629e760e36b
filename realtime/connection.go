package realtime

import (
	"sync"
	"time"

	"github.com/Sean4E/PMHub2/logging"
	"github.com/Sean4E/PMHub2/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBufferSize = 256
)

// Connection is one live socket for one authenticated identity. An identity
// may hold any number of simultaneous connections (browser tabs); each gets
// its own Connection and its own send queue.
type Connection struct {
	ID       string
	Identity models.Identity

	ws        *websocket.Conn
	send      chan ServerEvent
	closeOnce sync.Once
	closed    chan struct{}
}

// NewConnection wraps an upgraded websocket. Tests pass a nil socket and
// read delivered events straight off Events().
func NewConnection(identity models.Identity, ws *websocket.Conn) *Connection {
	return &Connection{
		ID:       uuid.New().String(),
		Identity: identity,
		ws:       ws,
		send:     make(chan ServerEvent, sendBufferSize),
		closed:   make(chan struct{}),
	}
}

// Send enqueues an event without blocking. A consumer too slow to drain its
// queue loses the event rather than stalling the sender; broadcasts are
// best-effort per connection.
func (c *Connection) Send(event ServerEvent) {
	select {
	case <-c.closed:
	case c.send <- event:
	default:
		logging.Logger.Warnf("Event ID: SEND_QUEUE_FULL, Description: Dropping %s event for connection %s (user %s)", event.Event, c.ID, c.Identity.ID.Hex())
	}
}

// Events exposes the outbound queue for the write pump and for tests.
func (c *Connection) Events() <-chan ServerEvent {
	return c.send
}

// Close shuts the connection down exactly once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		if c.ws != nil {
			c.ws.Close()
		}
	})
}

// ReadPump consumes inbound frames and hands them to the dispatcher until
// the socket dies, then runs onClose so the owner can deregister.
func (c *Connection) ReadPump(dispatcher *Dispatcher, onClose func()) {
	defer func() {
		c.Close()
		if onClose != nil {
			onClose()
		}
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var envelope Envelope
		if err := c.ws.ReadJSON(&envelope); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Logger.Warnf("Event ID: CONNECTION_READ_ERROR, Description: Read error on connection %s: %v", c.ID, err)
			}
			return
		}
		dispatcher.Dispatch(c, envelope)
	}
}

// WritePump drains the send queue onto the socket and keeps the transport
// alive with pings.
func (c *Connection) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case event := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			return
		}
	}
}
