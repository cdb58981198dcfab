package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
	sendBuffer     = 32
)

// Client is one WebSocket connection. userID is empty for unauthenticated
// connections, whose requests are all rejected until they reconnect with a
// token.
type Client struct {
	conn   *websocket.Conn
	userID string
	rooms  map[string]bool

	// mu guards send against the close in dispose and orders room events
	// behind the ack while a request is in flight.
	mu        sync.Mutex
	send      chan []byte
	closed    bool
	deferring bool
	deferred  [][]byte
}

func newClient(conn *websocket.Conn, userID string) *Client {
	return &Client{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		userID: userID,
		rooms:  map[string]bool{},
	}
}

func (c *Client) authenticated() bool { return c.userID != "" }

// enqueue queues a room event for delivery, reporting false when the client
// is gone or its buffer is full. While a request from this connection is
// being handled the event is parked so it cannot overtake the ack.
func (c *Client) enqueue(raw []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	if c.deferring {
		c.deferred = append(c.deferred, raw)
		return true
	}
	return c.trySend(raw)
}

// trySend does a non-blocking send. Callers hold mu.
func (c *Client) trySend(raw []byte) bool {
	select {
	case c.send <- raw:
		return true
	default:
		return false
	}
}

// dispose closes the send channel exactly once. Only the read side calls it,
// and enqueue checks closed under the same lock, so no fan-out can race the
// close.
func (c *Client) dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.deferred = nil
	close(c.send)
}

func (c *Client) closeSlow() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// readPump owns reads. Requests are handled inline so each connection's
// operations stay ordered.
func (c *Client) readPump(h *Handler) {
	defer func() {
		h.hub.leaveAll(c)
		c.dispose()
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Sugar().Debugw("ws read", "err", err)
			}
			return
		}
		c.handleMessage(h, raw)
	}
}

// handleMessage runs one request. Room events that fan out while the request
// is in flight are held back and released after the ack, so the submitter
// always sees the ack before the matching push.
func (c *Client) handleMessage(h *Handler, raw []byte) {
	c.beginDefer()
	if resp, send := h.handle(c, raw); send {
		c.write(resp)
	}
	c.flushDeferred()
}

func (c *Client) beginDefer() {
	c.mu.Lock()
	c.deferring = true
	c.mu.Unlock()
}

// flushDeferred releases events parked during a request, in arrival order.
func (c *Client) flushDeferred() {
	c.mu.Lock()
	c.deferring = false
	pending := c.deferred
	c.deferred = nil
	dropped := false
	if !c.closed {
		for _, raw := range pending {
			if !c.trySend(raw) {
				dropped = true
				break
			}
		}
	}
	c.mu.Unlock()
	if dropped {
		c.closeSlow()
	}
}

// write queues an ack frame, bypassing deferral.
func (c *Client) write(v interface{}) {
	raw, err := marshalFrame(v)
	if err != nil {
		return
	}
	c.mu.Lock()
	sent := !c.closed && c.trySend(raw)
	c.mu.Unlock()
	if !sent {
		c.closeSlow()
	}
}

// writePump owns writes, including keepalive pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case raw, open := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !open {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
