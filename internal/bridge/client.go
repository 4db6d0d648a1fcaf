package bridge

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gopi-c-k/gopzCollab-sub000/pkg/logger"
)

// Client is one websocket connection bound to a session channel.
type Client struct {
	hub       *Hub
	sessionID string
	userID    string
	conn      *websocket.Conn
	send      chan []byte
	closeOnce chan struct{}
}

func newClient(h *Hub, sessionID, userID string, conn *websocket.Conn) *Client {
	return &Client{
		hub:       h,
		sessionID: sessionID,
		userID:    userID,
		conn:      conn,
		send:      make(chan []byte, h.cfg.SendBuffer),
		closeOnce: make(chan struct{}),
	}
}

// enqueue hands raw bytes to the write pump. A full buffer means the
// consumer is not keeping up; the connection is dropped so the room is
// never blocked on one peer.
func (c *Client) enqueue(raw []byte) {
	select {
	case c.send <- raw:
	default:
		logger.Warnf("session %s: dropping slow consumer %s", c.sessionID, c.userID)
		c.close()
	}
}

func (c *Client) sendFrame(f Frame) {
	raw, err := json.Marshal(f)
	if err != nil {
		return
	}
	c.enqueue(raw)
}

func (c *Client) close() {
	select {
	case <-c.closeOnce:
	default:
		close(c.closeOnce)
		_ = c.conn.Close()
	}
}

// readPump reads frames until the connection dies, then leaves the room.
// Leaving is what may trigger the channel's checkpoint-and-end sequence.
func (c *Client) readPump() {
	defer func() {
		c.close()
		c.hub.Leave(c)
	}()

	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongTimeout))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debugf("session %s: read from %s: %v", c.sessionID, c.userID, err)
			}
			return
		}
		var f Frame
		if err := json.Unmarshal(raw, &f); err != nil {
			logger.Warnf("session %s: dropping malformed frame from %s: %v", c.sessionID, c.userID, err)
			continue
		}
		c.hub.handleFrame(c, f)
	}
}

// writePump drains the send buffer and keeps the connection alive with
// pings inside the peer's pong deadline.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case raw, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closeOnce:
			return
		}
	}
}
