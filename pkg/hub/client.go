package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	// writeWait is how long to wait for a write to complete
	writeWait = 10 * time.Second

	// pongWait is how long to wait for a pong response
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize caps inbound messages. Dashboard clients only send
	// control frames.
	maxMessageSize = 4 * 1024

	// sendBuffer is the per-client queue length
	sendBuffer = 256
)

// Client represents a single dashboard websocket connection
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan Message
	filter string // Camera id; empty receives every topic
}

// NewClient creates a new client and registers it with the hub. The client
// only receives messages whose topic matches filter, plus untopiced ones.
// It returns nil if the hub has stopped.
func NewClient(hub *Hub, conn *websocket.Conn, filter string) *Client {
	client := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan Message, sendBuffer),
		filter: filter,
	}
	select {
	case hub.register <- client:
		return client
	case <-hub.done:
		return nil
	}
}

// Serve registers a dashboard connection with h and blocks until it closes.
// The optional "camera" query parameter scopes the connection to one
// camera. This should be called in the websocket handler.
func Serve(h *Hub, conn *websocket.Conn) {
	client := NewClient(h, conn, conn.Query("camera"))
	if client == nil {
		conn.Close()
		return
	}
	client.Run()
}

// wants reports whether the client subscribed to msg's topic
func (c *Client) wants(msg Message) bool {
	return c.filter == "" || msg.Topic == "" || msg.Topic == c.filter
}

// Run starts the client's read and write pumps and blocks until the
// connection closes
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump drains the connection so pongs are processed and a disconnect
// is noticed
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

// writePump is the only goroutine that writes to the connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel - send close frame
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			wsType := websocket.TextMessage
			if message.Type == BinaryMessage {
				wsType = websocket.BinaryMessage
			}
			if err := c.conn.WriteMessage(wsType, message.Data); err != nil {
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
