package hub

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Dashboard viewers never send data frames. Reading only surfaces pongs
// and the close handshake.
const (
	writeTimeout = 5 * time.Second
	idleTimeout  = 30 * time.Second
	pingInterval = idleTimeout / 3
	maxInbound   = 1024

	// sendQueue holds about a second of status and gaze updates at the
	// default broadcast interval before a viewer counts as slow.
	sendQueue = 64
)

// Client is one dashboard viewer attached to a Hub.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan Message
	remote string
}

// NewClient attaches conn to hub. If the hub has stopped, the client's
// queue is closed at once and Run returns after the close frame.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	c := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan Message, sendQueue),
	}
	if addr := conn.RemoteAddr(); addr != nil {
		c.remote = addr.String()
	}

	select {
	case hub.register <- c:
	case <-hub.quit:
		close(c.send)
	}
	return c
}

// Remote returns the viewer's address.
func (c *Client) Remote() string {
	return c.remote
}

// Run serves the viewer until either side closes the connection.
func (c *Client) Run() {
	go c.deliver()
	c.watch()
}

// watch detaches the viewer once the connection goes quiet for longer
// than idleTimeout or fails.
func (c *Client) watch() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.quit:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxInbound)
	c.conn.SetReadDeadline(time.Now().Add(idleTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(idleTimeout))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// deliver is the only writer on the connection.
func (c *Client) deliver() {
	ping := time.NewTicker(pingInterval)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, c.hub.name+" stream closed"))
				return
			}
			if err := c.conn.WriteMessage(msg.frameType(), msg.Data); err != nil {
				c.hub.logger.Debug("viewer write failed", "remote", c.remote, "error", err)
				return
			}

		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Handler upgrades dashboard requests and attaches each viewer to h.
func (h *Hub) Handler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		NewClient(h, conn).Run()
	})
}
