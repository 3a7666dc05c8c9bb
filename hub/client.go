package hub

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Outbound packets queued per connection before the hub considers the
	// client too slow and disconnects it.
	sendBufferSize = 32
)

// Client is one websocket connection and the session bound to it.
type Client struct {
	session Session
	conn    *websocket.Conn
	hub     *Hub
	send    chan *OutPacket
	logger  *slog.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, session Session, logger *slog.Logger) *Client {
	return &Client{
		session: session,
		conn:    conn,
		hub:     hub,
		send:    make(chan *OutPacket, sendBufferSize),
		logger:  logger,
	}
}

func (c *Client) ID() string {
	return c.session.ConnID
}

func (c *Client) readPump() {
	defer func() {
		c.hub.requestDisconnect(c)
		c.conn.Close()
		c.logger.Debug("exited read pump")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		mt, r, err := c.conn.NextReader()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug(fmt.Sprintf("expected close: %v", err))
				return
			}
			if websocket.IsUnexpectedCloseError(err) {
				c.logger.Error(fmt.Sprintf("unexpected close: %v", err))
				return
			}
			c.logger.Error(fmt.Sprintf("NextReader: %v", err))
			return
		}

		packet, err := decodePacket(mt, r)
		if err != nil {
			c.logger.Error(fmt.Sprintf("decodePacket: %v", err))
			continue
		}

		c.hub.receive(NewRequest(c.hub.baseCtx, packet.Type, packet.Payload, c.session))
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.logger.Debug("exited write pump")
	}()

	for {
		select {
		case packet, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// the hub has closed the connection
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := encodePacket(c.conn.NextWriter, packet); err != nil {
				c.logger.Error(fmt.Sprintf("encodePacket: %v", err))
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Error(fmt.Sprintf("WritePing: %v", err))
				return
			}
		}
	}
}
