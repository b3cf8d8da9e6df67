package ws

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"forumhub/internal/user"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// Private messages run up to 5000 chars; leave headroom for the
	// envelope and multi-byte characters.
	maxMessageSize = 32 * 1024
)

// Client is one live authenticated connection. User carries the identity and
// permission snapshot captured at handshake; it is not refreshed while the
// connection lives.
type Client struct {
	ID   string
	User *user.User

	hub    *Hub
	conn   *websocket.Conn
	Send   chan []byte
	server *Server

	// done is closed by the hub when it drops the connection. Send is
	// never closed: a handler turn that resumes after the drop (e.g. a
	// persistence call outliving a kick) must be able to call send
	// without panicking.
	done chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	log    zerolog.Logger
}

// send queues a frame for this connection only. A no-op once the hub has
// dropped the connection; drops the frame if the buffer is full, the hub's
// eviction path handles persistent slowness.
func (c *Client) send(event string, data any) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.Send <- Marshal(event, data):
	default:
		c.log.Warn().Str("event", event).Msg("send buffer full, dropping frame")
	}
}

func (c *Client) sendError(message string) {
	c.send(EventError, errorOut{Message: message})
}

// readPump processes inbound events for this connection, one at a time and
// in receipt order. It is the only goroutine that dispatches this
// connection's events.
func (c *Client) readPump() {
	defer func() {
		c.server.handleDisconnect(c)
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
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug().Err(err).Msg("read error")
			}
			break
		}
		c.server.dispatch(c, raw)
	}
}

// writePump pushes queued frames to the peer and keeps the connection alive
// with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			// The hub dropped us.
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush queued frames in the same write to cut syscalls.
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
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
