package ws

import (
	"context"

	"github.com/rs/zerolog"
)

// RoomGeneral is the public chat room every connection joins at connect time.
const RoomGeneral = "general_chat"

// UserChannel names the private inbox channel for a user. Only that user's
// own connection is ever joined to it.
func UserChannel(userID string) string {
	return "user:" + userID
}

type membership struct {
	client  *Client
	channel string
}

type frame struct {
	channel string
	exclude string // connection id to skip, "" for none
	payload []byte
}

// Hub routes frames to channel members. All membership state is owned by the
// Run goroutine and mutated only there; the exported methods just enqueue
// commands, so they are safe from any goroutine and cheap to call.
type Hub struct {
	conns    map[string]*Client            // connection id -> client
	channels map[string]map[string]*Client // channel -> connection id -> client

	register   chan *Client
	unregister chan *Client
	kick       chan string
	join       chan membership
	leave      chan membership
	frames     chan frame

	log zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		conns:      make(map[string]*Client),
		channels:   make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		kick:       make(chan string),
		join:       make(chan membership),
		leave:      make(chan membership),
		frames:     make(chan frame, 256),
		log:        log.With().Str("component", "hub").Logger(),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for _, c := range h.conns {
				h.drop(c)
			}
			return

		case client := <-h.register:
			h.conns[client.ID] = client

		case client := <-h.unregister:
			if _, ok := h.conns[client.ID]; ok {
				h.drop(client)
			}

		case connID := <-h.kick:
			if client, ok := h.conns[connID]; ok {
				h.drop(client)
			}

		case m := <-h.join:
			// Ignore joins racing a disconnect.
			if _, ok := h.conns[m.client.ID]; !ok {
				continue
			}
			members, ok := h.channels[m.channel]
			if !ok {
				members = make(map[string]*Client)
				h.channels[m.channel] = members
			}
			members[m.client.ID] = m.client

		case m := <-h.leave:
			h.removeFromChannel(m.client.ID, m.channel)

		case f := <-h.frames:
			for id, client := range h.channels[f.channel] {
				if id == f.exclude {
					continue
				}
				select {
				case client.Send <- f.payload:
				default:
					// Slow consumer: drop the connection rather than
					// stall the whole fan-out.
					h.log.Warn().Str("connection_id", id).Msg("send buffer full, evicting client")
					h.drop(client)
				}
			}
		}
	}
}

// drop removes a client from every channel and signals teardown through the
// client's done channel. Send stays open: other goroutines may still be
// sending on it, and a send on a closed channel would panic the process.
// Must only be called from the Run goroutine.
func (h *Hub) drop(c *Client) {
	if _, ok := h.conns[c.ID]; !ok {
		return
	}
	delete(h.conns, c.ID)
	for channel := range h.channels {
		h.removeFromChannel(c.ID, channel)
	}
	close(c.done)
}

func (h *Hub) removeFromChannel(connID, channel string) {
	members, ok := h.channels[channel]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(h.channels, channel)
	}
}

func (h *Hub) Register(c *Client)   { h.register <- c }
func (h *Hub) Unregister(c *Client) { h.unregister <- c }

// Kick force-disconnects a connection by id. Used when a newer connection
// from the same user replaces an older one.
func (h *Hub) Kick(connectionID string) { h.kick <- connectionID }

func (h *Hub) Join(c *Client, channel string)  { h.join <- membership{client: c, channel: channel} }
func (h *Hub) Leave(c *Client, channel string) { h.leave <- membership{client: c, channel: channel} }

// Broadcast fans an event out to every member of a channel, optionally
// excluding one connection. Delivery is best-effort: an empty channel or a
// gone connection is a silent no-op.
func (h *Hub) Broadcast(channel, event string, data any, excludeConnID string) {
	h.frames <- frame{channel: channel, exclude: excludeConnID, payload: Marshal(event, data)}
}

// SendToUser delivers an event to the user's private channel. A no-op when
// the user has no live connection; persisted state covers the gap.
func (h *Hub) SendToUser(userID, event string, data any) {
	h.Broadcast(UserChannel(userID), event, data, "")
}
