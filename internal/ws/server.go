package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"forumhub/internal/apperr"
	"forumhub/internal/chat"
	"forumhub/internal/presence"
	"forumhub/internal/privatemsg"
	"forumhub/internal/user"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Dev mode; lock down origins in front of a proxy.
	},
}

// Authenticator resolves a bearer credential to a user with its role
// snapshot.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*user.User, error)
}

// ChatCoordinator is the public-room side of the chat service.
type ChatCoordinator interface {
	PostMessage(ctx context.Context, author *user.User, content string, replyTo *string) (*chat.Message, error)
	DeleteMessage(ctx context.Context, messageID string, actor *user.User) error
}

// PrivateMessenger is the direct-message side.
type PrivateMessenger interface {
	Send(ctx context.Context, sender *user.User, recipientID, content string, replyTo *string) (*privatemsg.Message, error)
	MarkRead(ctx context.Context, messageID, userID string) (senderID string, updated bool, err error)
	MarkConversationRead(ctx context.Context, userID, otherUserID string) error
}

// Server owns the websocket endpoint: handshake authentication, connection
// lifecycle, and the event dispatch loop bridging the wire protocol to the
// coordinators.
type Server struct {
	hub      *Hub
	presence *presence.Directory
	auth     Authenticator
	chat     ChatCoordinator
	pm       PrivateMessenger
	log      zerolog.Logger
}

func NewServer(hub *Hub, dir *presence.Directory, auth Authenticator, chatSvc ChatCoordinator, pmSvc PrivateMessenger, log zerolog.Logger) *Server {
	return &Server{
		hub:      hub,
		presence: dir,
		auth:     auth,
		chat:     chatSvc,
		pm:       pmSvc,
		log:      log.With().Str("component", "ws").Logger(),
	}
}

// ServeWS authenticates the handshake and upgrades the connection. The
// bearer credential comes from the Authorization header with a query-param
// fallback for browser websocket clients.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("Authorization")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		http.Error(w, "missing authentication token", http.StatusUnauthorized)
		return
	}

	u, err := s.auth.Authenticate(r.Context(), token)
	if err != nil {
		http.Error(w, apperr.UserMessage(err), apperr.HTTPStatus(err))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	connID := uuid.NewString()
	client := &Client{
		ID:     connID,
		User:   u,
		hub:    s.hub,
		conn:   conn,
		Send:   make(chan []byte, 256),
		done:   make(chan struct{}),
		server: s,
		ctx:    ctx,
		cancel: cancel,
		log:    s.log.With().Str("connection_id", connID).Str("user_id", u.ID).Logger(),
	}

	// Last connect wins: a still-open previous connection from the same
	// user is forced out.
	if replaced := s.presence.Register(ctx, u.ID, client.ID); replaced != "" {
		s.hub.Kick(replaced)
	}

	s.hub.Register(client)
	s.hub.Join(client, RoomGeneral)
	s.hub.Join(client, UserChannel(u.ID))

	s.log.Info().Str("nickname", u.Nickname).Msg("✅ user connected to chat")

	s.hub.Broadcast(RoomGeneral, EventUserJoined, presenceChangeOut{
		User:      userRef{ID: u.ID, Nickname: u.Nickname},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, client.ID)

	go client.writePump()
	go client.readPump()
}

func (s *Server) handleDisconnect(c *Client) {
	c.cancel()
	s.hub.Unregister(c)
	s.presence.Unregister(context.Background(), c.ID)

	s.log.Info().Str("nickname", c.User.Nickname).Msg("❌ user disconnected from chat")

	// A connection torn down because a newer one replaced it must not
	// announce the user as gone: the directory still maps them to the
	// live connection.
	if s.presence.ConnectionFor(c.User.ID) != "" {
		return
	}

	s.hub.Broadcast(RoomGeneral, EventUserLeft, presenceChangeOut{
		User:      userRef{ID: c.User.ID, Nickname: c.User.Nickname},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, c.ID)
}

// dispatch runs one handler turn for one inbound frame. It is called from
// the connection's readPump, so events from a single connection are handled
// strictly in receipt order.
func (s *Server) dispatch(c *Client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.sendError("invalid message format")
		return
	}

	switch env.Event {
	case EventChatMessage:
		s.handleChatMessage(c, env.Data)
	case EventDeleteChatMessage:
		s.handleDeleteChatMessage(c, env.Data)
	case EventTypingStart:
		s.handleTyping(c, true)
	case EventTypingStop:
		s.handleTyping(c, false)
	case EventPrivateMessage:
		s.handlePrivateMessage(c, env.Data)
	case EventMarkMessageRead:
		s.handleMarkMessageRead(c, env.Data)
	case EventMarkConversationRead:
		s.handleMarkConversationRead(c, env.Data)
	case EventGetOnlineUsers:
		c.send(EventOnlineUsers, s.presence.OnlineUsers())
	case EventUpdateStatus:
		s.handleUpdateStatus(c, env.Data)
	case EventPing:
		c.send(EventPong, nil)
	default:
		c.sendError("unknown event")
	}
}

func (s *Server) handleChatMessage(c *Client, data json.RawMessage) {
	var in chatMessageIn
	if err := json.Unmarshal(data, &in); err != nil {
		c.sendError("invalid message format")
		return
	}

	msg, err := s.chat.PostMessage(c.ctx, c.User, in.Content, in.ReplyTo)
	if err != nil {
		s.reportError(c, err, "post chat message")
		return
	}

	s.hub.Broadcast(RoomGeneral, EventNewChatMessage, msg, "")
}

func (s *Server) handleDeleteChatMessage(c *Client, data json.RawMessage) {
	var in deleteChatMessageIn
	if err := json.Unmarshal(data, &in); err != nil {
		c.sendError("invalid message format")
		return
	}

	if err := s.chat.DeleteMessage(c.ctx, in.MessageID, c.User); err != nil {
		s.reportError(c, err, "delete chat message")
		return
	}

	s.hub.Broadcast(RoomGeneral, EventChatMessageDeleted, chatMessageDeletedOut{
		MessageID: in.MessageID,
		DeletedBy: c.User.Nickname,
	}, "")
}

func (s *Server) handleTyping(c *Client, typing bool) {
	s.hub.Broadcast(RoomGeneral, EventUserTyping, userTypingOut{
		User:   userRef{ID: c.User.ID, Nickname: c.User.Nickname},
		Typing: typing,
	}, c.ID)
}

func (s *Server) handlePrivateMessage(c *Client, data json.RawMessage) {
	var in privateMessageIn
	if err := json.Unmarshal(data, &in); err != nil {
		c.sendError("invalid message format")
		return
	}

	msg, err := s.pm.Send(c.ctx, c.User, in.RecipientID, in.Content, in.ReplyTo)
	if err != nil {
		s.reportError(c, err, "send private message")
		return
	}

	// Ack to the sender, push to the recipient's inbox channel if live.
	c.send(EventPrivateMessageSent, msg)
	s.hub.SendToUser(msg.RecipientID, EventNewPrivateMessage, msg)
}

func (s *Server) handleMarkMessageRead(c *Client, data json.RawMessage) {
	var in markMessageReadIn
	if err := json.Unmarshal(data, &in); err != nil {
		c.sendError("invalid message format")
		return
	}

	senderID, updated, err := s.pm.MarkRead(c.ctx, in.MessageID, c.User.ID)
	if err != nil {
		s.reportError(c, err, "mark message read")
		return
	}

	c.send(EventMessageMarkedRead, messageReadOut{MessageID: in.MessageID})
	if updated {
		s.hub.SendToUser(senderID, EventMessageRead, messageReadOut{
			MessageID: in.MessageID,
			ReadBy:    c.User.ID,
		})
	}
}

func (s *Server) handleMarkConversationRead(c *Client, data json.RawMessage) {
	var in markConversationReadIn
	if err := json.Unmarshal(data, &in); err != nil {
		c.sendError("invalid message format")
		return
	}

	if err := s.pm.MarkConversationRead(c.ctx, c.User.ID, in.OtherUserID); err != nil {
		s.reportError(c, err, "mark conversation read")
		return
	}

	c.send(EventConversationMarkedRead, conversationMarkedReadOut{OtherUserID: in.OtherUserID})
}

func (s *Server) handleUpdateStatus(c *Client, data json.RawMessage) {
	var in updateStatusIn
	if err := json.Unmarshal(data, &in); err != nil {
		c.sendError("invalid message format")
		return
	}

	status := presence.Status(in.Status)
	if !status.ClientSettable() {
		c.sendError("invalid status")
		return
	}

	s.presence.SetStatus(c.ctx, c.User.ID, status)
	s.hub.Broadcast(RoomGeneral, EventUserStatusChanged, userStatusChangedOut{
		UserID: c.User.ID,
		Status: in.Status,
	}, c.ID)
}

// reportError sends a structured error to the issuing connection only.
// Internal failures are logged with their cause; the peer gets a generic
// message.
func (s *Server) reportError(c *Client, err error, op string) {
	if apperr.KindOf(err) == apperr.KindInternal {
		s.log.Error().Err(err).Str("op", op).Str("user_id", c.User.ID).Msg("handler failed")
	}
	c.sendError(apperr.UserMessage(err))
}
