package ws

import "encoding/json"

// Envelope is the frame exchanged in both directions: an event name plus an
// event-specific payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound events.
const (
	EventChatMessage          = "chat_message"
	EventDeleteChatMessage    = "delete_chat_message"
	EventTypingStart          = "typing_start"
	EventTypingStop           = "typing_stop"
	EventPrivateMessage       = "private_message"
	EventMarkMessageRead      = "mark_message_read"
	EventMarkConversationRead = "mark_conversation_read"
	EventGetOnlineUsers       = "get_online_users"
	EventUpdateStatus         = "update_status"
	EventPing                 = "ping"
)

// Outbound events.
const (
	EventNewChatMessage         = "new_chat_message"
	EventChatMessageDeleted     = "chat_message_deleted"
	EventUserTyping             = "user_typing"
	EventNewPrivateMessage      = "new_private_message"
	EventPrivateMessageSent     = "private_message_sent"
	EventMessageRead            = "message_read"
	EventMessageMarkedRead      = "message_marked_read"
	EventConversationMarkedRead = "conversation_marked_read"
	EventNewNotification        = "new_notification"
	EventOnlineUsers            = "online_users"
	EventUserStatusChanged      = "user_status_changed"
	EventUserJoined             = "user_joined"
	EventUserLeft               = "user_left"
	EventError                  = "error"
	EventPong                   = "pong"
)

type chatMessageIn struct {
	Content string  `json:"content"`
	ReplyTo *string `json:"reply_to,omitempty"`
}

type deleteChatMessageIn struct {
	MessageID string `json:"message_id"`
}

type privateMessageIn struct {
	RecipientID string  `json:"recipient_id"`
	Content     string  `json:"content"`
	ReplyTo     *string `json:"reply_to,omitempty"`
}

type markMessageReadIn struct {
	MessageID string `json:"message_id"`
}

type markConversationReadIn struct {
	OtherUserID string `json:"other_user_id"`
}

type updateStatusIn struct {
	Status string `json:"status"`
}

type errorOut struct {
	Message string `json:"message"`
}

type userRef struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

type userTypingOut struct {
	User   userRef `json:"user"`
	Typing bool    `json:"typing"`
}

type chatMessageDeletedOut struct {
	MessageID string `json:"message_id"`
	DeletedBy string `json:"deleted_by"`
}

type messageReadOut struct {
	MessageID string `json:"message_id"`
	ReadBy    string `json:"read_by,omitempty"`
}

type conversationMarkedReadOut struct {
	OtherUserID string `json:"other_user_id"`
}

type userStatusChangedOut struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

type presenceChangeOut struct {
	User      userRef `json:"user"`
	Timestamp string  `json:"timestamp"`
}

// Marshal builds the wire frame for an event. Payload marshal failures are
// programming errors; the frame degrades to an empty payload.
func Marshal(event string, data any) []byte {
	env := Envelope{Event: event}
	if data != nil {
		if raw, err := json.Marshal(data); err == nil {
			env.Data = raw
		}
	}
	frame, _ := json.Marshal(env)
	return frame
}
