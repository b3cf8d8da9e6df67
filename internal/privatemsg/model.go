package privatemsg

import "time"

// Conversation is the one row that exists per unordered pair of users.
// Participants are stored in canonical (sorted) order so the pair maps to
// exactly one row; a unique constraint on the pair enforces it under
// concurrent first contact.
type Conversation struct {
	ID            string     `json:"id"`
	Participant1  string     `json:"participant_1"`
	Participant2  string     `json:"participant_2"`
	LastMessageID *string    `json:"last_message_id,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// CanonicalPair sorts two user ids into the fixed storage order.
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// Sender is the display data attached to a delivered message.
type Sender struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Name     string `json:"name"`
}

type Message struct {
	ID          string     `json:"id"`
	SenderID    string     `json:"sender_id"`
	RecipientID string     `json:"recipient_id"`
	Content     string     `json:"content"`
	ReplyTo     *string    `json:"reply_to,omitempty"`
	IsRead      bool       `json:"is_read"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Sender      *Sender    `json:"sender,omitempty"`
}

// ConversationSummary is the inbox-list projection: the other participant
// plus the most recent message.
type ConversationSummary struct {
	ID            string     `json:"id"`
	OtherUser     Sender     `json:"other_user"`
	LastMessage   *Message   `json:"last_message,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
}

const maxContentLength = 5000
