package chat

import "time"

// Author is the display data broadcast alongside a message.
type Author struct {
	ID          string `json:"id"`
	Nickname    string `json:"nickname"`
	Name        string `json:"name"`
	RoleName    string `json:"role_name"`
	RoleDisplay string `json:"role_display"`
	RoleColor   string `json:"role_color"`
}

type Message struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	ReplyTo   *string   `json:"reply_to,omitempty"`
	Mentions  []string  `json:"mentions"`
	IsDeleted bool      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	Author    *Author   `json:"author,omitempty"`

	// Preview of the replied-to message, populated on history reads.
	ReplyToMessage *ReplyPreview `json:"reply_to_message,omitempty"`
}

type ReplyPreview struct {
	ID             string `json:"id"`
	Content        string `json:"content"`
	AuthorNickname string `json:"author_nickname"`
}

const maxContentLength = 1000
