package notification

import "time"

type Type string

const (
	TypePostReply      Type = "post_reply"
	TypeCommentReply   Type = "comment_reply"
	TypePostLike       Type = "post_like"
	TypeCommentLike    Type = "comment_like"
	TypeMention        Type = "mention"
	TypeChatMention    Type = "chat_mention"
	TypePrivateMessage Type = "private_message"
	TypeRoleChanged    Type = "role_changed"
	TypePostMoved      Type = "post_moved"
	TypeLevelUp        Type = "level_up"
)

type Notification struct {
	ID               string         `json:"id"`
	UserID           string         `json:"user_id"`
	Type             Type           `json:"type"`
	Title            string         `json:"title"`
	Message          string         `json:"message"`
	ActionURL        string         `json:"action_url,omitempty"`
	RelatedPostID    string         `json:"related_post_id,omitempty"`
	RelatedCommentID string         `json:"related_comment_id,omitempty"`
	RelatedUserID    string         `json:"related_user_id,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	IsRead           bool           `json:"is_read"`
	CreatedAt        time.Time      `json:"created_at"`
}

// Settings is one boolean per notification category. Missing rows mean
// "everything on"; a row is created lazily the first time settings are read.
type Settings struct {
	UserID             string `json:"user_id"`
	PostReplies        bool   `json:"post_replies"`
	CommentReplies     bool   `json:"comment_replies"`
	PostLikes          bool   `json:"post_likes"`
	CommentLikes       bool   `json:"comment_likes"`
	Mentions           bool   `json:"mentions"`
	Administrative     bool   `json:"administrative"`
	PrivateMessages    bool   `json:"private_messages"`
	EmailNotifications bool   `json:"email_notifications"`
	PushNotifications  bool   `json:"push_notifications"`
}

func DefaultSettings(userID string) *Settings {
	return &Settings{
		UserID:             userID,
		PostReplies:        true,
		CommentReplies:     true,
		PostLikes:          true,
		CommentLikes:       true,
		Mentions:           true,
		Administrative:     true,
		PrivateMessages:    true,
		EmailNotifications: true,
		PushNotifications:  true,
	}
}

// ShouldNotify is the pure settings gate: it decides whether a notification
// type passes the user's per-category switches. Level-ups have no category
// and always pass.
func ShouldNotify(s *Settings, t Type) bool {
	if s == nil {
		return false
	}
	switch t {
	case TypePostReply:
		return s.PostReplies
	case TypeCommentReply:
		return s.CommentReplies
	case TypePostLike:
		return s.PostLikes
	case TypeCommentLike:
		return s.CommentLikes
	case TypeMention, TypeChatMention:
		return s.Mentions
	case TypeRoleChanged, TypePostMoved:
		return s.Administrative
	case TypePrivateMessage:
		return s.PrivateMessages
	case TypeLevelUp:
		return true
	}
	return false
}

// SettingsUpdate carries only the fields the client actually sent; nil means
// leave the switch alone.
type SettingsUpdate struct {
	PostReplies        *bool `json:"post_replies,omitempty"`
	CommentReplies     *bool `json:"comment_replies,omitempty"`
	PostLikes          *bool `json:"post_likes,omitempty"`
	CommentLikes       *bool `json:"comment_likes,omitempty"`
	Mentions           *bool `json:"mentions,omitempty"`
	Administrative     *bool `json:"administrative,omitempty"`
	PrivateMessages    *bool `json:"private_messages,omitempty"`
	EmailNotifications *bool `json:"email_notifications,omitempty"`
	PushNotifications  *bool `json:"push_notifications,omitempty"`
}

func (u *SettingsUpdate) applyTo(s *Settings) {
	set := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	set(&s.PostReplies, u.PostReplies)
	set(&s.CommentReplies, u.CommentReplies)
	set(&s.PostLikes, u.PostLikes)
	set(&s.CommentLikes, u.CommentLikes)
	set(&s.Mentions, u.Mentions)
	set(&s.Administrative, u.Administrative)
	set(&s.PrivateMessages, u.PrivateMessages)
	set(&s.EmailNotifications, u.EmailNotifications)
	set(&s.PushNotifications, u.PushNotifications)
}
