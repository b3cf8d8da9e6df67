package notification

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"forumhub/internal/ws"
)

// Store is the persistence surface the dispatcher needs.
type Store interface {
	Insert(ctx context.Context, n *Notification) error
	GetSettings(ctx context.Context, userID string) (*Settings, error)
	UpdateSettings(ctx context.Context, userID string, update *SettingsUpdate) (*Settings, error)
	List(ctx context.Context, userID string, limit, offset int, unreadOnly bool) ([]*Notification, error)
	MarkRead(ctx context.Context, notificationID, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
}

// Pusher delivers a realtime event to a user's live connections, if any.
// The websocket hub satisfies this.
type Pusher interface {
	SendToUser(userID, event string, data any)
}

type Input struct {
	UserID           string
	Type             Type
	Title            string
	Message          string
	ActionURL        string
	RelatedPostID    string
	RelatedCommentID string
	RelatedUserID    string
	Metadata         map[string]any
}

type Service struct {
	store  Store
	pusher Pusher
	log    zerolog.Logger
}

func NewService(store Store, pusher Pusher, log zerolog.Logger) *Service {
	return &Service{
		store:  store,
		pusher: pusher,
		log:    log.With().Str("component", "notification").Logger(),
	}
}

// Notify persists a notification and pushes it to the target's live
// connections. Self-notifications and notifications switched off in the
// target's settings are silently skipped, which callers treat as success.
func (s *Service) Notify(ctx context.Context, in Input) error {
	if in.RelatedUserID != "" && in.RelatedUserID == in.UserID {
		return nil
	}

	settings, err := s.store.GetSettings(ctx, in.UserID)
	if err != nil {
		return err
	}
	if !ShouldNotify(settings, in.Type) {
		return nil
	}

	n := &Notification{
		UserID:           in.UserID,
		Type:             in.Type,
		Title:            in.Title,
		Message:          in.Message,
		ActionURL:        in.ActionURL,
		RelatedPostID:    in.RelatedPostID,
		RelatedCommentID: in.RelatedCommentID,
		RelatedUserID:    in.RelatedUserID,
		Metadata:         in.Metadata,
	}
	if err := s.store.Insert(ctx, n); err != nil {
		return err
	}

	s.pusher.SendToUser(in.UserID, ws.EventNewNotification, n)
	return nil
}

// ChatMention notifies a user that someone @-mentioned them in the shared room.
func (s *Service) ChatMention(ctx context.Context, targetUserID, authorID, authorNickname, content, messageID string) error {
	return s.Notify(ctx, Input{
		UserID:        targetUserID,
		Type:          TypeChatMention,
		Title:         "Mentioned in chat",
		Message:       fmt.Sprintf("%s mentioned you in chat: %q", authorNickname, truncate(content, 50)),
		ActionURL:     "/chat",
		RelatedUserID: authorID,
		Metadata:      map[string]any{"message_id": messageID},
	})
}

// PrivateMessage notifies the recipient of a new direct message.
func (s *Service) PrivateMessage(ctx context.Context, recipientID, senderID, senderNickname, content, conversationID string) error {
	return s.Notify(ctx, Input{
		UserID:        recipientID,
		Type:          TypePrivateMessage,
		Title:         "New private message",
		Message:       fmt.Sprintf("%s sent you a message: %q", senderNickname, truncate(content, 50)),
		ActionURL:     "/messages/" + senderID,
		RelatedUserID: senderID,
		Metadata:      map[string]any{"conversation_id": conversationID},
	})
}

func (s *Service) PostReply(ctx context.Context, targetUserID, replierID, replierNickname, postID, postTitle string) error {
	return s.Notify(ctx, Input{
		UserID:        targetUserID,
		Type:          TypePostReply,
		Title:         "New reply to your post",
		Message:       fmt.Sprintf("%s replied to %q", replierNickname, postTitle),
		ActionURL:     "/posts/" + postID,
		RelatedPostID: postID,
		RelatedUserID: replierID,
	})
}

func (s *Service) CommentReply(ctx context.Context, targetUserID, replierID, replierNickname, postID, commentID string) error {
	return s.Notify(ctx, Input{
		UserID:           targetUserID,
		Type:             TypeCommentReply,
		Title:            "New reply to your comment",
		Message:          fmt.Sprintf("%s replied to your comment", replierNickname),
		ActionURL:        "/posts/" + postID,
		RelatedPostID:    postID,
		RelatedCommentID: commentID,
		RelatedUserID:    replierID,
	})
}

func (s *Service) PostLike(ctx context.Context, targetUserID, likerID, likerNickname, postID, postTitle string) error {
	return s.Notify(ctx, Input{
		UserID:        targetUserID,
		Type:          TypePostLike,
		Title:         "Your post was liked",
		Message:       fmt.Sprintf("%s liked %q", likerNickname, postTitle),
		ActionURL:     "/posts/" + postID,
		RelatedPostID: postID,
		RelatedUserID: likerID,
	})
}

func (s *Service) CommentLike(ctx context.Context, targetUserID, likerID, likerNickname, postID, commentID string) error {
	return s.Notify(ctx, Input{
		UserID:           targetUserID,
		Type:             TypeCommentLike,
		Title:            "Your comment was liked",
		Message:          fmt.Sprintf("%s liked your comment", likerNickname),
		ActionURL:        "/posts/" + postID,
		RelatedPostID:    postID,
		RelatedCommentID: commentID,
		RelatedUserID:    likerID,
	})
}

func (s *Service) Mention(ctx context.Context, targetUserID, authorID, authorNickname, postID string) error {
	return s.Notify(ctx, Input{
		UserID:        targetUserID,
		Type:          TypeMention,
		Title:         "You were mentioned",
		Message:       fmt.Sprintf("%s mentioned you in a post", authorNickname),
		ActionURL:     "/posts/" + postID,
		RelatedPostID: postID,
		RelatedUserID: authorID,
	})
}

func (s *Service) RoleChanged(ctx context.Context, targetUserID, newRole string) error {
	return s.Notify(ctx, Input{
		UserID:   targetUserID,
		Type:     TypeRoleChanged,
		Title:    "Your role changed",
		Message:  fmt.Sprintf("Your role is now %s", newRole),
		Metadata: map[string]any{"role": newRole},
	})
}

func (s *Service) PostMoved(ctx context.Context, targetUserID, postID, postTitle, newCategory string) error {
	return s.Notify(ctx, Input{
		UserID:        targetUserID,
		Type:          TypePostMoved,
		Title:         "Your post was moved",
		Message:       fmt.Sprintf("%q was moved to %s", postTitle, newCategory),
		ActionURL:     "/posts/" + postID,
		RelatedPostID: postID,
		Metadata:      map[string]any{"category": newCategory},
	})
}

// LevelUp is never settings-gated; ShouldNotify always passes level_up through.
func (s *Service) LevelUp(ctx context.Context, targetUserID string, newLevel int) error {
	return s.Notify(ctx, Input{
		UserID:   targetUserID,
		Type:     TypeLevelUp,
		Title:    "Level up!",
		Message:  fmt.Sprintf("You reached level %d", newLevel),
		Metadata: map[string]any{"level": newLevel},
	})
}

func (s *Service) List(ctx context.Context, userID string, limit, offset int, unreadOnly bool) ([]*Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.List(ctx, userID, limit, offset, unreadOnly)
}

func (s *Service) MarkRead(ctx context.Context, notificationID, userID string) error {
	return s.store.MarkRead(ctx, notificationID, userID)
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.store.MarkAllRead(ctx, userID)
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.store.UnreadCount(ctx, userID)
}

func (s *Service) GetSettings(ctx context.Context, userID string) (*Settings, error) {
	return s.store.GetSettings(ctx, userID)
}

func (s *Service) UpdateSettings(ctx context.Context, userID string, update *SettingsUpdate) (*Settings, error) {
	return s.store.UpdateSettings(ctx, userID, update)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
