package privatemsg

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"forumhub/internal/apperr"
	"forumhub/internal/user"
)

type Store interface {
	GetOrCreateConversation(ctx context.Context, userA, userB string) (*Conversation, error)
	InsertMessage(ctx context.Context, msg *Message) error
	UpdateLastMessage(ctx context.Context, conversationID, messageID string, at time.Time) error
	GetMessage(ctx context.Context, messageID string) (*Message, error)
	MarkRead(ctx context.Context, messageID, recipientID string) (bool, error)
	MarkConversationRead(ctx context.Context, userID, otherUserID string) (int64, error)
	ConversationsFor(ctx context.Context, userID string, limit, offset int) ([]*ConversationSummary, error)
	MessagesBetween(ctx context.Context, userID, otherUserID string, limit int, before *time.Time) ([]*Message, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
}

// UserLookup checks that the recipient exists and is active.
type UserLookup interface {
	GetActiveByID(ctx context.Context, id string) (*user.User, error)
}

// Notifier receives the private-message event after persistence; failures
// there never fail the send.
type Notifier interface {
	PrivateMessage(ctx context.Context, recipientID, senderID, senderNickname, content, conversationID string) error
}

type Service struct {
	store    Store
	users    UserLookup
	notifier Notifier
	log      zerolog.Logger
}

func NewService(store Store, users UserLookup, notifier Notifier, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		users:    users,
		notifier: notifier,
		log:      log.With().Str("component", "privatemsg").Logger(),
	}
}

// Send validates and persists a direct message, then updates the
// conversation pointer and hands the notification off. The caller delivers
// the returned message to the recipient's channel; that only happens after a
// successful write.
func (s *Service) Send(ctx context.Context, sender *user.User, recipientID, content string, replyTo *string) (*Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Validation("message cannot be empty")
	}
	if len([]rune(content)) > maxContentLength {
		return nil, apperr.Validation("message too long (maximum 5000 characters)")
	}
	if recipientID == sender.ID {
		return nil, apperr.Validation("cannot send a message to yourself")
	}

	if _, err := s.users.GetActiveByID(ctx, recipientID); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.NotFound("recipient not found")
		}
		return nil, apperr.Internal(err)
	}

	conv, err := s.store.GetOrCreateConversation(ctx, sender.ID, recipientID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	msg := &Message{
		SenderID:    sender.ID,
		RecipientID: recipientID,
		Content:     content,
		ReplyTo:     replyTo,
		Sender: &Sender{
			ID:       sender.ID,
			Nickname: sender.Nickname,
			Name:     sender.Name,
		},
	}
	if err := s.store.InsertMessage(ctx, msg); err != nil {
		return nil, apperr.Internal(err)
	}

	// The message is committed; pointer updates and notifications are
	// best-effort from here.
	if err := s.store.UpdateLastMessage(ctx, conv.ID, msg.ID, msg.CreatedAt); err != nil {
		s.log.Error().Err(err).Str("conversation_id", conv.ID).Msg("failed to update conversation pointer")
	}

	if err := s.notifier.PrivateMessage(ctx, recipientID, sender.ID, sender.Nickname, content, conv.ID); err != nil {
		s.log.Error().Err(err).Str("conversation_id", conv.ID).Msg("failed to dispatch message notification")
	}

	return msg, nil
}

// MarkRead sets the read flag on one inbound message. Only the recipient may
// do it; the sender id comes back so the caller can notify the sender's
// channel. updated is false when the message had already been read (no
// second read receipt).
func (s *Service) MarkRead(ctx context.Context, messageID, userID string) (senderID string, updated bool, err error) {
	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return "", false, err
		}
		return "", false, apperr.Internal(err)
	}
	if msg.RecipientID != userID {
		return "", false, apperr.Forbidden("only the recipient can mark a message as read")
	}

	updated, err = s.store.MarkRead(ctx, messageID, userID)
	if err != nil {
		return "", false, apperr.Internal(err)
	}
	return msg.SenderID, updated, nil
}

// MarkConversationRead bulk-marks all unread messages from otherUserID.
func (s *Service) MarkConversationRead(ctx context.Context, userID, otherUserID string) error {
	if _, err := s.store.MarkConversationRead(ctx, userID, otherUserID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *Service) Conversations(ctx context.Context, userID string, page, limit int) ([]*ConversationSummary, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	summaries, err := s.store.ConversationsFor(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return summaries, nil
}

// ConversationMessages returns one conversation's messages in chronological
// order.
func (s *Service) ConversationMessages(ctx context.Context, userID, otherUserID string, limit int, before *time.Time) ([]*Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	messages, err := s.store.MessagesBetween(ctx, userID, otherUserID, limit, before)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.store.UnreadCount(ctx, userID)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	return count, nil
}
