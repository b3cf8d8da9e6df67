package chat

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"forumhub/internal/apperr"
	"forumhub/internal/user"
)

// Store is what the coordinator needs from persistence.
type Store interface {
	Insert(ctx context.Context, msg *Message) error
	GetAuthorID(ctx context.Context, messageID string) (string, error)
	SoftDelete(ctx context.Context, messageID string) error
	Recent(ctx context.Context, limit int, before *time.Time) ([]*Message, error)
}

// UserLookup resolves mention tokens to active users.
type UserLookup interface {
	FindActiveByNicknames(ctx context.Context, nicknames []string) ([]*user.User, error)
}

// Notifier receives mention events after a message is persisted. Dispatch
// failures are the notifier's problem; the coordinator never fails a post
// over them.
type Notifier interface {
	ChatMention(ctx context.Context, targetUserID, authorID, authorNickname, content, messageID string) error
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
		log:      log.With().Str("component", "chat").Logger(),
	}
}

// PostMessage validates, persists and returns a public chat message. The
// caller broadcasts it only after a nil error: no broadcast ever precedes a
// successful write.
func (s *Service) PostMessage(ctx context.Context, author *user.User, content string, replyTo *string) (*Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Validation("message cannot be empty")
	}
	if len([]rune(content)) > maxContentLength {
		return nil, apperr.Validation("message too long (maximum 1000 characters)")
	}
	if !author.Role.Permissions.CanComment {
		return nil, apperr.Forbidden("you do not have permission to send messages")
	}

	msg := &Message{
		AuthorID: author.ID,
		Content:  content,
		ReplyTo:  replyTo,
		Mentions: ExtractMentions(content),
		Author: &Author{
			ID:          author.ID,
			Nickname:    author.Nickname,
			Name:        author.Name,
			RoleName:    author.Role.Name,
			RoleDisplay: author.Role.DisplayName,
			RoleColor:   author.Role.Color,
		},
	}

	if err := s.store.Insert(ctx, msg); err != nil {
		return nil, apperr.Internal(err)
	}

	s.notifyMentions(ctx, msg, author)
	return msg, nil
}

// notifyMentions fans mention notifications out to each distinct mentioned
// user, the author excluded. Best-effort: the message is already committed.
func (s *Service) notifyMentions(ctx context.Context, msg *Message, author *user.User) {
	if len(msg.Mentions) == 0 {
		return
	}

	mentioned, err := s.users.FindActiveByNicknames(ctx, msg.Mentions)
	if err != nil {
		s.log.Error().Err(err).Str("message_id", msg.ID).Msg("failed to resolve mentioned users")
		return
	}

	for _, target := range mentioned {
		if target.ID == author.ID {
			continue
		}
		if err := s.notifier.ChatMention(ctx, target.ID, author.ID, author.Nickname, msg.Content, msg.ID); err != nil {
			s.log.Error().Err(err).Str("target_user_id", target.ID).Msg("failed to dispatch mention notification")
		}
	}
}

// DeleteMessage soft-deletes a message. Allowed for the author and for
// moderators; everyone else gets Forbidden and the message stays readable.
func (s *Service) DeleteMessage(ctx context.Context, messageID string, actor *user.User) error {
	authorID, err := s.store.GetAuthorID(ctx, messageID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return err
		}
		return apperr.Internal(err)
	}

	if authorID != actor.ID && !actor.Role.Permissions.CanModerate {
		return apperr.Forbidden("no permission to delete this message")
	}

	if err := s.store.SoftDelete(ctx, messageID); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return err
		}
		return apperr.Internal(err)
	}
	return nil
}

// History returns recent messages in chronological order, soft-deleted rows
// excluded.
func (s *Service) History(ctx context.Context, limit int, before *time.Time) ([]*Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	messages, err := s.store.Recent(ctx, limit, before)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	// Newest-first from the store, oldest-first for the client.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
