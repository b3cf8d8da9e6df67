package privatemsg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"forumhub/internal/apperr"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetOrCreateConversation resolves the single conversation row for a user
// pair, creating it on first contact. Concurrent first messages between the
// same pair are settled by the unique constraint on the canonical pair: the
// losing insert is a no-op and both callers reselect the same row.
func (r *Repository) GetOrCreateConversation(ctx context.Context, userA, userB string) (*Conversation, error) {
	p1, p2 := CanonicalPair(userA, userB)

	conv, err := r.findConversation(ctx, p1, p2)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find conversation: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO conversations (id, participant_1, participant_2)
		VALUES ($1, $2, $3)
		ON CONFLICT (participant_1, participant_2) DO NOTHING
	`, uuid.NewString(), p1, p2)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	conv, err = r.findConversation(ctx, p1, p2)
	if err != nil {
		return nil, fmt.Errorf("reselect conversation: %w", err)
	}
	return conv, nil
}

func (r *Repository) findConversation(ctx context.Context, p1, p2 string) (*Conversation, error) {
	conv := &Conversation{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, participant_1, participant_2, last_message_id, last_message_at, created_at
		FROM conversations
		WHERE participant_1 = $1 AND participant_2 = $2
	`, p1, p2).Scan(
		&conv.ID, &conv.Participant1, &conv.Participant2,
		&conv.LastMessageID, &conv.LastMessageAt, &conv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return conv, nil
}

func (r *Repository) InsertMessage(ctx context.Context, msg *Message) error {
	msg.ID = uuid.NewString()
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO private_messages (id, sender_id, recipient_id, content, reply_to)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, msg.ID, msg.SenderID, msg.RecipientID, msg.Content, msg.ReplyTo).Scan(&msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert private message: %w", err)
	}
	return nil
}

func (r *Repository) UpdateLastMessage(ctx context.Context, conversationID, messageID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE conversations
		SET last_message_id = $2, last_message_at = $3
		WHERE id = $1
	`, conversationID, messageID, at)
	if err != nil {
		return fmt.Errorf("update conversation last message: %w", err)
	}
	return nil
}

func (r *Repository) GetMessage(ctx context.Context, messageID string) (*Message, error) {
	msg := &Message{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, sender_id, recipient_id, content, reply_to, is_read, read_at, created_at
		FROM private_messages
		WHERE id = $1 AND is_deleted = FALSE
	`, messageID).Scan(
		&msg.ID, &msg.SenderID, &msg.RecipientID, &msg.Content,
		&msg.ReplyTo, &msg.IsRead, &msg.ReadAt, &msg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("message not found")
		}
		return nil, fmt.Errorf("get private message: %w", err)
	}
	return msg, nil
}

// MarkRead flips the read flag for one message. Returns false when the
// message was already read.
func (r *Repository) MarkRead(ctx context.Context, messageID, recipientID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE private_messages
		SET is_read = TRUE, read_at = NOW()
		WHERE id = $1 AND recipient_id = $2 AND is_read = FALSE
	`, messageID, recipientID)
	if err != nil {
		return false, fmt.Errorf("mark message read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkConversationRead bulk-marks every unread message from otherUserID to
// userID. Returns the number of messages updated.
func (r *Repository) MarkConversationRead(ctx context.Context, userID, otherUserID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE private_messages
		SET is_read = TRUE, read_at = NOW()
		WHERE sender_id = $1 AND recipient_id = $2 AND is_read = FALSE
	`, otherUserID, userID)
	if err != nil {
		return 0, fmt.Errorf("mark conversation read: %w", err)
	}
	return res.RowsAffected()
}

// ConversationsFor lists a user's conversations newest-activity first, with
// the other participant and the last message attached.
func (r *Repository) ConversationsFor(ctx context.Context, userID string, limit, offset int) ([]*ConversationSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.last_message_at,
		       o.id, o.nickname, o.name,
		       m.id, m.sender_id, m.recipient_id, m.content, m.is_read, m.created_at
		FROM conversations c
		JOIN users o ON o.id = CASE WHEN c.participant_1 = $1 THEN c.participant_2 ELSE c.participant_1 END
		LEFT JOIN private_messages m ON m.id = c.last_message_id
		WHERE c.participant_1 = $1 OR c.participant_2 = $1
		ORDER BY c.last_message_at DESC NULLS LAST
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	var summaries []*ConversationSummary
	for rows.Next() {
		s := &ConversationSummary{}
		var msgID, msgSender, msgRecipient, msgContent sql.NullString
		var msgRead sql.NullBool
		var msgCreated sql.NullTime

		err := rows.Scan(
			&s.ID, &s.LastMessageAt,
			&s.OtherUser.ID, &s.OtherUser.Nickname, &s.OtherUser.Name,
			&msgID, &msgSender, &msgRecipient, &msgContent, &msgRead, &msgCreated,
		)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}

		if msgID.Valid {
			s.LastMessage = &Message{
				ID:          msgID.String,
				SenderID:    msgSender.String,
				RecipientID: msgRecipient.String,
				Content:     msgContent.String,
				IsRead:      msgRead.Bool,
				CreatedAt:   msgCreated.Time,
			}
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// MessagesBetween returns the messages of one conversation newest first,
// soft-deleted rows excluded.
func (r *Repository) MessagesBetween(ctx context.Context, userID, otherUserID string, limit int, before *time.Time) ([]*Message, error) {
	query := `
		SELECT m.id, m.sender_id, m.recipient_id, m.content, m.reply_to,
		       m.is_read, m.read_at, m.created_at,
		       s.nickname, s.name
		FROM private_messages m
		JOIN users s ON m.sender_id = s.id
		WHERE ((m.sender_id = $1 AND m.recipient_id = $2)
		    OR (m.sender_id = $2 AND m.recipient_id = $1))
		  AND m.is_deleted = FALSE
	`
	args := []any{userID, otherUserID}
	if before != nil {
		query += ` AND m.created_at < $3`
		args = append(args, *before)
	}
	query += fmt.Sprintf(` ORDER BY m.created_at DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query private messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		msg := &Message{Sender: &Sender{}}
		err := rows.Scan(
			&msg.ID, &msg.SenderID, &msg.RecipientID, &msg.Content, &msg.ReplyTo,
			&msg.IsRead, &msg.ReadAt, &msg.CreatedAt,
			&msg.Sender.Nickname, &msg.Sender.Name,
		)
		if err != nil {
			return nil, fmt.Errorf("scan private message: %w", err)
		}
		msg.Sender.ID = msg.SenderID
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (r *Repository) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM private_messages
		WHERE recipient_id = $1 AND is_read = FALSE AND is_deleted = FALSE
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread messages: %w", err)
	}
	return count, nil
}
