package chat

import (
	"context"
	"database/sql"
	"encoding/json"
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

func (r *Repository) Insert(ctx context.Context, msg *Message) error {
	msg.ID = uuid.NewString()

	mentions, err := json.Marshal(msg.Mentions)
	if err != nil {
		return fmt.Errorf("marshal mentions: %w", err)
	}
	if msg.Mentions == nil {
		mentions = []byte("[]")
	}

	query := `
		INSERT INTO chat_messages (id, author_id, content, reply_to, mentions)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err = r.db.QueryRowContext(ctx, query, msg.ID, msg.AuthorID, msg.Content, msg.ReplyTo, mentions).
		Scan(&msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

// GetAuthorID returns the author of a message, soft-deleted or not. Used for
// the delete permission check.
func (r *Repository) GetAuthorID(ctx context.Context, messageID string) (string, error) {
	var authorID string
	err := r.db.QueryRowContext(ctx,
		`SELECT author_id FROM chat_messages WHERE id = $1 AND is_deleted = FALSE`,
		messageID,
	).Scan(&authorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperr.NotFound("message not found")
		}
		return "", fmt.Errorf("get chat message author: %w", err)
	}
	return authorID, nil
}

// SoftDelete hides a message from reads without removing the row; the
// retention job purges it later.
func (r *Repository) SoftDelete(ctx context.Context, messageID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE chat_messages SET is_deleted = TRUE WHERE id = $1`,
		messageID,
	)
	if err != nil {
		return fmt.Errorf("soft delete chat message: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.NotFound("message not found")
	}
	return nil
}

// Recent returns non-deleted messages newest first, with author display data
// and a preview of the replied-to message.
func (r *Repository) Recent(ctx context.Context, limit int, before *time.Time) ([]*Message, error) {
	query := `
		SELECT m.id, m.author_id, m.content, m.reply_to, m.mentions, m.created_at,
		       u.nickname, u.name, r.name, r.display_name, COALESCE(r.color, ''),
		       rm.id, rm.content, ru.nickname
		FROM chat_messages m
		JOIN users u ON m.author_id = u.id
		JOIN roles r ON u.role_id = r.id
		LEFT JOIN chat_messages rm ON m.reply_to = rm.id
		LEFT JOIN users ru ON rm.author_id = ru.id
		WHERE m.is_deleted = FALSE
	`
	args := []any{}
	if before != nil {
		query += ` AND m.created_at < $1`
		args = append(args, *before)
	}
	query += fmt.Sprintf(` ORDER BY m.created_at DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chat messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		msg := &Message{Author: &Author{}}
		var mentions []byte
		var replyID, replyContent, replyNickname sql.NullString

		err := rows.Scan(
			&msg.ID, &msg.AuthorID, &msg.Content, &msg.ReplyTo, &mentions, &msg.CreatedAt,
			&msg.Author.Nickname, &msg.Author.Name,
			&msg.Author.RoleName, &msg.Author.RoleDisplay, &msg.Author.RoleColor,
			&replyID, &replyContent, &replyNickname,
		)
		if err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		msg.Author.ID = msg.AuthorID

		if err := json.Unmarshal(mentions, &msg.Mentions); err != nil {
			msg.Mentions = nil
		}
		if replyID.Valid {
			msg.ReplyToMessage = &ReplyPreview{
				ID:             replyID.String,
				Content:        replyContent.String,
				AuthorNickname: replyNickname.String,
			}
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// PurgeOlderThan hard-deletes chat messages created before the cutoff,
// expired and soft-deleted alike. Returns the number of rows removed.
func (r *Repository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM chat_messages WHERE created_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("purge chat messages: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}
