package notification

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"forumhub/internal/apperr"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, n *Notification) error {
	n.ID = uuid.NewString()

	metadata := []byte("{}")
	if n.Metadata != nil {
		var err error
		metadata, err = json.Marshal(n.Metadata)
		if err != nil {
			return apperr.Internal(fmt.Errorf("marshal notification metadata: %w", err))
		}
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO notifications (id, user_id, type, title, message, action_url, related_post_id, related_comment_id, related_user_id, metadata)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), $10)
		RETURNING created_at`,
		n.ID, n.UserID, n.Type, n.Title, n.Message,
		n.ActionURL, n.RelatedPostID, n.RelatedCommentID, n.RelatedUserID, metadata,
	).Scan(&n.CreatedAt)
	if err != nil {
		return apperr.Internal(fmt.Errorf("insert notification: %w", err))
	}
	return nil
}

// GetSettings returns the user's settings row, creating the all-on default
// row on first access.
func (r *Repository) GetSettings(ctx context.Context, userID string) (*Settings, error) {
	s := &Settings{UserID: userID}
	err := r.db.QueryRowContext(ctx, `
		SELECT post_replies, comment_replies, post_likes, comment_likes, mentions,
		       administrative, private_messages, email_notifications, push_notifications
		FROM notification_settings WHERE user_id = $1`, userID,
	).Scan(&s.PostReplies, &s.CommentReplies, &s.PostLikes, &s.CommentLikes, &s.Mentions,
		&s.Administrative, &s.PrivateMessages, &s.EmailNotifications, &s.PushNotifications)
	if errors.Is(err, sql.ErrNoRows) {
		return r.createDefaultSettings(ctx, userID)
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("get notification settings: %w", err))
	}
	return s, nil
}

func (r *Repository) createDefaultSettings(ctx context.Context, userID string) (*Settings, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notification_settings (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("create default notification settings: %w", err))
	}
	return DefaultSettings(userID), nil
}

func (r *Repository) UpdateSettings(ctx context.Context, userID string, update *SettingsUpdate) (*Settings, error) {
	s, err := r.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	update.applyTo(s)

	_, err = r.db.ExecContext(ctx, `
		UPDATE notification_settings SET
			post_replies = $2, comment_replies = $3, post_likes = $4, comment_likes = $5,
			mentions = $6, administrative = $7, private_messages = $8,
			email_notifications = $9, push_notifications = $10, updated_at = NOW()
		WHERE user_id = $1`,
		userID, s.PostReplies, s.CommentReplies, s.PostLikes, s.CommentLikes,
		s.Mentions, s.Administrative, s.PrivateMessages, s.EmailNotifications, s.PushNotifications)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("update notification settings: %w", err))
	}
	return s, nil
}

func (r *Repository) List(ctx context.Context, userID string, limit, offset int, unreadOnly bool) ([]*Notification, error) {
	query := `
		SELECT id, user_id, type, title, message,
		       COALESCE(action_url, ''), COALESCE(related_post_id::text, ''),
		       COALESCE(related_comment_id::text, ''), COALESCE(related_user_id::text, ''),
		       COALESCE(metadata, 'null'), is_read, created_at
		FROM notifications
		WHERE user_id = $1`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list notifications: %w", err))
	}
	defer rows.Close()

	notifications := make([]*Notification, 0)
	for rows.Next() {
		n := &Notification{}
		var metadata []byte
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message,
			&n.ActionURL, &n.RelatedPostID, &n.RelatedCommentID, &n.RelatedUserID,
			&metadata, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, apperr.Internal(fmt.Errorf("scan notification: %w", err))
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
				return nil, apperr.Internal(fmt.Errorf("unmarshal notification metadata: %w", err))
			}
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *Repository) MarkRead(ctx context.Context, notificationID, userID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE id = $1 AND user_id = $2`, notificationID, userID)
	if err != nil {
		return apperr.Internal(fmt.Errorf("mark notification read: %w", err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperr.Internal(fmt.Errorf("mark notification read: %w", err))
	}
	if affected == 0 {
		return apperr.NotFound("notification not found")
	}
	return nil
}

func (r *Repository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return 0, apperr.Internal(fmt.Errorf("mark all notifications read: %w", err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, apperr.Internal(fmt.Errorf("mark all notifications read: %w", err))
	}
	return affected, nil
}

func (r *Repository) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE user_id = $1 AND is_read = FALSE`, userID).Scan(&count)
	if err != nil {
		return 0, apperr.Internal(fmt.Errorf("count unread notifications: %w", err))
	}
	return count, nil
}
