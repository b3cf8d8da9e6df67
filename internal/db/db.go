package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type Database struct {
	Conn *sql.DB
}

func NewDatabase(dsn string) (*Database, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(25)
	conn.SetConnMaxLifetime(5 * time.Minute)
	return &Database{Conn: conn}, nil
}

func (d *Database) AutoMigrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS roles (
            id SERIAL PRIMARY KEY,
            name VARCHAR(50) UNIQUE NOT NULL,
            display_name VARCHAR(100) NOT NULL,
            level INT NOT NULL DEFAULT 0,
            color VARCHAR(20),
            can_post BOOLEAN NOT NULL DEFAULT TRUE,
            can_comment BOOLEAN NOT NULL DEFAULT TRUE,
            can_like BOOLEAN NOT NULL DEFAULT TRUE,
            can_moderate BOOLEAN NOT NULL DEFAULT FALSE
        )`,

		`CREATE TABLE IF NOT EXISTS users (
            id UUID PRIMARY KEY,
            nickname VARCHAR(50) UNIQUE NOT NULL,
            name VARCHAR(100) NOT NULL DEFAULT '',
            email VARCHAR(255) UNIQUE NOT NULL,
            password VARCHAR(255) NOT NULL,
            role_id INT NOT NULL REFERENCES roles(id),
            is_active BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,

		`CREATE TABLE IF NOT EXISTS chat_messages (
            id UUID PRIMARY KEY,
            author_id UUID NOT NULL REFERENCES users(id),
            content TEXT NOT NULL,
            reply_to UUID REFERENCES chat_messages(id) ON DELETE SET NULL,
            mentions JSONB NOT NULL DEFAULT '[]',
            is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_chat_messages_created_at ON chat_messages(created_at)`,

		`CREATE TABLE IF NOT EXISTS conversations (
            id UUID PRIMARY KEY,
            participant_1 UUID NOT NULL REFERENCES users(id),
            participant_2 UUID NOT NULL REFERENCES users(id),
            last_message_id UUID,
            last_message_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE (participant_1, participant_2)
        )`,

		`CREATE TABLE IF NOT EXISTS private_messages (
            id UUID PRIMARY KEY,
            sender_id UUID NOT NULL REFERENCES users(id),
            recipient_id UUID NOT NULL REFERENCES users(id),
            content TEXT NOT NULL,
            reply_to UUID REFERENCES private_messages(id),
            is_read BOOLEAN NOT NULL DEFAULT FALSE,
            read_at TIMESTAMPTZ,
            is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_private_messages_recipient ON private_messages(recipient_id, is_read)`,

		`CREATE TABLE IF NOT EXISTS notifications (
            id UUID PRIMARY KEY,
            user_id UUID NOT NULL REFERENCES users(id),
            type VARCHAR(30) NOT NULL,
            title VARCHAR(255) NOT NULL,
            message TEXT NOT NULL,
            action_url VARCHAR(255),
            related_post_id UUID,
            related_comment_id UUID,
            related_user_id UUID,
            metadata JSONB NOT NULL DEFAULT '{}',
            is_read BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, is_read)`,

		`CREATE TABLE IF NOT EXISTS notification_settings (
            user_id UUID PRIMARY KEY REFERENCES users(id),
            post_replies BOOLEAN NOT NULL DEFAULT TRUE,
            comment_replies BOOLEAN NOT NULL DEFAULT TRUE,
            post_likes BOOLEAN NOT NULL DEFAULT TRUE,
            comment_likes BOOLEAN NOT NULL DEFAULT TRUE,
            mentions BOOLEAN NOT NULL DEFAULT TRUE,
            administrative BOOLEAN NOT NULL DEFAULT TRUE,
            private_messages BOOLEAN NOT NULL DEFAULT TRUE,
            email_notifications BOOLEAN NOT NULL DEFAULT TRUE,
            push_notifications BOOLEAN NOT NULL DEFAULT TRUE,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,

		`INSERT INTO roles (name, display_name, level, color, can_post, can_comment, can_like, can_moderate)
         VALUES
            ('member', 'Member', 1, '#9e9e9e', TRUE, TRUE, TRUE, FALSE),
            ('moderator', 'Moderator', 50, '#2196f3', TRUE, TRUE, TRUE, TRUE),
            ('admin', 'Administrator', 100, '#f44336', TRUE, TRUE, TRUE, TRUE)
         ON CONFLICT (name) DO NOTHING`,
	}

	for _, query := range queries {
		_, err := d.Conn.Exec(query)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

func (d *Database) Close() error {
	return d.Conn.Close()
}
