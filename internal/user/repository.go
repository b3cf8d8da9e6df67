package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"forumhub/internal/apperr"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `
	u.id, u.nickname, u.name, u.email, u.password, u.is_active, u.created_at,
	r.id, r.name, r.display_name, r.level, COALESCE(r.color, ''),
	r.can_post, r.can_comment, r.can_like, r.can_moderate
`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	u := &User{}
	err := row.Scan(
		&u.ID, &u.Nickname, &u.Name, &u.Email, &u.Password, &u.IsActive, &u.CreatedAt,
		&u.Role.ID, &u.Role.Name, &u.Role.DisplayName, &u.Role.Level, &u.Role.Color,
		&u.Role.Permissions.CanPost, &u.Role.Permissions.CanComment,
		&u.Role.Permissions.CanLike, &u.Role.Permissions.CanModerate,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Repository) CreateUser(ctx context.Context, u *User) (*User, error) {
	u.ID = uuid.NewString()
	query := `
		INSERT INTO users (id, nickname, name, email, password, role_id)
		VALUES ($1, $2, $3, $4, $5, (SELECT id FROM roles WHERE name = 'member'))
	`
	if _, err := r.db.ExecContext(ctx, query, u.ID, u.Nickname, u.Name, u.Email, u.Password); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *Repository) GetByNickname(ctx context.Context, nickname string) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u
		JOIN roles r ON u.role_id = r.id
		WHERE u.nickname = $1
	`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, nickname))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user by nickname: %w", err)
	}
	return u, nil
}

// GetActiveByID resolves a user with its role and permission flags. Inactive
// accounts are reported as not found so callers treat them like absent users.
func (r *Repository) GetActiveByID(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u
		JOIN roles r ON u.role_id = r.id
		WHERE u.id = $1 AND u.is_active = TRUE
	`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user not found or inactive")
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// FindActiveByNicknames resolves mention tokens to users. Unknown nicknames
// are silently dropped; the match is case-sensitive.
func (r *Repository) FindActiveByNicknames(ctx context.Context, nicknames []string) ([]*User, error) {
	if len(nicknames) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(nicknames))
	args := make([]any, len(nicknames))
	for i, n := range nicknames {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = n
	}

	query := `
		SELECT ` + userColumns + `
		FROM users u
		JOIN roles r ON u.role_id = r.id
		WHERE u.nickname IN (` + strings.Join(placeholders, ", ") + `) AND u.is_active = TRUE
	`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find users by nicknames: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
