package user

import "time"

// Permissions is the flag set captured from the user's role. The realtime
// layer snapshots it at handshake time and does not refresh it mid-session.
type Permissions struct {
	CanPost     bool `json:"can_post"`
	CanComment  bool `json:"can_comment"`
	CanLike     bool `json:"can_like"`
	CanModerate bool `json:"can_moderate"`
}

type Role struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	DisplayName string      `json:"display_name"`
	Level       int         `json:"level"`
	Color       string      `json:"color"`
	Permissions Permissions `json:"permissions"`
}

type User struct {
	ID        string    `json:"id"`
	Nickname  string    `json:"nickname"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type RegisterRequest struct {
	Nickname string `json:"nickname"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ID          string `json:"id"`
	Nickname    string `json:"nickname"`
}
