package model

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the authenticated principal.
type User struct {
	ID           string    `json:"id"`
	Login        string    `json:"login"`
	GithubID     *string   `json:"github_id,omitempty"`
	PasswordHash string    `json:"-"` // Not exposed
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	LastLoginAt  time.Time `json:"last_login_at"`
}

func (u *User) Role() string {
	if u.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}
