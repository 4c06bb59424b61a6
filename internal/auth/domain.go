package auth

import (
	"strings"
	"time"
)

// Role tags carried in session tokens.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
	RoleUser   = "user"
)

// DefaultName is used when a user record carries no display name.
const DefaultName = "User"

// User represents an account as stored for credential checks.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity returns the token payload for the user.
func (u User) Identity() Identity {
	return Identity{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Role:     u.Role,
		IsActive: u.IsActive,
	}
}

// Identity is the verified caller as carried by the session token.
type Identity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	IsActive bool   `json:"isActive"`
}

// Complete reports whether the identity carries both a subject and an email.
func (i Identity) Complete() bool {
	return strings.TrimSpace(i.ID) != "" && strings.TrimSpace(i.Email) != ""
}

func (i Identity) normalized() Identity {
	if strings.TrimSpace(i.Name) == "" {
		i.Name = DefaultName
	}
	if strings.TrimSpace(i.Role) == "" {
		i.Role = RoleUser
	}
	return i
}
