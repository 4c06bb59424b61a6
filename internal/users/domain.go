package users

import (
	"fmt"
	"time"

	"github.com/kikaiya/kikaiya-web/internal/platform/httpx"
)

// User represents an admin account for management. The password hash never
// leaves the repository layer through this type.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewUser carries the fields persisted for a fresh account.
type NewUser struct {
	ID           string
	Email        string
	Name         string
	Role         string
	PasswordHash string
}

// CreateInput is the request to create an account.
type CreateInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Name     string `json:"name" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required"`
}

var (
	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = fmt.Errorf("%w: email already registered", httpx.ErrDuplicate)
	// ErrUnknownRole is returned for roles missing from the catalog.
	ErrUnknownRole = fmt.Errorf("%w: unknown role", httpx.ErrValidation)
	// ErrSelfModification blocks admins from changing their own account.
	ErrSelfModification = fmt.Errorf("%w: you cannot modify your own account", httpx.ErrValidation)
)
