package shared

import (
	"errors"

	"github.com/kikaiya/kikaiya-web/internal/platform/httpx"
)

// ErrInvalidCredentials indicates login failure.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserSafeMessage returns a message suitable for API clients.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, httpx.ErrNotFound):
		return "Not found"
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid credentials"
	default:
		return "Something went wrong, please try again"
	}
}
