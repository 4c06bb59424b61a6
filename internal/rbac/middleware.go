package rbac

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/kikaiya/kikaiya-web/internal/auth"
	"github.com/kikaiya/kikaiya-web/internal/platform/httpx"
)

// IdentitySource resolves the caller of a request.
type IdentitySource interface {
	FromRequest(r *http.Request) *auth.Identity
}

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Gate       *Gate
	Identities IdentitySource
	Logger     *slog.Logger
}

// RequirePermission ensures the current user's role grants key.
func (m Middleware) RequirePermission(key string) func(http.Handler) http.Handler {
	m.warnUnknown(key)
	return m.require(RequirePermission(key))
}

// RequireRoles ensures the current user holds one of roles.
func (m Middleware) RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return m.require(RequireRoles(roles...))
}

// RequireAny ensures the current user has at least one of the required permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	m.warnUnknown(normalized...)
	return m.guard(strings.Join(normalized, "|"), func(id *auth.Identity) bool {
		for _, p := range normalized {
			if m.Gate.Check(id, RequirePermission(p)) {
				return true
			}
		}
		return false
	})
}

// RequireAll ensures the current user has all required permissions.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	m.warnUnknown(normalized...)
	return m.guard(strings.Join(normalized, "&"), func(id *auth.Identity) bool {
		if len(normalized) == 0 {
			return false
		}
		for _, p := range normalized {
			if !m.Gate.Check(id, RequirePermission(p)) {
				return false
			}
		}
		return true
	})
}

func (m Middleware) require(req Requirement) func(http.Handler) http.Handler {
	return m.guard(req.String(), func(id *auth.Identity) bool {
		return m.Gate.Check(id, req)
	})
}

func (m Middleware) guard(label string, allowed func(*auth.Identity) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := m.Identities.FromRequest(r)
			if id == nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if !allowed(id) {
				if m.Logger != nil {
					m.Logger.Info("rbac denied", slog.String("user_id", id.ID), slog.String("role", id.Role), slog.String("requirement", label), slog.String("path", r.URL.Path))
				}
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// warnUnknown logs route requirements naming keys outside the catalog; such
// routes are closed to every role.
func (m Middleware) warnUnknown(keys ...string) {
	if m.Gate == nil || m.Logger == nil {
		return
	}
	for _, key := range keys {
		if _, ok := m.Gate.catalog.Lookup(key); !ok {
			m.Logger.Warn("rbac requirement names unknown permission", slog.String("permission", key))
		}
	}
}

func normalizePermissions(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	normalized := make([]string, 0, len(perms))
	for _, p := range perms {
		p = normalizeKey(p)
		if p == "" {
			continue
		}
		if _, ok := unique[p]; ok {
			continue
		}
		unique[p] = struct{}{}
		normalized = append(normalized, p)
	}
	return normalized
}
