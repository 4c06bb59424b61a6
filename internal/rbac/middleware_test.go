package rbac

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikaiya/kikaiya-web/internal/auth"
)

type staticIdentities struct {
	id *auth.Identity
}

func (s staticIdentities) FromRequest(*http.Request) *auth.Identity {
	return s.id
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestMiddlewareRequirePermission(t *testing.T) {
	tests := []struct {
		name string
		id   *auth.Identity
		want int
		body string
	}{
		{name: "anonymous", id: nil, want: http.StatusUnauthorized, body: `{"error":"Unauthorized"}`},
		{name: "viewer", id: identityWithRole("viewer"), want: http.StatusForbidden, body: `{"error":"Forbidden"}`},
		{name: "admin", id: identityWithRole("admin"), want: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := Middleware{Gate: NewGate(nil), Identities: staticIdentities{id: tt.id}}
			rec := httptest.NewRecorder()
			mw.RequirePermission(PermUsersDelete)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/admin/users/1", nil))
			assert.Equal(t, tt.want, rec.Code)
			if tt.body != "" {
				assert.JSONEq(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestMiddlewareAnyAll(t *testing.T) {
	mw := Middleware{Gate: NewGate(nil), Identities: staticIdentities{id: identityWithRole("editor")}}
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	rec := httptest.NewRecorder()
	mw.RequireAny(PermUsersView, PermContentEdit)(okHandler()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	mw.RequireAll(PermUsersView, PermContentEdit)(okHandler()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	mw.RequireAll(" CONTENT.EDIT ", PermContentView)(okHandler()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	mw.RequireRoles(auth.RoleAdmin)(okHandler()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPermissionsHandler(t *testing.T) {
	catalog := Default()
	for _, tt := range []struct {
		role string
		want int
	}{
		{role: "admin", want: http.StatusOK},
		{role: "editor", want: http.StatusForbidden},
	} {
		t.Run(tt.role, func(t *testing.T) {
			mw := Middleware{Gate: NewGate(catalog), Identities: staticIdentities{id: identityWithRole(tt.role)}}
			r := chi.NewRouter()
			r.Route("/api/admin/permissions", NewPermissionsHandler(catalog, mw).MountRoutes)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/permissions", nil))
			require.Equal(t, tt.want, rec.Code)
			if tt.want != http.StatusOK {
				return
			}
			var body struct {
				Categories []PermissionGroup `json:"categories"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, catalog.Categories(), body.Categories)
		})
	}
}

func TestMiddlewareWarnsOnUnknownPermission(t *testing.T) {
	var buf bytes.Buffer
	mw := Middleware{Gate: NewGate(nil), Identities: staticIdentities{id: identityWithRole("admin")}, Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	mw.RequirePermission(PermUsersView)
	mw.RequireAny(PermUsersView, PermContentEdit)
	assert.Empty(t, buf.String())

	handler := mw.RequirePermission("users.fly")(okHandler())
	assert.Contains(t, buf.String(), "unknown permission")
	assert.Contains(t, buf.String(), "users.fly")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
