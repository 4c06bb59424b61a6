package users

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikaiya/kikaiya-web/internal/auth"
	"github.com/kikaiya/kikaiya-web/internal/rbac"
)

type headerIdentities struct{}

// FromRequest reads the test caller from X-Test-User and X-Test-Role.
func (headerIdentities) FromRequest(r *http.Request) *auth.Identity {
	id := r.Header.Get("X-Test-User")
	if id == "" {
		return nil
	}
	return &auth.Identity{ID: id, Email: id + "@kikaiya.example", Role: r.Header.Get("X-Test-Role"), IsActive: true}
}

func newUsersRouter(repo RepositoryPort) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mw := rbac.Middleware{Gate: rbac.NewGate(nil), Identities: headerIdentities{}}
	r := chi.NewRouter()
	r.Route("/api/admin/users", NewHandler(logger, newTestService(repo, nil), mw).MountRoutes)
	return r
}

func call(h http.Handler, method, target, body, user, role string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if user != "" {
		req.Header.Set("X-Test-User", user)
		req.Header.Set("X-Test-Role", role)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestUsersHandlerPermissions(t *testing.T) {
	repo := newMemoryRepo(User{ID: "u-2", Email: "b@kikaiya.example", Role: "viewer", IsActive: true})
	h := newUsersRouter(repo)

	assert.Equal(t, http.StatusUnauthorized, call(h, http.MethodGet, "/api/admin/users", "", "", "").Code)
	assert.Equal(t, http.StatusForbidden, call(h, http.MethodGet, "/api/admin/users", "", "e-1", "editor").Code)
	assert.Equal(t, http.StatusForbidden, call(h, http.MethodDelete, "/api/admin/users/u-2", "", "v-1", "viewer").Code)

	rec := call(h, http.MethodGet, "/api/admin/users?page=1&per_page=10", "", "admin-1", "admin")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Users []User `json:"users"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Users, 1)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestUsersHandlerCreate(t *testing.T) {
	h := newUsersRouter(newMemoryRepo())
	payload := `{"email":"new@kikaiya.example","name":"New","password":"supersecret","role":"editor"}`

	rec := call(h, http.MethodPost, "/api/admin/users", payload, "admin-1", "admin")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"role":"editor"`)

	rec = call(h, http.MethodPost, "/api/admin/users", payload, "admin-1", "admin")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = call(h, http.MethodPost, "/api/admin/users", `{"email":"bad","name":"","password":"x","role":"editor"}`, "admin-1", "admin")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"fields"`)

	rec = call(h, http.MethodPost, "/api/admin/users", `{"email":"x@kikaiya.example","name":"X","password":"supersecret","role":"owner"}`, "admin-1", "admin")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUsersHandlerMutations(t *testing.T) {
	repo := newMemoryRepo(
		User{ID: "admin-1", Email: "a@kikaiya.example", Role: "admin", IsActive: true},
		User{ID: "u-2", Email: "b@kikaiya.example", Role: "viewer", IsActive: true},
	)
	h := newUsersRouter(repo)

	rec := call(h, http.MethodPatch, "/api/admin/users/u-2/role", `{"role":"editor"}`, "admin-1", "admin")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "editor", repo.users["u-2"].Role)

	rec = call(h, http.MethodPatch, "/api/admin/users/u-2/status", `{"isActive":false}`, "admin-1", "admin")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, repo.users["u-2"].IsActive)

	rec = call(h, http.MethodPatch, "/api/admin/users/u-2/status", `{}`, "admin-1", "admin")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(h, http.MethodPatch, "/api/admin/users/admin-1/status", `{"isActive":false}`, "admin-1", "admin")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = call(h, http.MethodDelete, "/api/admin/users/admin-1", "", "admin-1", "admin")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(h, http.MethodDelete, "/api/admin/users/u-2", "", "admin-1", "admin")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = call(h, http.MethodDelete, "/api/admin/users/u-2", "", "admin-1", "admin")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
