package users

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kikaiya/kikaiya-web/internal/platform/httpx"
	"github.com/kikaiya/kikaiya-web/internal/shared"
)

type memoryRepo struct {
	mu     sync.Mutex
	users  map[string]User
	hashes map[string]string
}

func newMemoryRepo(seed ...User) *memoryRepo {
	repo := &memoryRepo{users: map[string]User{}, hashes: map[string]string{}}
	for _, u := range seed {
		repo.users[u.ID] = u
	}
	return repo
}

func (m *memoryRepo) ListUsers(ctx context.Context, limit, offset int) ([]User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]User, 0, len(m.users))
	for _, u := range m.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (m *memoryRepo) CreateUser(ctx context.Context, in NewUser) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, in.Email) {
			return User{}, ErrDuplicateEmail
		}
	}
	now := time.Now()
	u := User{ID: in.ID, Email: in.Email, Name: in.Name, Role: in.Role, IsActive: true, CreatedAt: now, UpdatedAt: now}
	m.users[u.ID] = u
	m.hashes[u.ID] = in.PasswordHash
	return u, nil
}

func (m *memoryRepo) UpdateRole(ctx context.Context, id, role string) (User, error) {
	return m.update(id, func(u *User) { u.Role = role })
}

func (m *memoryRepo) SetActive(ctx context.Context, id string, active bool) (User, error) {
	return m.update(id, func(u *User) { u.IsActive = active })
}

func (m *memoryRepo) DeleteUser(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memoryRepo) update(id string, fn func(*User)) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, httpx.ErrNotFound
	}
	fn(&u)
	m.users[id] = u
	return u, nil
}

type memoryActivity struct {
	mu      sync.Mutex
	entries []shared.ActivityLog
}

func (a *memoryActivity) Record(ctx context.Context, log shared.ActivityLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, log)
	return nil
}

func (a *memoryActivity) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

func newTestService(repo RepositoryPort, activity shared.ActivityRecorder) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, nil, activity, logger, WithHashCost(bcrypt.MinCost))
}

func TestCreateUser(t *testing.T) {
	repo := newMemoryRepo()
	activity := &memoryActivity{}
	svc := newTestService(repo, activity)

	user, err := svc.CreateUser(context.Background(), "admin-1", CreateInput{
		Email:    "  Editor@Kikaiya.Example ",
		Name:     " Editor ",
		Password: "supersecret",
		Role:     "Editor",
	})
	require.NoError(t, err)

	_, err = uuid.Parse(user.ID)
	assert.NoError(t, err)
	assert.Equal(t, "editor@kikaiya.example", user.Email)
	assert.Equal(t, "Editor", user.Name)
	assert.Equal(t, "editor", user.Role)
	assert.True(t, user.IsActive)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.hashes[user.ID]), []byte("supersecret")))
	assert.Equal(t, []string{"user.create"}, activity.actions())

	_, err = svc.CreateUser(context.Background(), "admin-1", CreateInput{Email: "editor@kikaiya.example", Name: "Dup", Password: "supersecret", Role: "viewer"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestCreateUserRejectsUnknownRole(t *testing.T) {
	svc := newTestService(newMemoryRepo(), nil)
	for _, role := range []string{"superuser", "user", ""} {
		_, err := svc.CreateUser(context.Background(), "", CreateInput{Email: "x@kikaiya.example", Name: "X", Password: "supersecret", Role: role})
		assert.ErrorIs(t, err, ErrUnknownRole, role)
	}
}

func TestSelfModificationBlocked(t *testing.T) {
	repo := newMemoryRepo(User{ID: "admin-1", Email: "a@kikaiya.example", Role: "admin", IsActive: true})
	svc := newTestService(repo, nil)
	ctx := context.Background()

	_, err := svc.ChangeRole(ctx, "admin-1", "admin-1", "viewer")
	assert.ErrorIs(t, err, ErrSelfModification)
	_, err = svc.SetActive(ctx, "admin-1", "admin-1", false)
	assert.ErrorIs(t, err, ErrSelfModification)
	err = svc.DeleteUser(ctx, "admin-1", "admin-1")
	assert.ErrorIs(t, err, ErrSelfModification)

	assert.Equal(t, "admin", repo.users["admin-1"].Role)
	assert.True(t, repo.users["admin-1"].IsActive)
}

func TestManageOtherAccounts(t *testing.T) {
	repo := newMemoryRepo(
		User{ID: "admin-1", Email: "a@kikaiya.example", Role: "admin", IsActive: true},
		User{ID: "u-2", Email: "b@kikaiya.example", Role: "viewer", IsActive: true},
	)
	activity := &memoryActivity{}
	svc := newTestService(repo, activity)
	ctx := context.Background()

	user, err := svc.ChangeRole(ctx, "admin-1", "u-2", " EDITOR ")
	require.NoError(t, err)
	assert.Equal(t, "editor", user.Role)

	_, err = svc.ChangeRole(ctx, "admin-1", "u-2", "owner")
	assert.ErrorIs(t, err, ErrUnknownRole)

	user, err = svc.SetActive(ctx, "admin-1", "u-2", false)
	require.NoError(t, err)
	assert.False(t, user.IsActive)

	require.NoError(t, svc.DeleteUser(ctx, "admin-1", "u-2"))
	assert.ErrorIs(t, svc.DeleteUser(ctx, "admin-1", "u-2"), httpx.ErrNotFound)

	assert.Equal(t, []string{"user.role", "user.status", "user.delete"}, activity.actions())
}

func TestListUsersPaginates(t *testing.T) {
	var seed []User
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		seed = append(seed, User{ID: id, Email: id + "@kikaiya.example", Role: "viewer", IsActive: true})
	}
	svc := newTestService(newMemoryRepo(seed...), nil)

	users, page, err := svc.ListUsers(context.Background(), 2, 2)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "c", users[0].ID)
	assert.Equal(t, shared.Pagination{Page: 2, PerPage: 2, Total: 5, TotalPages: 3}, page)

	_, page, err = svc.ListUsers(context.Background(), 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, shared.MaxPerPage, page.PerPage)
}
