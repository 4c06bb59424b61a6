package users

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kikaiya/kikaiya-web/internal/rbac"
	"github.com/kikaiya/kikaiya-web/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, limit, offset int) ([]User, int, error)
	CreateUser(ctx context.Context, in NewUser) (User, error)
	UpdateRole(ctx context.Context, id, role string) (User, error)
	SetActive(ctx context.Context, id string, active bool) (User, error)
	DeleteUser(ctx context.Context, id string) error
}

// Service handles user business logic.
type Service struct {
	repo     RepositoryPort
	catalog  *rbac.Catalog
	activity shared.ActivityRecorder
	logger   *slog.Logger
	hashCost int
}

// Option customises a Service.
type Option func(*Service)

// WithHashCost sets the bcrypt cost used for new passwords.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, catalog *rbac.Catalog, activity shared.ActivityRecorder, logger *slog.Logger, opts ...Option) *Service {
	if catalog == nil {
		catalog = rbac.Default()
	}
	if activity == nil {
		activity = shared.NopActivityRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{repo: repo, catalog: catalog, activity: activity, logger: logger, hashCost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListUsers returns one page of users.
func (s *Service) ListUsers(ctx context.Context, page, perPage int) ([]User, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	users, total, err := s.repo.ListUsers(ctx, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return users, shared.NewPagination(p.Page, p.PerPage, total), nil
}

// CreateUser hashes the password and stores a new active account. An empty
// actorID marks a system action such as the bootstrap CLI.
func (s *Service) CreateUser(ctx context.Context, actorID string, in CreateInput) (User, error) {
	role := strings.ToLower(strings.TrimSpace(in.Role))
	if !s.catalog.IsRole(role) {
		return User{}, ErrUnknownRole
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.repo.CreateUser(ctx, NewUser{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Name:         strings.TrimSpace(in.Name),
		Role:         role,
		PasswordHash: string(hash),
	})
	if err != nil {
		return User{}, err
	}
	s.record(ctx, actorID, "user.create", user.ID, map[string]any{"email": user.Email, "role": user.Role})
	return user, nil
}

// ChangeRole assigns a catalog role to another account.
func (s *Service) ChangeRole(ctx context.Context, actorID, id, role string) (User, error) {
	if actorID == id {
		return User{}, ErrSelfModification
	}
	role = strings.ToLower(strings.TrimSpace(role))
	if !s.catalog.IsRole(role) {
		return User{}, ErrUnknownRole
	}
	user, err := s.repo.UpdateRole(ctx, id, role)
	if err != nil {
		return User{}, err
	}
	s.record(ctx, actorID, "user.role", id, map[string]any{"role": role})
	return user, nil
}

// SetActive activates or deactivates another account. Tokens already issued
// to a deactivated account stay valid until they expire.
func (s *Service) SetActive(ctx context.Context, actorID, id string, active bool) (User, error) {
	if actorID == id {
		return User{}, ErrSelfModification
	}
	user, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return User{}, err
	}
	s.record(ctx, actorID, "user.status", id, map[string]any{"isActive": active})
	return user, nil
}

// DeleteUser removes another account.
func (s *Service) DeleteUser(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return ErrSelfModification
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, "user.delete", id, nil)
	return nil
}

func (s *Service) record(ctx context.Context, actorID, action, id string, meta map[string]any) {
	err := s.activity.Record(ctx, shared.ActivityLog{ActorID: actorID, Action: action, Entity: "user", EntityID: id, Meta: meta})
	if err != nil {
		s.logger.Warn("record activity", slog.String("action", action), slog.Any("error", err))
	}
}
