package roles

import (
	"context"
	"strings"

	"github.com/kikaiya/kikaiya-web/internal/rbac"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	CountByRole(ctx context.Context) (map[string]int, error)
}

// Service handles role business logic.
type Service struct {
	repo    RepositoryPort
	catalog *rbac.Catalog
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, catalog *rbac.Catalog) *Service {
	if catalog == nil {
		catalog = rbac.Default()
	}
	return &Service{repo: repo, catalog: catalog}
}

// ListRoles returns catalog roles in catalog order with member counts.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	counts, err := s.repo.CountByRole(ctx)
	if err != nil {
		return nil, err
	}
	grants := s.catalog.Roles()
	roles := make([]Role, 0, len(grants))
	for _, g := range grants {
		roles = append(roles, Role{
			Name:        g.Name,
			Description: g.Description,
			Permissions: g.Permissions,
			UserCount:   counts[strings.ToLower(g.Name)],
		})
	}
	return roles, nil
}
