package rbac

import (
	"strings"

	"github.com/kikaiya/kikaiya-web/internal/auth"
)

// Requirement is either a permission key or a set of acceptable roles.
type Requirement struct {
	permission string
	roles      []string
}

// RequirePermission demands that the identity's role grants key.
func RequirePermission(key string) Requirement {
	return Requirement{permission: normalizeKey(key)}
}

// RequireRoles demands that the identity holds one of roles.
func RequireRoles(roles ...string) Requirement {
	set := make([]string, 0, len(roles))
	for _, r := range roles {
		if r = normalizeKey(r); r != "" {
			set = append(set, r)
		}
	}
	return Requirement{roles: set}
}

// IsZero reports whether the requirement names nothing.
func (r Requirement) IsZero() bool {
	return r.permission == "" && len(r.roles) == 0
}

func (r Requirement) String() string {
	if r.permission != "" {
		return "permission:" + r.permission
	}
	return "roles:" + strings.Join(r.roles, ",")
}

// Gate decides whether an identity satisfies a requirement.
type Gate struct {
	catalog *Catalog
}

// NewGate builds a gate over catalog, using Default when nil.
func NewGate(catalog *Catalog) *Gate {
	if catalog == nil {
		catalog = Default()
	}
	return &Gate{catalog: catalog}
}

// Check returns true only for an active identity meeting req. A zero
// requirement is denied.
func (g *Gate) Check(id *auth.Identity, req Requirement) bool {
	if id == nil || !id.IsActive || req.IsZero() {
		return false
	}
	role := normalizeKey(id.Role)
	if req.permission != "" {
		return g.catalog.hasGrant(role, req.permission)
	}
	for _, r := range req.roles {
		if r == role {
			return true
		}
	}
	return false
}

// Permissions lists the keys granted to the identity's role.
func (g *Gate) Permissions(id *auth.Identity) []string {
	if id == nil || !id.IsActive {
		return nil
	}
	return g.catalog.RolePermissions(id.Role)
}
