package rbac

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kikaiya/kikaiya-web/internal/auth"
)

const adminRole = auth.RoleAdmin

// ErrInvalidCatalog is returned when permissions and role grants disagree.
var ErrInvalidCatalog = errors.New("rbac: invalid catalog")

// Catalog is the immutable permission vocabulary and role mapping.
type Catalog struct {
	permissions []Permission
	index       map[string]int
	roles       []RoleGrant
	grants      map[string]map[string]struct{}
}

// NewCatalog builds and validates a catalog. Inputs are copied.
func NewCatalog(perms []Permission, roles []RoleGrant) (*Catalog, error) {
	c := &Catalog{
		permissions: make([]Permission, len(perms)),
		index:       make(map[string]int, len(perms)),
		roles:       make([]RoleGrant, 0, len(roles)),
		grants:      make(map[string]map[string]struct{}, len(roles)),
	}
	copy(c.permissions, perms)
	for i, p := range c.permissions {
		c.index[normalizeKey(p.Key)] = i
	}
	for _, role := range roles {
		keys := append([]string(nil), role.Permissions...)
		c.roles = append(c.roles, RoleGrant{Name: role.Name, Description: role.Description, Permissions: keys})
		set := make(map[string]struct{}, len(keys))
		for _, k := range keys {
			set[normalizeKey(k)] = struct{}{}
		}
		c.grants[normalizeKey(role.Name)] = set
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the built-in catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := NewCatalog(defaultPermissions, defaultRoles())
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Validate checks key uniqueness, grant references and that admin holds
// every permission granted to any other role.
func (c *Catalog) Validate() error {
	seen := make(map[string]struct{}, len(c.permissions))
	for _, p := range c.permissions {
		key := normalizeKey(p.Key)
		if key == "" {
			return fmt.Errorf("%w: empty permission key", ErrInvalidCatalog)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: duplicate permission %q", ErrInvalidCatalog, p.Key)
		}
		seen[key] = struct{}{}
	}
	roles := make(map[string]struct{}, len(c.roles))
	for _, role := range c.roles {
		name := normalizeKey(role.Name)
		if name == "" {
			return fmt.Errorf("%w: empty role name", ErrInvalidCatalog)
		}
		if _, dup := roles[name]; dup {
			return fmt.Errorf("%w: duplicate role %q", ErrInvalidCatalog, role.Name)
		}
		roles[name] = struct{}{}
		for _, k := range role.Permissions {
			if _, ok := seen[normalizeKey(k)]; !ok {
				return fmt.Errorf("%w: role %q grants unknown permission %q", ErrInvalidCatalog, role.Name, k)
			}
		}
	}
	admin, ok := c.grants[adminRole]
	if !ok {
		return fmt.Errorf("%w: missing %s role", ErrInvalidCatalog, adminRole)
	}
	for name, set := range c.grants {
		for k := range set {
			if _, ok := admin[k]; !ok {
				return fmt.Errorf("%w: %s lacks %q granted to %s", ErrInvalidCatalog, adminRole, k, name)
			}
		}
	}
	return nil
}

// Permissions returns every descriptor in catalog order.
func (c *Catalog) Permissions() []Permission {
	out := make([]Permission, len(c.permissions))
	copy(out, c.permissions)
	return out
}

// Categories groups descriptors by category, keeping first-seen order.
func (c *Catalog) Categories() []PermissionGroup {
	var groups []PermissionGroup
	pos := make(map[string]int)
	for _, p := range c.permissions {
		i, ok := pos[p.Category]
		if !ok {
			i = len(groups)
			pos[p.Category] = i
			groups = append(groups, PermissionGroup{Category: p.Category})
		}
		groups[i].Permissions = append(groups[i].Permissions, p)
	}
	return groups
}

// Lookup finds a descriptor by key.
func (c *Catalog) Lookup(key string) (Permission, bool) {
	i, ok := c.index[normalizeKey(key)]
	if !ok {
		return Permission{}, false
	}
	return c.permissions[i], true
}

// Roles returns the role grants in catalog order.
func (c *Catalog) Roles() []RoleGrant {
	out := make([]RoleGrant, 0, len(c.roles))
	for _, r := range c.roles {
		out = append(out, RoleGrant{Name: r.Name, Description: r.Description, Permissions: append([]string(nil), r.Permissions...)})
	}
	return out
}

// IsRole reports whether name is a catalog role.
func (c *Catalog) IsRole(name string) bool {
	_, ok := c.grants[normalizeKey(name)]
	return ok
}

// RolePermissions returns the keys granted to role, nil for unknown roles.
func (c *Catalog) RolePermissions(role string) []string {
	for _, r := range c.roles {
		if normalizeKey(r.Name) == normalizeKey(role) {
			return append([]string(nil), r.Permissions...)
		}
	}
	return nil
}

func (c *Catalog) hasGrant(role, key string) bool {
	set, ok := c.grants[normalizeKey(role)]
	if !ok {
		return false
	}
	_, ok = set[normalizeKey(key)]
	return ok
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
