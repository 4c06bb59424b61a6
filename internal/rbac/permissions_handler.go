package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kikaiya/kikaiya-web/internal/platform/httpx"
)

// PermissionsHandler serves the permission catalog.
type PermissionsHandler struct {
	catalog *Catalog
	rbac    Middleware
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(catalog *Catalog, rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{catalog: catalog, rbac: rbac}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(PermRolesView))
		r.Get("/", h.listPermissions)
	})
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"categories": h.catalog.Categories()})
}
