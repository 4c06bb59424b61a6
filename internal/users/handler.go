package users

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kikaiya/kikaiya-web/internal/platform/httpx"
	"github.com/kikaiya/kikaiya-web/internal/rbac"
	"github.com/kikaiya/kikaiya-web/internal/shared"
)

// Handler manages user management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac, validator: validator.New()}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequirePermission(rbac.PermUsersView)).Get("/", h.listUsers)
	r.With(h.rbac.RequirePermission(rbac.PermUsersCreate)).Post("/", h.createUser)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(rbac.PermUsersEdit))
		r.Patch("/{id}/role", h.changeRole)
		r.Patch("/{id}/status", h.setStatus)
	})
	r.With(h.rbac.RequirePermission(rbac.PermUsersDelete)).Delete("/{id}", h.deleteUser)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageParams(r)
	users, pagination, err := h.service.ListUsers(r.Context(), page, perPage)
	if err != nil {
		h.fail(w, "list users failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": users, "pagination": pagination})
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if !h.decode(w, r, &in) {
		return
	}
	user, err := h.service.CreateUser(r.Context(), h.actorID(r), in)
	if err != nil {
		h.fail(w, "create user failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"user": user})
}

type roleRequest struct {
	Role string `json:"role" validate:"required"`
}

func (h *Handler) changeRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.service.ChangeRole(r.Context(), h.actorID(r), chi.URLParam(r, "id"), req.Role)
	if err != nil {
		h.fail(w, "change role failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": user})
}

type statusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.service.SetActive(r.Context(), h.actorID(r), chi.URLParam(r, "id"), *req.IsActive)
	if err != nil {
		h.fail(w, "set user status failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteUser(r.Context(), h.actorID(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete user failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(w, r, target); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		httpx.ValidationError(w, err)
		return false
	}
	return true
}

func (h *Handler) actorID(r *http.Request) string {
	if id := h.rbac.Identities.FromRequest(r); id != nil {
		return id.ID
	}
	return ""
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if !errors.Is(err, httpx.ErrNotFound) && !errors.Is(err, httpx.ErrDuplicate) && !errors.Is(err, httpx.ErrValidation) {
		h.logger.Error(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
