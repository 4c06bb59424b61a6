package content

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kikaiya/kikaiya-web/internal/platform/httpx"
	"github.com/kikaiya/kikaiya-web/internal/rbac"
	"github.com/kikaiya/kikaiya-web/internal/shared"
)

// BlockStore persists content blocks.
type BlockStore interface {
	Get(ctx context.Context, key string) (Block, error)
	Put(ctx context.Context, b Block) (Block, error)
}

// Handler serves content blocks.
type Handler struct {
	logger    *slog.Logger
	store     BlockStore
	rbac      rbac.Middleware
	activity  shared.ActivityRecorder
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, store BlockStore, rbac rbac.Middleware, activity shared.ActivityRecorder) *Handler {
	if activity == nil {
		activity = shared.NopActivityRecorder{}
	}
	return &Handler{logger: logger, store: store, rbac: rbac, activity: activity, validator: validator.New()}
}

// MountRoutes registers content routes. Reads are public.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{key}", h.getBlock)
	r.With(h.rbac.RequirePermission(rbac.PermContentEdit)).Put("/{key}", h.putBlock)
}

func (h *Handler) getBlock(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	block, err := h.store.Get(r.Context(), key)
	if err != nil {
		h.fail(w, err)
		return
	}
	lang := Negotiate(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))
	text, served := block.Text(lang)
	w.Header().Set("Content-Language", served)
	w.Header().Add("Vary", "Accept-Language")
	httpx.JSON(w, http.StatusOK, map[string]any{"key": key, "lang": served, "text": text})
}

type putRequest struct {
	EN string `json:"en" validate:"required,max=20000"`
	JA string `json:"ja" validate:"max=20000"`
}

func (h *Handler) putBlock(w http.ResponseWriter, r *http.Request) {
	var req putRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ValidationError(w, err)
		return
	}
	var actor string
	if id := h.rbac.Identities.FromRequest(r); id != nil {
		actor = id.ID
	}
	block, err := h.store.Put(r.Context(), Block{Key: chi.URLParam(r, "key"), EN: req.EN, JA: req.JA, UpdatedBy: actor})
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := h.activity.Record(r.Context(), shared.ActivityLog{ActorID: actor, Action: "content.update", Entity: "content", EntityID: block.Key}); err != nil {
		h.logger.Warn("record activity", slog.String("action", "content.update"), slog.Any("error", err))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"block": block})
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	if !errors.Is(err, httpx.ErrNotFound) && !errors.Is(err, httpx.ErrValidation) {
		h.logger.Error("content store", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
