package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/kikaiya/kikaiya-web/internal/platform/httpx"
	"github.com/kikaiya/kikaiya-web/internal/shared"
)

// LoginAttemptsPerMinute limits login posts per client IP.
const LoginAttemptsPerMinute = 10

// Authenticator verifies credentials and returns the matching user.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*User, error)
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   Authenticator
	codec     *TokenCodec
	cookies   *CookieStore
	resolver  *Resolver
	activity  shared.ActivityRecorder
	grants    func(*Identity) []string
	validator *validator.Validate
}

// HandlerOption customises a Handler.
type HandlerOption func(*Handler)

// WithGrants lets /me report the permission keys held by the caller.
func WithGrants(grants func(*Identity) []string) HandlerOption {
	return func(h *Handler) {
		h.grants = grants
	}
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service Authenticator, codec *TokenCodec, cookies *CookieStore, resolver *Resolver, activity shared.ActivityRecorder, opts ...HandlerOption) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if activity == nil {
		activity = shared.NopActivityRecorder{}
	}
	h := &Handler{
		logger:    logger,
		service:   service,
		codec:     codec,
		cookies:   cookies,
		resolver:  resolver,
		activity:  activity,
		validator: validator.New(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(httprate.LimitByIP(LoginAttemptsPerMinute, time.Minute)).Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/me", h.handleMe)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ValidationError(w, err)
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			h.logger.Error("authenticate", slog.Any("error", err))
		}
		httpx.Error(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	identity := user.Identity().normalized()
	token, err := h.codec.Encode(identity)
	if err != nil {
		h.logger.Error("issue session token", slog.Any("error", err), slog.String("user_id", user.ID))
		httpx.Error(w, http.StatusInternalServerError, "Login failed, please try again")
		return
	}
	if err := h.cookies.Write(w, token); err != nil {
		h.logger.Warn("login completed without session cookie", slog.String("user_id", user.ID))
	}

	h.record(r.Context(), shared.ActivityLog{
		ActorID:  user.ID,
		Action:   "auth.login",
		Entity:   "user",
		EntityID: user.ID,
		Meta:     map[string]any{"ip": r.RemoteAddr, "user_agent": r.UserAgent()},
	})
	httpx.JSON(w, http.StatusOK, map[string]any{"user": identity})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	id := h.resolver.FromRequest(r)
	h.cookies.Clear(w)
	if id != nil {
		h.record(r.Context(), shared.ActivityLog{
			ActorID:  id.ID,
			Action:   "auth.logout",
			Entity:   "user",
			EntityID: id.ID,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	id := h.resolver.FromRequest(r)
	if id == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	permissions := []string{}
	if h.grants != nil {
		if granted := h.grants(id); granted != nil {
			permissions = granted
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": id, "permissions": permissions})
}

func (h *Handler) record(ctx context.Context, entry shared.ActivityLog) {
	if err := h.activity.Record(ctx, entry); err != nil {
		h.logger.Warn("record activity", slog.String("action", entry.Action), slog.Any("error", err))
	}
}
