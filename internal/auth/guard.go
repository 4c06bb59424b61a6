package auth

import (
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/kikaiya/kikaiya-web/internal/platform/httpx"
)

// Route prefixes recognised by the guard.
const (
	AdminPrefix      = "/admin"
	LoginPath        = "/admin"
	AdminAPIPrefix   = "/api/admin"
	AdminAuthPrefix  = "/admin/auth"
	AuthAPIPrefix    = "/api/admin/auth"
	ContentAPIPrefix = "/api/admin/content"
	SetupAPIPath     = "/api/admin/setup"
)

// Client-facing error bodies.
const (
	MsgUnauthorized  = "Unauthorized"
	MsgInvalidToken  = "Invalid token"
	MsgSetupDisabled = "Setup is disabled"
)

var (
	excludedPaths     = []string{"/admin/setup"}
	staticAssetPrefix = []string{"/admin/static", "/admin/_next"}
	staticExtensions  = map[string]struct{}{
		".css": {}, ".js": {}, ".map": {}, ".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {},
		".svg": {}, ".ico": {}, ".webp": {}, ".woff": {}, ".woff2": {}, ".txt": {},
	}
)

// Decision is the terminal state of a guarded request.
type Decision int

// Guard decisions.
const (
	Allowed Decision = iota
	Redirected
	Rejected
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case Redirected:
		return "redirected"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Verdict describes how the guard handles a request.
type Verdict struct {
	Decision Decision
	Rule     string
	Status   int
	Location string
	Message  string
	Identity *Identity
}

// DecisionObserver receives every verdict, e.g. for metrics.
type DecisionObserver interface {
	ObserveAuthDecision(decision, rule string)
}

// GuardConfig configures the route guard.
type GuardConfig struct {
	Production bool
	// DevBypass lets cookieless requests through admin paths. It has no
	// effect when Production is true.
	DevBypass bool
	Logger    *slog.Logger
	Observer  DecisionObserver
}

// Guard gates admin pages and admin API routes before any handler runs.
type Guard struct {
	resolver *Resolver
	bypass   bool
	logger   *slog.Logger
	observer DecisionObserver
}

// NewGuard builds a Guard.
func NewGuard(resolver *Resolver, cfg GuardConfig) *Guard {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	bypass := cfg.DevBypass && !cfg.Production
	if bypass {
		logger.Warn("admin auth bypass enabled; cookieless requests reach admin routes")
	}
	return &Guard{resolver: resolver, bypass: bypass, logger: logger, observer: cfg.Observer}
}

// Middleware applies Evaluate to every request.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v := g.Evaluate(r)
		if g.observer != nil {
			g.observer.ObserveAuthDecision(v.Decision.String(), v.Rule)
		}
		switch v.Decision {
		case Redirected:
			http.Redirect(w, r, v.Location, v.Status)
		case Rejected:
			httpx.Error(w, v.Status, v.Message)
		default:
			ctx := WithCookieSource(r.Context(), CookieJar(r.Cookies()))
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	})
}

// Evaluate applies the routing rules in order; the first match wins.
func (g *Guard) Evaluate(r *http.Request) Verdict {
	p := cleanPath(r.URL.Path)

	switch {
	case matchesAny(p, excludedPaths):
		return redirect("setup-excluded")

	case hasPathPrefix(p, AdminPrefix):
		if p == LoginPath || isStaticAsset(p) || hasPathPrefix(p, AdminAuthPrefix) {
			return allow("admin-public", nil)
		}
		id, present := g.lookup(r)
		switch {
		case !present && g.bypass:
			return allow("admin-dev-bypass", nil)
		case !present:
			return redirect("admin-no-session")
		case id == nil:
			return redirect("admin-invalid-session")
		}
		return allow("admin-session", id)

	case hasPathPrefix(p, SetupAPIPath):
		return reject("setup-api-disabled", http.StatusForbidden, MsgSetupDisabled)

	case hasPathPrefix(p, AdminAPIPrefix):
		if hasPathPrefix(p, AuthAPIPrefix) {
			return allow("api-auth", nil)
		}
		if hasPathPrefix(p, ContentAPIPrefix) && r.Method == http.MethodGet {
			return allow("api-content-read", nil)
		}
		id, present := g.lookup(r)
		switch {
		case !present && g.bypass:
			return allow("api-dev-bypass", nil)
		case !present:
			return reject("api-no-session", http.StatusUnauthorized, MsgUnauthorized)
		case id == nil:
			return reject("api-invalid-session", http.StatusUnauthorized, MsgInvalidToken)
		}
		return allow("api-session", id)
	}

	return allow("public", nil)
}

// lookup resolves the session and fails closed if verification panics.
func (g *Guard) lookup(r *http.Request) (id *Identity, present bool) {
	defer func() {
		if rec := recover(); rec != nil {
			g.logger.Error("session verification panicked", slog.Any("panic", rec), slog.String("path", r.URL.Path))
			id, present = nil, true
		}
	}()
	return g.resolver.Lookup(r)
}

func allow(rule string, id *Identity) Verdict {
	return Verdict{Decision: Allowed, Rule: rule, Identity: id}
}

func redirect(rule string) Verdict {
	return Verdict{Decision: Redirected, Rule: rule, Status: http.StatusTemporaryRedirect, Location: LoginPath}
}

func reject(rule string, status int, msg string) Verdict {
	return Verdict{Decision: Rejected, Rule: rule, Status: status, Message: msg}
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func hasPathPrefix(p, prefix string) bool {
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

func matchesAny(p string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if hasPathPrefix(p, prefix) {
			return true
		}
	}
	return false
}

func isStaticAsset(p string) bool {
	if matchesAny(p, staticAssetPrefix) {
		return true
	}
	_, ok := staticExtensions[strings.ToLower(path.Ext(p))]
	return ok
}
