package rest

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/bibbank/skills/pkg/auth"
)

// RouterConfig wires the HTTP surface. Metrics, JWT and RateLimiter are optional.
type RouterConfig struct {
	Skills      *SkillHandler
	Health      *HealthHandler
	Metrics     http.Handler
	JWT         *auth.JWTService
	RateLimiter *ClientRateLimiter
	Logger      *slog.Logger
}

// NewRouter builds the HTTP handler: routes plus the middleware chain.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	cfg.Health.RegisterRoutes(mux)
	cfg.Skills.RegisterRoutes(mux)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	// Build middleware chain (applied in reverse order).
	var h http.Handler = mux
	if cfg.JWT != nil {
		h = auth.HTTPMiddleware(cfg.JWT, RouteRoles)(h)
	}
	if cfg.RateLimiter != nil {
		h = RateLimitMiddleware(cfg.RateLimiter)(h)
	}
	h = LoggingMiddleware(cfg.Logger)(h)
	return h
}

// RouteRoles returns the roles allowed on a request. Probes and metrics are public.
func RouteRoles(r *http.Request) []string {
	switch r.URL.Path {
	case "/healthz", "/readyz", "/metrics":
		return nil
	}
	if r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/evaluate") {
		return auth.EvaluateRoles
	}
	return auth.ReadRoles
}
