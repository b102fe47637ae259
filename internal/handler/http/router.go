package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	ratelimit "github.com/utafrali/storefront/internal/middleware"
	"github.com/utafrali/storefront/internal/session"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

const serviceName = "storefront"

// RouterConfig carries the edge settings of the router.
type RouterConfig struct {
	CORS            middleware.CORSConfig
	CatalogCacheTTL time.Duration
	RateLimitRPS    int
	RateLimitBurst  int
	MetricsCIDRs    []string
	PprofCIDRs      []string
}

// NewRouter creates a chi router with all storefront routes registered.
// ctx bounds background work owned by the router, such as rate limiter
// cleanup.
func NewRouter(
	ctx context.Context,
	h *StorefrontHandler,
	sessions *session.Manager,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.With(middleware.IPAllowlist(cfg.MetricsCIDRs, logger)).Handle("/metrics", promhttp.Handler())

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ratelimit.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
		r.Use(session.Middleware(sessions))
		r.Use(middleware.RequestLogger(logger))

		r.With(middleware.CacheControl(cfg.CatalogCacheTTL)).Get("/filters", h.GetFilters)
		r.With(middleware.CacheControl(cfg.CatalogCacheTTL)).Get("/catalog", h.GetCatalog)
		r.Post("/search", h.Search)
		r.Get("/items/{sku}", h.GetItem)

		r.Group(func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Get("/preferences", h.GetPreferences)
			r.With(session.RequireSession).Get("/session", h.GetSession)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Post("/login", h.Login)
			r.Post("/register", h.Register)
			r.With(session.RequireSession).Post("/logout", h.Logout)
		})
	})

	return r
}
