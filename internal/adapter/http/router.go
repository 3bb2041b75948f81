package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/subscriptions/internal/adapter/http/handler"
	"github.com/iho/subscriptions/internal/adapter/http/middleware"
	"github.com/iho/subscriptions/internal/infrastructure/auth"
	"github.com/iho/subscriptions/internal/infrastructure/metrics"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	SubscriptionHandler *handler.SubscriptionHandler
	PlanHandler         *handler.PlanHandler
	CatalogHandler      *handler.CatalogHandler
	HealthHandler       *handler.HealthHandler
	JWTManager          *auth.JWTManager
	AuthEnabled         bool
	Metrics             *metrics.Metrics
	RateLimiter         *middleware.RateLimiter
	Logger              zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health and telemetry endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.AuthEnabled {
			r.Use(middleware.AuthMiddleware(cfg.JWTManager))
		} else {
			r.Use(middleware.HeaderIdentity)
		}

		// Subscriptions
		r.Route("/subscriptions", func(r chi.Router) {
			r.Post("/", cfg.SubscriptionHandler.Subscribe)
			r.Get("/", cfg.SubscriptionHandler.ListMine)
			r.Post("/{id}/extend", cfg.SubscriptionHandler.Extend)
		})

		// Ledger entry status polling
		r.Get("/entries/{id}", cfg.SubscriptionHandler.EntryStatus)

		// Reference data
		r.Get("/accounts", cfg.CatalogHandler.ListAccounts)
		r.Get("/duration-types", cfg.CatalogHandler.ListDurationTypes)
		r.With(middleware.RequireRole(middleware.RoleAdmin)).
			Get("/rules", cfg.CatalogHandler.ListRules)

		// Plan catalog
		r.Get("/accounts/{id}/plans", cfg.PlanHandler.ListByAccount)
		r.Route("/plans", func(r chi.Router) {
			r.Get("/{id}", cfg.PlanHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(middleware.RoleAdmin))
				r.Post("/", cfg.PlanHandler.Create)
				r.Patch("/{id}", cfg.PlanHandler.Update)
				r.Delete("/{id}", cfg.PlanHandler.Delete)
			})
		})
	})

	return r
}
