package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/loanledger/internal/adapter/http/handler"
	"github.com/iho/loanledger/internal/adapter/http/middleware"
	"github.com/iho/loanledger/internal/domain"
	"github.com/iho/loanledger/internal/infrastructure/auth"
	"github.com/iho/loanledger/internal/infrastructure/metrics"
	"github.com/iho/loanledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	LoanHandler   *handler.LoanHandler
	LedgerHandler *handler.LedgerHandler
	AuthHandler   *handler.AuthHandler
	HealthHandler *handler.HealthHandler

	JWTManager       *auth.JWTManager
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	Metrics          *metrics.Metrics
	Logger           zerolog.Logger
}

// NewRouter creates the HTTP router with all routes and middleware wired.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

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

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	authn := middleware.AuthMiddleware(cfg.JWTManager)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)
	canFund := middleware.RequireRole(domain.RoleAdmin, domain.RolePartner)

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
		}

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", cfg.AuthHandler.Register)
			r.Post("/login", cfg.AuthHandler.Login)
			r.With(authn).Get("/me", cfg.AuthHandler.Me)
		})

		r.Route("/loans", func(r chi.Router) {
			r.Use(authn)

			r.Post("/", cfg.LoanHandler.Submit)
			r.With(adminOnly).Get("/", cfg.LoanHandler.List)
			r.Get("/mine", cfg.LoanHandler.ListMine)
			r.Get("/{id}", cfg.LoanHandler.Get)
			r.Post("/{id}/repayments", cfg.LoanHandler.Repay)
			r.With(canFund).Post("/{id}/fund", cfg.LoanHandler.Fund)
			r.With(adminOnly).Patch("/{id}/status", cfg.LoanHandler.OverrideStatus)
		})

		r.Route("/ledger", func(r chi.Router) {
			r.Use(authn)

			r.Get("/", cfg.LedgerHandler.List)
			r.Get("/balance", cfg.LedgerHandler.Balance)
			r.With(adminOnly).Get("/consistency", cfg.LedgerHandler.Consistency)
			r.With(adminOnly).Post("/withdrawals", cfg.LedgerHandler.Withdraw)
			r.With(adminOnly).Post("/deposits", cfg.LedgerHandler.Deposit)
		})
	})

	return r
}
