package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpAdapter "github.com/iho/loanledger/internal/adapter/http"
	"github.com/iho/loanledger/internal/adapter/http/handler"
	"github.com/iho/loanledger/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/loanledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/loanledger/internal/adapter/repository/redis"
	"github.com/iho/loanledger/internal/infrastructure/auth"
	"github.com/iho/loanledger/internal/infrastructure/config"
	"github.com/iho/loanledger/internal/infrastructure/eventpublisher"
	"github.com/iho/loanledger/internal/infrastructure/logger"
	"github.com/iho/loanledger/internal/infrastructure/metrics"
	"github.com/iho/loanledger/internal/infrastructure/postgres"
	"github.com/iho/loanledger/internal/infrastructure/redis"
	"github.com/iho/loanledger/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns, cfg.DatabaseTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	loanRepo := postgresRepo.NewLoanRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	studentRepo := postgresRepo.NewStudentRepository(pool)
	userRepo := postgresRepo.NewUserRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	retrier := postgresRepo.NewRetrier()
	idGen := postgresRepo.NewULIDGenerator()

	cache := redisRepo.NewCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)

	// Use cases
	loanUC := usecase.NewLoanUseCase(txManager, loanRepo, outboxRepo, auditRepo, idGen)
	repaymentUC := usecase.NewRepaymentUseCase(txManager, loanRepo, ledgerRepo, outboxRepo, idGen, retrier, cache)
	fundingUC := usecase.NewFundingUseCase(txManager, loanRepo, ledgerRepo, studentRepo, outboxRepo, auditRepo, idGen, cache)
	ledgerUC := usecase.NewLedgerUseCase(txManager, ledgerRepo, loanRepo, auditRepo, outboxRepo, idGen, cache)
	userUC := usecase.NewUserUseCase(userRepo, idGen)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	appMetrics := metrics.New()

	// Handlers
	loanHandler := handler.NewLoanHandler(loanUC, repaymentUC, fundingUC, appMetrics)
	ledgerHandler := handler.NewLedgerHandler(ledgerUC, appMetrics)
	authHandler := handler.NewAuthHandler(userUC, jwtManager)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		LoanHandler:      loanHandler,
		LedgerHandler:    ledgerHandler,
		AuthHandler:      authHandler,
		HealthHandler:    healthHandler,
		JWTManager:       jwtManager,
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		Metrics:          appMetrics,
		Logger:           log,
	})

	// Outbox publisher drains loan and ledger events in the background.
	publisherCtx, stopPublisher := context.WithCancel(ctx)
	defer stopPublisher()

	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewLogPublisher(slog.Default()),
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
	})
	go func() {
		if err := publisher.Start(publisherCtx); err != nil && publisherCtx.Err() == nil {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopPublisher()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
