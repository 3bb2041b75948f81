package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/subscriptions/internal/adapter/http"
	"github.com/iho/subscriptions/internal/adapter/http/handler"
	"github.com/iho/subscriptions/internal/adapter/http/middleware"
	"github.com/iho/subscriptions/internal/adapter/notification"
	"github.com/iho/subscriptions/internal/adapter/payment"
	postgresRepo "github.com/iho/subscriptions/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/subscriptions/internal/adapter/repository/redis"
	"github.com/iho/subscriptions/internal/domain"
	"github.com/iho/subscriptions/internal/infrastructure/auth"
	"github.com/iho/subscriptions/internal/infrastructure/config"
	"github.com/iho/subscriptions/internal/infrastructure/eventbus"
	"github.com/iho/subscriptions/internal/infrastructure/logger"
	"github.com/iho/subscriptions/internal/infrastructure/metrics"
	"github.com/iho/subscriptions/internal/infrastructure/postgres"
	"github.com/iho/subscriptions/internal/infrastructure/redis"
	"github.com/iho/subscriptions/internal/usecase"
)

// retryingMaterializer drives the projection through the database retrier so
// transient deadlocks do not burn a materialization retry.
type retryingMaterializer struct {
	inner   *usecase.MaterializerUseCase
	retrier *postgresRepo.Retrier
}

func (m retryingMaterializer) Apply(ctx context.Context, entry *domain.LedgerEntry) error {
	return m.retrier.Retry(ctx, func() error {
		return m.inner.Apply(ctx, entry)
	})
}

// resolveConsumerName returns the configured stream consumer name, or a
// per-instance unique one. Names must not collide within the consumer group
// or pending entries become unattributable.
func resolveConsumerName(configured string) string {
	if configured != "" {
		return configured
	}
	return "materializer-" + uuid.NewString()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	appLogger.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	appLogger.Info().Msg("connected to redis")

	m := metrics.New()

	// Repositories
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	subscriptionRepo := postgresRepo.NewSubscriptionRepository(pool)
	planRepo := postgresRepo.NewPlanRepository(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	durationRepo := postgresRepo.NewDurationTypeRepository(pool)
	ruleRepo := postgresRepo.NewRuleRepository(pool)
	guard := redisRepo.NewIdempotencyGuard(redisClient)
	cache := redisRepo.NewCache(redisClient)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(appLogger)

	// Event bus
	producer := eventbus.NewProducer(redisClient, cfg.EventStream, appLogger)

	// Use cases
	ledgerUC := usecase.NewLedgerUseCase(ledgerRepo, producer, m, appLogger)
	planUC := usecase.NewPlanUseCase(planRepo, cache, cfg.PlanCacheTTL, idGen, appLogger)
	catalogUC := usecase.NewCatalogUseCase(accountRepo, durationRepo, ruleRepo)

	// Payment pipeline
	breakerCfg := payment.BreakerConfig{
		WindowSize:       cfg.BreakerWindowSize,
		MinCalls:         cfg.BreakerMinCalls,
		FailureRate:      cfg.BreakerFailureRate,
		OpenWait:         cfg.BreakerOpenWait,
		HalfOpenMaxCalls: cfg.BreakerHalfOpenMaxCalls,
		OnStateChange: func(from, to payment.BreakerState) {
			m.SetBreakerState(int(to))
		},
	}
	breaker := payment.NewBreaker(breakerCfg, appLogger)
	gateway := payment.NewClient(cfg.PaymentBaseURL, cfg.PaymentTimeout)
	processor := payment.NewProcessor(gateway, breaker, ledgerUC, planUC, m, payment.ProcessorConfig{
		Workers:       cfg.PaymentWorkers,
		QueueSize:     cfg.PaymentQueueSize,
		RetryAttempts: cfg.PaymentRetryAttempts,
		RetryDelay:    cfg.PaymentRetryDelay,
	}, appLogger)
	processor.Start(ctx)
	defer processor.Stop()

	subscriptionUC := usecase.NewSubscriptionUseCase(
		guard, ledgerUC, planUC, subscriptionRepo, durationRepo, ruleRepo,
		processor, idGen, cfg.GuardTTL, appLogger,
	)

	notifier := notification.NewLogNotifier(appLogger)
	materializerUC := usecase.NewMaterializerUseCase(subscriptionRepo, notifier, m, idGen, appLogger)

	// Stream consumer
	consumerName := resolveConsumerName(cfg.EventConsumerName)
	consumer := eventbus.NewConsumer(eventbus.ConsumerConfig{
		Client:       redisClient,
		Stream:       cfg.EventStream,
		Group:        cfg.EventGroup,
		ConsumerName: consumerName,
		Materializer: retryingMaterializer{inner: materializerUC, retrier: retrier},
		Ledger:       ledgerUC,
		Logger:       appLogger,
	})
	go func() {
		if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
			log.Fatal().Err(err).Msg("event consumer failed")
		}
	}()

	// Background sweeps
	reconciliationUC := usecase.NewReconciliationUseCase(usecase.ReconciliationConfig{
		LedgerRepo: ledgerRepo,
		Producer:   producer,
		Payment:    processor,
		Grace:      cfg.ReconcileGrace,
		BatchSize:  cfg.ReconcileBatchSize,
		Logger:     appLogger,
	})
	go func() {
		_ = reconciliationUC.Run(ctx, cfg.ReconcileInterval)
	}()

	expiryUC := usecase.NewExpiryUseCase(subscriptionRepo, notifier, appLogger)
	go func() {
		_ = expiryUC.Run(ctx, cfg.ExpiryInterval)
	}()

	// HTTP layer
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	rateLimiter.SetHitRecorder(m)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		SubscriptionHandler: handler.NewSubscriptionHandler(subscriptionUC, ledgerUC),
		PlanHandler:         handler.NewPlanHandler(planUC),
		CatalogHandler:      handler.NewCatalogHandler(catalogUC),
		HealthHandler:       handler.NewHealthHandler(pool, redisClient),
		JWTManager:          jwtManager,
		AuthEnabled:         cfg.AuthEnabled,
		Metrics:             m,
		RateLimiter:         rateLimiter,
		Logger:              appLogger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		appLogger.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info().Msg("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	// Stop background workers after in-flight requests drained.
	cancel()

	appLogger.Info().Msg("server stopped")
}
