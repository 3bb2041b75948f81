package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/subscriptions/internal/adapter/notification"
	"github.com/iho/subscriptions/internal/adapter/payment"
	postgresRepo "github.com/iho/subscriptions/internal/adapter/repository/postgres"
	"github.com/iho/subscriptions/internal/infrastructure/auth"
	"github.com/iho/subscriptions/internal/infrastructure/config"
	"github.com/iho/subscriptions/internal/infrastructure/eventbus"
	"github.com/iho/subscriptions/internal/infrastructure/logger"
	"github.com/iho/subscriptions/internal/infrastructure/postgres"
	"github.com/iho/subscriptions/internal/infrastructure/redis"
	"github.com/iho/subscriptions/internal/usecase"
)

var migrationsPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "subscriptions-cli",
		Short: "Subscriptions service operations tool",
		Long:  `Operational commands for the subscriptions service: migrations, sweeps and token generation.`,
	}

	// Migrations
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}
	migrateCmd.PersistentFlags().StringVar(&migrationsPath, "path", "migrations", "Path to migration files")

	migrateUpCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, appLogger, err := setup()
			if err != nil {
				return err
			}
			return postgres.RunMigrations(cfg.DatabaseURL, migrationsPath, appLogger)
		},
	}

	migrateDownCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, appLogger, err := setup()
			if err != nil {
				return err
			}
			return postgres.RunMigrationsDown(cfg.DatabaseURL, migrationsPath, appLogger)
		},
	}

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)

	// One-shot reconciliation sweep
	reconcileCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run a single reconciliation pass over the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd.Context())
		},
	}

	// One-shot expiry sweep
	expireCmd := &cobra.Command{
		Use:   "expire",
		Short: "Expire overdue subscriptions and send expiry warnings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpire(cmd.Context())
		},
	}

	rootCmd.AddCommand(migrateCmd, reconcileCmd, expireCmd, tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// tokenCmd generates a JWT for testing authenticated endpoints.
func tokenCmd() *cobra.Command {
	var user, role, requestID string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Generate a JWT for the configured secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup()
			if err != nil {
				return err
			}

			token, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration).Generate(user, role, requestID)
			if err != nil {
				return err
			}

			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User ID claim")
	cmd.Flags().StringVar(&role, "role", "USER", "Role claim")
	cmd.Flags().StringVar(&requestID, "request-id", "", "Request ID claim")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	return cfg, logger.New(logger.Config{Level: cfg.LogLevel, Format: "console"}), nil
}

func runReconcile(ctx context.Context) error {
	cfg, appLogger, err := setup()
	if err != nil {
		return err
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	planRepo := postgresRepo.NewPlanRepository(pool)
	producer := eventbus.NewProducer(redisClient, cfg.EventStream, appLogger)

	ledgerUC := usecase.NewLedgerUseCase(ledgerRepo, producer, usecase.NopMetrics{}, appLogger)
	planUC := usecase.NewPlanUseCase(planRepo, usecase.NopCache{}, cfg.PlanCacheTTL, postgresRepo.NewULIDGenerator(), appLogger)

	breaker := payment.NewBreaker(payment.DefaultBreakerConfig(), appLogger)
	gateway := payment.NewClient(cfg.PaymentBaseURL, cfg.PaymentTimeout)
	processor := payment.NewProcessor(gateway, breaker, ledgerUC, planUC, nil, payment.DefaultProcessorConfig(), appLogger)

	workerCtx, cancel := context.WithCancel(ctx)
	processor.Start(workerCtx)

	sweep := usecase.NewReconciliationUseCase(usecase.ReconciliationConfig{
		LedgerRepo: ledgerRepo,
		Producer:   producer,
		Payment:    processor,
		Grace:      cfg.ReconcileGrace,
		BatchSize:  cfg.ReconcileBatchSize,
		Logger:     appLogger,
	})

	result, err := sweep.Sweep(ctx)
	if err != nil {
		cancel()
		return err
	}

	// Let the workers drain re-enqueued payments before exiting.
	time.Sleep(2 * time.Second)
	cancel()
	processor.Stop()

	fmt.Printf("Reconciliation complete: %d republished, %d re-enqueued\n", result.Republished, result.Reenqueued)
	return nil
}

func runExpire(ctx context.Context) error {
	cfg, appLogger, err := setup()
	if err != nil {
		return err
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	subscriptionRepo := postgresRepo.NewSubscriptionRepository(pool)
	expiryUC := usecase.NewExpiryUseCase(subscriptionRepo, notification.NewLogNotifier(appLogger), appLogger)

	expired, err := expiryUC.ExpireOverdue(ctx)
	if err != nil {
		return err
	}

	if err := expiryUC.NotifyExpiring(ctx); err != nil {
		return err
	}

	fmt.Printf("Expiry sweep complete: %d subscriptions expired\n", expired)
	return nil
}
