package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// ReconciliationUseCase is the durable backstop for the async pipeline. It
// periodically re-publishes COMPLETED entries that never reached PROCESSED
// (lost publish, consumer crash) and re-enqueues INITIATED entries whose
// payment attempt went nowhere.
type ReconciliationUseCase struct {
	ledgerRepo LedgerRepository
	producer   EventProducer
	payment    PaymentProcessor
	grace      time.Duration
	batchSize  int
	logger     zerolog.Logger
}

// ReconciliationConfig configures the sweep.
type ReconciliationConfig struct {
	LedgerRepo LedgerRepository
	Producer   EventProducer
	Payment    PaymentProcessor
	// Grace is how long an entry may sit in a non-terminal state before
	// the sweep picks it up.
	Grace     time.Duration
	BatchSize int
	Logger    zerolog.Logger
}

// NewReconciliationUseCase creates a new ReconciliationUseCase.
func NewReconciliationUseCase(cfg ReconciliationConfig) *ReconciliationUseCase {
	if cfg.Grace == 0 {
		cfg.Grace = 5 * time.Minute
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}

	return &ReconciliationUseCase{
		ledgerRepo: cfg.LedgerRepo,
		producer:   cfg.Producer,
		payment:    cfg.Payment,
		grace:      cfg.Grace,
		batchSize:  cfg.BatchSize,
		logger:     cfg.Logger,
	}
}

// SweepResult summarizes one reconciliation pass.
type SweepResult struct {
	Republished int
	Reenqueued  int
	CheckedAt   time.Time
}

// Sweep runs one reconciliation pass.
func (uc *ReconciliationUseCase) Sweep(ctx context.Context) (*SweepResult, error) {
	now := time.Now().UTC()
	result := &SweepResult{CheckedAt: now}
	cutoff := now.Add(-uc.grace)

	unpublished, err := uc.ledgerRepo.ListCompletedUnprocessed(ctx, cutoff, uc.batchSize)
	if err != nil {
		return nil, err
	}

	for _, entry := range unpublished {
		if err := uc.producer.Publish(ctx, entry); err != nil {
			uc.logger.Error().Err(err).
				Str("entry_id", entry.ID).
				Msg("reconciliation re-publish failed")

			continue
		}

		result.Republished++
	}

	stale, err := uc.ledgerRepo.ListStaleInitiated(ctx, cutoff, uc.batchSize)
	if err != nil {
		return result, err
	}

	for _, entry := range stale {
		uc.payment.ProcessAsync(entry)
		result.Reenqueued++
	}

	if result.Republished > 0 || result.Reenqueued > 0 {
		uc.logger.Info().
			Int("republished", result.Republished).
			Int("reenqueued", result.Reenqueued).
			Msg("reconciliation sweep completed")
	}

	return result, nil
}

// Run sweeps on a fixed interval until the context is cancelled.
func (uc *ReconciliationUseCase) Run(ctx context.Context, interval time.Duration) error {
	uc.logger.Info().Dur("interval", interval).Msg("reconciliation sweep started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			uc.logger.Info().Msg("reconciliation sweep shutting down")
			return ctx.Err()
		case <-ticker.C:
			if _, err := uc.Sweep(ctx); err != nil {
				uc.logger.Error().Err(err).Msg("reconciliation sweep error")
			}
		}
	}
}
