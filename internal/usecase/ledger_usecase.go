package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/subscriptions/internal/domain"
)

// LedgerUseCase owns the book-keeping state machine. Every accepted command
// becomes exactly one ledger entry; the repository's unique constraint on
// idempotency_key is the authoritative dedup mechanism.
type LedgerUseCase struct {
	ledgerRepo LedgerRepository
	producer   EventProducer
	metrics    BusinessMetrics
	logger     zerolog.Logger
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository, producer EventProducer, metrics BusinessMetrics, logger zerolog.Logger) *LedgerUseCase {
	return &LedgerUseCase{
		ledgerRepo: ledgerRepo,
		producer:   producer,
		metrics:    metrics,
		logger:     logger,
	}
}

// Append records an accepted command. If an entry with the same idempotency
// key already exists the existing entry is returned with created=false; no
// error is raised so retried requests after guard-TTL expiry remain
// idempotent.
func (uc *LedgerUseCase) Append(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, bool, error) {
	existing, err := uc.ledgerRepo.GetByIdempotencyKey(ctx, entry.IdempotencyKey)
	if err != nil && !errors.Is(err, domain.ErrLedgerEntryNotFound) {
		return nil, false, err
	}
	if existing != nil {
		uc.logger.Warn().
			Str("idempotency_key", entry.IdempotencyKey).
			Str("entry_id", existing.ID).
			Msg("ledger entry already exists")

		return existing, false, nil
	}

	err = uc.ledgerRepo.Insert(ctx, entry)
	if err != nil {
		// A concurrent duplicate lost the race against the unique
		// constraint; return the winner's row.
		if errors.Is(err, domain.ErrDuplicateRequest) {
			winner, getErr := uc.ledgerRepo.GetByIdempotencyKey(ctx, entry.IdempotencyKey)
			if getErr != nil {
				return nil, false, getErr
			}

			return winner, false, nil
		}

		return nil, false, err
	}

	uc.metrics.LedgerEvent(string(entry.EventType), string(entry.Status))
	uc.logger.Info().
		Str("entry_id", entry.ID).
		Str("idempotency_key", entry.IdempotencyKey).
		Str("event_type", string(entry.EventType)).
		Msg("created ledger entry")

	return entry, true, nil
}

// MarkCompleted transitions an entry INITIATED -> COMPLETED with the payment
// reference, then publishes it to the event bus. Publish failure is logged
// only: the entry stays durably COMPLETED with processed_at NULL and the
// reconciliation sweep re-publishes it.
func (uc *LedgerUseCase) MarkCompleted(ctx context.Context, id, paymentReferenceID string) error {
	entry, err := uc.ledgerRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := entry.MarkCompleted(paymentReferenceID, now); err != nil {
		return err
	}

	if err := uc.ledgerRepo.MarkCompleted(ctx, id, paymentReferenceID, now); err != nil {
		return err
	}

	uc.metrics.LedgerEvent(string(entry.EventType), string(domain.StatusCompleted))

	if err := uc.producer.Publish(ctx, entry); err != nil {
		uc.logger.Error().Err(err).
			Str("entry_id", id).
			Str("idempotency_key", entry.IdempotencyKey).
			Msg("failed to publish completed ledger entry; reconciliation will re-publish")
	}

	return nil
}

// MarkProcessed transitions an entry COMPLETED -> PROCESSED after successful
// materialization.
func (uc *LedgerUseCase) MarkProcessed(ctx context.Context, id string) error {
	entry, err := uc.ledgerRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := entry.MarkProcessed(now); err != nil {
		return err
	}

	if err := uc.ledgerRepo.MarkProcessed(ctx, id, now); err != nil {
		return err
	}

	uc.metrics.LedgerEvent(string(entry.EventType), string(domain.StatusProcessed))

	return nil
}

// RecordMaterializationFailure bumps the retry counter and marks the entry
// FAILED (terminal, error message retained) once the cap is reached.
func (uc *LedgerUseCase) RecordMaterializationFailure(ctx context.Context, id string, cause error) error {
	entry, err := uc.ledgerRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	terminal, err := entry.RecordMaterializationFailure(cause.Error())
	if err != nil {
		return err
	}

	uc.metrics.MaterializationRetry()

	if terminal {
		uc.logger.Error().
			Str("entry_id", id).
			Int("retry_count", entry.RetryCount).
			Str("cause", cause.Error()).
			Msg("materialization retries exhausted, entry marked FAILED")
	} else {
		uc.logger.Warn().
			Str("entry_id", id).
			Int("retry_count", entry.RetryCount).
			Str("cause", cause.Error()).
			Msg("materialization failed, will retry")
	}

	return uc.ledgerRepo.UpdateRetry(ctx, id, entry.RetryCount, entry.Status, entry.ErrorMessage)
}

// GetEntry looks up an entry by its ID.
func (uc *LedgerUseCase) GetEntry(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	return uc.ledgerRepo.GetByID(ctx, id)
}

// GetByIdempotencyKey looks up an entry by its deduplication key.
func (uc *LedgerUseCase) GetByIdempotencyKey(ctx context.Context, key string) (*domain.LedgerEntry, error) {
	return uc.ledgerRepo.GetByIdempotencyKey(ctx, key)
}
