package usecase

import (
	"fmt"
	"time"

	"context"

	"github.com/rs/zerolog"

	"github.com/iho/subscriptions/internal/domain"
)

// MaterializerUseCase projects COMPLETED ledger entries into the
// subscription read model. It must be safe under re-delivery: the event bus
// is at-least-once and the reconciliation sweep re-publishes entries.
type MaterializerUseCase struct {
	subscriptionRepo SubscriptionRepository
	notifier         Notifier
	metrics          BusinessMetrics
	idGen            IDGenerator
	logger           zerolog.Logger
}

// NewMaterializerUseCase creates a new MaterializerUseCase.
func NewMaterializerUseCase(
	subscriptionRepo SubscriptionRepository,
	notifier Notifier,
	metrics BusinessMetrics,
	idGen IDGenerator,
	logger zerolog.Logger,
) *MaterializerUseCase {
	return &MaterializerUseCase{
		subscriptionRepo: subscriptionRepo,
		notifier:         notifier,
		metrics:          metrics,
		idGen:            idGen,
		logger:           logger,
	}
}

// Apply projects a single ledger entry. Event kinds other than SUBSCRIBED
// and EXTENDED are ignored.
func (uc *MaterializerUseCase) Apply(ctx context.Context, entry *domain.LedgerEntry) error {
	switch entry.EventType {
	case domain.EventSubscribed:
		return uc.applySubscribed(ctx, entry)
	case domain.EventExtended:
		return uc.applyExtended(ctx, entry)
	default:
		uc.logger.Debug().
			Str("entry_id", entry.ID).
			Str("event_type", string(entry.EventType)).
			Msg("no projection for event type, skipping")

		return nil
	}
}

func (uc *MaterializerUseCase) applySubscribed(ctx context.Context, entry *domain.LedgerEntry) error {
	startDate, endDate, status, err := parseSnapshot(entry.AfterState)
	if err != nil {
		return fmt.Errorf("invalid after state for entry %s: %w", entry.ID, err)
	}

	existing, err := uc.subscriptionRepo.FindActive(ctx, entry.UserID, entry.AccountID, entry.DurationTypeID)
	if err != nil {
		return err
	}
	if existing != nil {
		// Re-delivery of the same event converges to a no-op; a live
		// row with different dates means the dedup invariant was
		// violated upstream.
		if existing.StartDate.Equal(startDate) && existing.EndDate.Equal(endDate) {
			uc.logger.Info().
				Str("entry_id", entry.ID).
				Str("subscription_id", existing.ID).
				Msg("subscription already materialized, treating as replay")

			return nil
		}

		return domain.ErrMaterializationConflict
	}

	now := time.Now().UTC()
	sub := &domain.Subscription{
		ID:             uc.idGen.Generate(),
		UserID:         entry.UserID,
		AccountID:      entry.AccountID,
		DurationTypeID: entry.DurationTypeID,
		StartDate:      startDate,
		EndDate:        endDate,
		Status:         status,
		CreatedAt:      now,
		LastUpdatedAt:  now,
	}

	if err := uc.subscriptionRepo.Insert(ctx, sub); err != nil {
		return err
	}

	uc.metrics.SubscriptionCreated(entry.AccountID, entry.DurationTypeID)
	uc.notifier.SubscriptionCreated(ctx, sub)
	uc.logger.Info().
		Str("entry_id", entry.ID).
		Str("subscription_id", sub.ID).
		Msg("materialized new subscription")

	return nil
}

func (uc *MaterializerUseCase) applyExtended(ctx context.Context, entry *domain.LedgerEntry) error {
	_, endDate, _, err := parseSnapshot(entry.AfterState)
	if err != nil {
		return fmt.Errorf("invalid after state for entry %s: %w", entry.ID, err)
	}

	existing, err := uc.subscriptionRepo.FindActive(ctx, entry.UserID, entry.AccountID, entry.DurationTypeID)
	if err != nil {
		return err
	}
	if existing == nil {
		// Hard failure: the extend command was validated against a live
		// subscription at intake, so its absence here is an upstream
		// invariant violation, not a transient error.
		return domain.ErrSubscriptionNotFound
	}

	// The event carries the absolute target end date, so a replay that
	// already landed converges instead of double-applying.
	if existing.EndDate.Equal(endDate) {
		uc.logger.Info().
			Str("entry_id", entry.ID).
			Str("subscription_id", existing.ID).
			Msg("extension already materialized, treating as replay")

		return nil
	}

	now := time.Now().UTC()
	if err := uc.subscriptionRepo.UpdateEndDate(ctx, existing.ID, endDate, now); err != nil {
		return err
	}

	existing.EndDate = endDate
	existing.LastUpdatedAt = now

	uc.metrics.SubscriptionExtended(entry.AccountID, entry.DurationTypeID)
	uc.notifier.SubscriptionExtended(ctx, existing)
	uc.logger.Info().
		Str("entry_id", entry.ID).
		Str("subscription_id", existing.ID).
		Str("end_date", domain.FormatDate(endDate)).
		Msg("materialized subscription extension")

	return nil
}

// parseSnapshot extracts the projection fields from a state snapshot.
// start_date is optional (extend events carry only end_date).
func parseSnapshot(state domain.State) (startDate, endDate time.Time, status domain.SubscriptionStatus, err error) {
	if state == nil {
		return time.Time{}, time.Time{}, "", fmt.Errorf("missing state snapshot")
	}

	if raw, ok := state["start_date"].(string); ok {
		startDate, err = domain.ParseDate(raw)
		if err != nil {
			return time.Time{}, time.Time{}, "", fmt.Errorf("bad start_date: %w", err)
		}
	}

	raw, ok := state["end_date"].(string)
	if !ok {
		return time.Time{}, time.Time{}, "", fmt.Errorf("missing end_date")
	}
	endDate, err = domain.ParseDate(raw)
	if err != nil {
		return time.Time{}, time.Time{}, "", fmt.Errorf("bad end_date: %w", err)
	}

	status = domain.SubscriptionActive
	if raw, ok := state["status"].(string); ok {
		status = domain.SubscriptionStatus(raw)
	}

	return startDate, endDate, status, nil
}
