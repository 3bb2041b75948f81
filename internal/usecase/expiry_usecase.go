package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// expiryWarningWindow is how far ahead the sweep warns about upcoming
// expirations.
const expiryWarningWindow = 7 * 24 * time.Hour

// ExpiryUseCase transitions overdue subscriptions to EXPIRED and notifies
// users whose subscriptions end soon.
type ExpiryUseCase struct {
	subscriptionRepo SubscriptionRepository
	notifier         Notifier
	logger           zerolog.Logger
}

// NewExpiryUseCase creates a new ExpiryUseCase.
func NewExpiryUseCase(subscriptionRepo SubscriptionRepository, notifier Notifier, logger zerolog.Logger) *ExpiryUseCase {
	return &ExpiryUseCase{
		subscriptionRepo: subscriptionRepo,
		notifier:         notifier,
		logger:           logger,
	}
}

// ExpireOverdue marks every ACTIVE subscription whose end date has passed as
// EXPIRED. Returns the number of rows transitioned.
func (uc *ExpiryUseCase) ExpireOverdue(ctx context.Context) (int64, error) {
	now := time.Now().UTC()
	today := now.Truncate(24 * time.Hour)

	expired, err := uc.subscriptionRepo.ExpireBefore(ctx, today, now)
	if err != nil {
		return 0, err
	}

	if expired > 0 {
		uc.logger.Info().Int64("count", expired).Msg("expired overdue subscriptions")
	}

	return expired, nil
}

// NotifyExpiring warns about ACTIVE subscriptions ending within the warning
// window.
func (uc *ExpiryUseCase) NotifyExpiring(ctx context.Context) error {
	now := time.Now().UTC()
	today := now.Truncate(24 * time.Hour)

	expiring, err := uc.subscriptionRepo.ListActiveEndingBetween(ctx, today, today.Add(expiryWarningWindow))
	if err != nil {
		return err
	}

	for _, sub := range expiring {
		days := sub.DaysUntilExpiry(now)
		if days <= 0 {
			continue
		}

		uc.notifier.SubscriptionExpiring(ctx, sub, days)
	}

	return nil
}

// Run executes the expiry pass on a fixed interval until cancelled.
func (uc *ExpiryUseCase) Run(ctx context.Context, interval time.Duration) error {
	uc.logger.Info().Dur("interval", interval).Msg("expiry sweep started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			uc.logger.Info().Msg("expiry sweep shutting down")
			return ctx.Err()
		case <-ticker.C:
			if _, err := uc.ExpireOverdue(ctx); err != nil {
				uc.logger.Error().Err(err).Msg("expiry sweep error")
			}
			if err := uc.NotifyExpiring(ctx); err != nil {
				uc.logger.Error().Err(err).Msg("expiry notification error")
			}
		}
	}
}
