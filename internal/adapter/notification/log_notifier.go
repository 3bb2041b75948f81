package notification

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/iho/subscriptions/internal/domain"
)

// LogNotifier implements usecase.Notifier by emitting structured log events.
// It stands in for the outbound notification channel (email, push) until one
// is wired up.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a new LogNotifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// SubscriptionCreated logs a new subscription.
func (n *LogNotifier) SubscriptionCreated(ctx context.Context, sub *domain.Subscription) {
	n.logger.Info().
		Str("subscription_id", sub.ID).
		Str("user_id", sub.UserID).
		Str("end_date", domain.FormatDate(sub.EndDate)).
		Msg("notification: subscription created")
}

// SubscriptionExtended logs an extension.
func (n *LogNotifier) SubscriptionExtended(ctx context.Context, sub *domain.Subscription) {
	n.logger.Info().
		Str("subscription_id", sub.ID).
		Str("user_id", sub.UserID).
		Str("end_date", domain.FormatDate(sub.EndDate)).
		Msg("notification: subscription extended")
}

// SubscriptionExpiring warns about an upcoming expiry.
func (n *LogNotifier) SubscriptionExpiring(ctx context.Context, sub *domain.Subscription, daysUntilExpiry int) {
	n.logger.Info().
		Str("subscription_id", sub.ID).
		Str("user_id", sub.UserID).
		Int("days_until_expiry", daysUntilExpiry).
		Msg("notification: subscription expiring soon")
}
