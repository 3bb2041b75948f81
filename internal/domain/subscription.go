package domain

import "time"

// SubscriptionStatus is the lifecycle state of a materialized subscription.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
	SubscriptionExpired   SubscriptionStatus = "EXPIRED"
)

// Subscription is the user-facing read model projected from ledger events.
// At most one ACTIVE row exists per (user, account, duration type); rows are
// never deleted, only status-transitioned.
type Subscription struct {
	ID             string
	UserID         string
	AccountID      string
	DurationTypeID string
	StartDate      time.Time
	EndDate        time.Time
	Status         SubscriptionStatus
	CreatedAt      time.Time
	LastUpdatedAt  time.Time
}

// DaysUntilExpiry returns whole days between now and the end date.
func (s *Subscription) DaysUntilExpiry(now time.Time) int {
	return int(s.EndDate.Sub(now.Truncate(24*time.Hour)).Hours() / 24)
}
