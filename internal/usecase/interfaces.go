package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/subscriptions/internal/domain"
)

// LedgerRepository defines data access for ledger entries. The table carries
// a storage-level unique constraint on idempotency_key; Insert must surface
// a violation as domain.ErrDuplicateRequest.
type LedgerRepository interface {
	Insert(ctx context.Context, entry *domain.LedgerEntry) error
	GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.LedgerEntry, error)
	MarkCompleted(ctx context.Context, id, paymentReferenceID string, completedAt time.Time) error
	MarkProcessed(ctx context.Context, id string, processedAt time.Time) error
	UpdateRetry(ctx context.Context, id string, retryCount int, status domain.LedgerStatus, errorMessage *string) error
	ListCompletedUnprocessed(ctx context.Context, olderThan time.Time, limit int) ([]*domain.LedgerEntry, error)
	ListStaleInitiated(ctx context.Context, olderThan time.Time, limit int) ([]*domain.LedgerEntry, error)
}

// SubscriptionRepository defines data access for the subscription read model.
type SubscriptionRepository interface {
	Insert(ctx context.Context, sub *domain.Subscription) error
	GetByID(ctx context.Context, id string) (*domain.Subscription, error)
	FindActive(ctx context.Context, userID, accountID, durationTypeID string) (*domain.Subscription, error)
	UpdateEndDate(ctx context.Context, id string, endDate, updatedAt time.Time) error
	UpdateStatus(ctx context.Context, id string, status domain.SubscriptionStatus, updatedAt time.Time) error
	ListByUser(ctx context.Context, userID string) ([]*domain.Subscription, error)
	ListActiveByUser(ctx context.Context, userID string) ([]*domain.Subscription, error)
	ExpireBefore(ctx context.Context, cutoff, updatedAt time.Time) (int64, error)
	ListActiveEndingBetween(ctx context.Context, from, to time.Time) ([]*domain.Subscription, error)
}

// PlanRepository defines data access for subscription plans.
type PlanRepository interface {
	Insert(ctx context.Context, plan *domain.SubscriptionPlan) error
	GetByID(ctx context.Context, id string) (*domain.SubscriptionPlan, error)
	ListActiveByAccount(ctx context.Context, accountID string) ([]*domain.SubscriptionPlan, error)
	FindActiveByAccountAndDurationType(ctx context.Context, accountID, durationTypeID string) (*domain.SubscriptionPlan, error)
	Update(ctx context.Context, plan *domain.SubscriptionPlan) error
	Deactivate(ctx context.Context, id string, deletedAt time.Time) error
}

// AccountRepository defines data access for subscription accounts.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*domain.SubscriptionAccount, error)
	List(ctx context.Context) ([]*domain.SubscriptionAccount, error)
}

// DurationTypeRepository defines data access for duration types.
type DurationTypeRepository interface {
	GetByID(ctx context.Context, id string) (*domain.DurationType, error)
	List(ctx context.Context) ([]*domain.DurationType, error)
}

// RuleRepository defines data access for business rules.
type RuleRepository interface {
	GetByKey(ctx context.Context, key string) (*domain.Rule, error)
	ListActive(ctx context.Context) ([]*domain.Rule, error)
}

// IdempotencyGuard is the fast duplicate-request check in front of the
// ledger. CheckAndSet returns true only when the key was newly set. The
// guard is a throttle; the ledger's unique constraint is the backstop.
type IdempotencyGuard interface {
	CheckAndSet(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// EventProducer publishes completed ledger entries to the event bus.
type EventProducer interface {
	Publish(ctx context.Context, entry *domain.LedgerEntry) error
}

// PaymentProcessor schedules an outbound payment call without blocking the
// caller.
type PaymentProcessor interface {
	ProcessAsync(entry *domain.LedgerEntry)
}

// Notifier receives hooks after successful read-model updates.
type Notifier interface {
	SubscriptionCreated(ctx context.Context, sub *domain.Subscription)
	SubscriptionExtended(ctx context.Context, sub *domain.Subscription)
	SubscriptionExpiring(ctx context.Context, sub *domain.Subscription, daysUntilExpiry int)
}

// BusinessMetrics records domain-level counters.
type BusinessMetrics interface {
	SubscriptionCreated(accountID, durationTypeID string)
	SubscriptionExtended(accountID, durationTypeID string)
	LedgerEvent(eventType, status string)
	MaterializationRetry()
}

// Cache defines caching operations for the plan catalog.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// AmountResolver resolves the chargeable amount for a plan.
type AmountResolver interface {
	PlanAmount(ctx context.Context, planID string) (decimal.Decimal, string, error)
}

// NopMetrics is a BusinessMetrics implementation that discards everything.
// Used by one-shot tooling that has no metrics endpoint.
type NopMetrics struct{}

func (NopMetrics) SubscriptionCreated(accountID, durationTypeID string)  {}
func (NopMetrics) SubscriptionExtended(accountID, durationTypeID string) {}
func (NopMetrics) LedgerEvent(eventType, status string)                  {}
func (NopMetrics) MaterializationRetry()                                 {}

// NopCache is a Cache implementation that never stores anything.
type NopCache struct{}

func (NopCache) Get(ctx context.Context, key string) (string, error) { return "", nil }

func (NopCache) Set(ctx context.Context, key, value string, ttl time.Duration) error { return nil }

func (NopCache) Delete(ctx context.Context, key string) error { return nil }
