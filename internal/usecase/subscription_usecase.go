package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/subscriptions/internal/domain"
)

// SubscriptionUseCase is the command-intake funnel: idempotency guard, then
// durable ledger append, then asynchronous payment. The caller gets an
// "accepted for processing" answer; everything downstream is async.
type SubscriptionUseCase struct {
	guard            IdempotencyGuard
	ledgerUC         *LedgerUseCase
	planUC           *PlanUseCase
	subscriptionRepo SubscriptionRepository
	durationRepo     DurationTypeRepository
	ruleRepo         RuleRepository
	payment          PaymentProcessor
	idGen            IDGenerator
	guardTTL         time.Duration
	logger           zerolog.Logger
}

// NewSubscriptionUseCase creates a new SubscriptionUseCase.
func NewSubscriptionUseCase(
	guard IdempotencyGuard,
	ledgerUC *LedgerUseCase,
	planUC *PlanUseCase,
	subscriptionRepo SubscriptionRepository,
	durationRepo DurationTypeRepository,
	ruleRepo RuleRepository,
	payment PaymentProcessor,
	idGen IDGenerator,
	guardTTL time.Duration,
	logger zerolog.Logger,
) *SubscriptionUseCase {
	return &SubscriptionUseCase{
		guard:            guard,
		ledgerUC:         ledgerUC,
		planUC:           planUC,
		subscriptionRepo: subscriptionRepo,
		durationRepo:     durationRepo,
		ruleRepo:         ruleRepo,
		payment:          payment,
		idGen:            idGen,
		guardTTL:         guardTTL,
		logger:           logger,
	}
}

// SubscribeInput carries a subscribe command.
type SubscribeInput struct {
	UserID    string
	PlanID    string
	RequestID string
}

// ExtendInput carries an extend command.
type ExtendInput struct {
	UserID         string
	SubscriptionID string
	RequestID      string
}

// Subscribe accepts a new-subscription command. On success the returned
// entry is INITIATED and payment runs asynchronously.
func (uc *SubscriptionUseCase) Subscribe(ctx context.Context, input SubscribeInput) (*domain.LedgerEntry, error) {
	plan, err := uc.planUC.GetPlan(ctx, input.PlanID)
	if err != nil {
		return nil, err
	}

	durationType, err := uc.durationRepo.GetByID(ctx, plan.DurationTypeID)
	if err != nil {
		return nil, err
	}

	key := domain.IdempotencyKey(input.UserID, plan.AccountID, plan.DurationTypeID, input.RequestID)
	if err := uc.checkGuard(ctx, key); err != nil {
		return nil, err
	}

	startDate := time.Now().UTC().Truncate(24 * time.Hour)
	endDate := domain.CalculateEndDate(startDate, durationType.Days)

	afterState := domain.State{
		"start_date": domain.FormatDate(startDate),
		"end_date":   domain.FormatDate(endDate),
		"status":     string(domain.SubscriptionActive),
	}

	entry := domain.NewLedgerEntry(
		uc.idGen.Generate(), key, input.UserID, plan.ID, plan.AccountID, plan.DurationTypeID,
		domain.EventSubscribed, nil, afterState, time.Now().UTC(),
	)

	return uc.accept(ctx, entry)
}

// Extend accepts an extension command for an existing subscription. The new
// end date is computed from the current end date, bounded by the configured
// maximum subscription duration rule.
func (uc *SubscriptionUseCase) Extend(ctx context.Context, input ExtendInput) (*domain.LedgerEntry, error) {
	sub, err := uc.subscriptionRepo.GetByID(ctx, input.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.UserID != input.UserID {
		return nil, domain.ErrSubscriptionNotFound
	}

	plan, err := uc.planUC.FindActivePlan(ctx, sub.AccountID, sub.DurationTypeID)
	if err != nil {
		return nil, err
	}

	durationType, err := uc.durationRepo.GetByID(ctx, sub.DurationTypeID)
	if err != nil {
		return nil, err
	}

	newEndDate := domain.ExtendEndDate(sub.EndDate, durationType.Days)
	if err := uc.checkDurationRule(ctx, newEndDate); err != nil {
		return nil, err
	}

	key := domain.IdempotencyKey(input.UserID, sub.AccountID, sub.DurationTypeID, input.RequestID)
	if err := uc.checkGuard(ctx, key); err != nil {
		return nil, err
	}

	beforeState := domain.State{
		"end_date": domain.FormatDate(sub.EndDate),
		"status":   string(sub.Status),
	}
	afterState := domain.State{
		"end_date": domain.FormatDate(newEndDate),
		"status":   string(sub.Status),
	}

	entry := domain.NewLedgerEntry(
		uc.idGen.Generate(), key, input.UserID, plan.ID, sub.AccountID, sub.DurationTypeID,
		domain.EventExtended, beforeState, afterState, time.Now().UTC(),
	)

	return uc.accept(ctx, entry)
}

// GetUserSubscriptions lists every subscription for a user.
func (uc *SubscriptionUseCase) GetUserSubscriptions(ctx context.Context, userID string) ([]*domain.Subscription, error) {
	return uc.subscriptionRepo.ListByUser(ctx, userID)
}

// GetActiveUserSubscriptions lists only ACTIVE subscriptions for a user.
func (uc *SubscriptionUseCase) GetActiveUserSubscriptions(ctx context.Context, userID string) ([]*domain.Subscription, error) {
	return uc.subscriptionRepo.ListActiveByUser(ctx, userID)
}

// checkGuard performs the atomic set-if-absent against the dedup store. A
// store failure rejects the request (fail closed) rather than silently
// allowing duplicates.
func (uc *SubscriptionUseCase) checkGuard(ctx context.Context, key string) error {
	accepted, err := uc.guard.CheckAndSet(ctx, key, uc.guardTTL)
	if err != nil {
		uc.logger.Error().Err(err).Str("idempotency_key", key).Msg("idempotency guard unreachable")

		return fmt.Errorf("%w: %w", domain.ErrGuardUnavailable, err)
	}
	if !accepted {
		return domain.ErrDuplicateRequest
	}

	return nil
}

// accept appends the entry and kicks off the async payment. A losing
// duplicate append surfaces DUPLICATE_REQUEST to the caller.
func (uc *SubscriptionUseCase) accept(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	accepted, created, err := uc.ledgerUC.Append(ctx, entry)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, domain.ErrDuplicateRequest
	}

	uc.payment.ProcessAsync(accepted)

	return accepted, nil
}

func (uc *SubscriptionUseCase) checkDurationRule(ctx context.Context, newEndDate time.Time) error {
	rule, err := uc.ruleRepo.GetByKey(ctx, domain.RuleMaxSubscriptionDurationDays)
	if err != nil || rule == nil || !rule.Active {
		// Rule table is advisory; missing rule means no bound.
		return nil
	}

	maxDays, err := strconv.Atoi(rule.Value)
	if err != nil {
		uc.logger.Warn().Str("rule_key", rule.Key).Str("value", rule.Value).Msg("unparseable rule value, ignoring")

		return nil
	}

	limit := time.Now().UTC().AddDate(0, 0, maxDays)
	if newEndDate.After(limit) {
		return domain.ErrExtensionLimitExceeded
	}

	return nil
}
