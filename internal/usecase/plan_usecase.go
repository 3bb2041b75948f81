package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/subscriptions/internal/domain"
)

const (
	planCacheKeyPrefix         = "plan:"
	accountPlansCacheKeyPrefix = "account-plans:"
)

// PlanUseCase handles the plan catalog with a read-through cache.
type PlanUseCase struct {
	planRepo PlanRepository
	cache    Cache
	cacheTTL time.Duration
	idGen    IDGenerator
	logger   zerolog.Logger
}

// NewPlanUseCase creates a new PlanUseCase.
func NewPlanUseCase(planRepo PlanRepository, cache Cache, cacheTTL time.Duration, idGen IDGenerator, logger zerolog.Logger) *PlanUseCase {
	return &PlanUseCase{
		planRepo: planRepo,
		cache:    cache,
		cacheTTL: cacheTTL,
		idGen:    idGen,
		logger:   logger,
	}
}

// GetPlan fetches a plan, trying the cache first. Cache failures fall
// through to the repository.
func (uc *PlanUseCase) GetPlan(ctx context.Context, id string) (*domain.SubscriptionPlan, error) {
	if cached, err := uc.cache.Get(ctx, planCacheKeyPrefix+id); err == nil && cached != "" {
		var plan domain.SubscriptionPlan
		if err := json.Unmarshal([]byte(cached), &plan); err == nil {
			return &plan, nil
		}
	}

	plan, err := uc.planRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	uc.cachePlan(ctx, plan)

	return plan, nil
}

// ListActivePlans lists the active plans for an account, cached as a unit.
func (uc *PlanUseCase) ListActivePlans(ctx context.Context, accountID string) ([]*domain.SubscriptionPlan, error) {
	if cached, err := uc.cache.Get(ctx, accountPlansCacheKeyPrefix+accountID); err == nil && cached != "" {
		var plans []*domain.SubscriptionPlan
		if err := json.Unmarshal([]byte(cached), &plans); err == nil {
			return plans, nil
		}
	}

	plans, err := uc.planRepo.ListActiveByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(plans); err == nil {
		if err := uc.cache.Set(ctx, accountPlansCacheKeyPrefix+accountID, string(data), uc.cacheTTL); err != nil {
			uc.logger.Warn().Err(err).Str("account_id", accountID).Msg("failed to cache account plans")
		}
	}

	return plans, nil
}

// FindActivePlan finds the single active plan for (account, duration type).
func (uc *PlanUseCase) FindActivePlan(ctx context.Context, accountID, durationTypeID string) (*domain.SubscriptionPlan, error) {
	plan, err := uc.planRepo.FindActiveByAccountAndDurationType(ctx, accountID, durationTypeID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.ErrPlanNotFound
	}

	return plan, nil
}

// CreatePlanInput carries a new plan definition.
type CreatePlanInput struct {
	AccountID      string
	DurationTypeID string
	Name           string
	Description    string
	Amount         decimal.Decimal
	Currency       string
	Features       map[string]any
}

// CreatePlan creates a plan, deactivating any previous active plan for the
// same (account, duration type).
func (uc *PlanUseCase) CreatePlan(ctx context.Context, input CreatePlanInput) (*domain.SubscriptionPlan, error) {
	now := time.Now().UTC()

	old, err := uc.planRepo.FindActiveByAccountAndDurationType(ctx, input.AccountID, input.DurationTypeID)
	if err != nil {
		return nil, err
	}
	if old != nil {
		if err := uc.planRepo.Deactivate(ctx, old.ID, now); err != nil {
			return nil, err
		}
		uc.invalidatePlan(ctx, old)
	}

	plan := &domain.SubscriptionPlan{
		ID:             uc.idGen.Generate(),
		AccountID:      input.AccountID,
		DurationTypeID: input.DurationTypeID,
		Name:           input.Name,
		Description:    input.Description,
		Amount:         input.Amount,
		Currency:       input.Currency,
		Features:       input.Features,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.planRepo.Insert(ctx, plan); err != nil {
		return nil, err
	}

	uc.cachePlan(ctx, plan)
	uc.invalidateAccountPlans(ctx, plan.AccountID)
	uc.logger.Info().Str("plan_id", plan.ID).Str("account_id", plan.AccountID).Msg("created subscription plan")

	return plan, nil
}

// UpdatePlanInput carries mutable plan fields; nil pointers are left as-is.
type UpdatePlanInput struct {
	Name        *string
	Description *string
	Amount      *decimal.Decimal
	Currency    *string
	Features    map[string]any
}

// UpdatePlan mutates an existing plan and invalidates its cache entries.
func (uc *PlanUseCase) UpdatePlan(ctx context.Context, id string, input UpdatePlanInput) (*domain.SubscriptionPlan, error) {
	plan, err := uc.planRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		plan.Name = *input.Name
	}
	if input.Description != nil {
		plan.Description = *input.Description
	}
	if input.Amount != nil {
		plan.Amount = *input.Amount
	}
	if input.Currency != nil {
		plan.Currency = *input.Currency
	}
	if input.Features != nil {
		plan.Features = input.Features
	}
	plan.UpdatedAt = time.Now().UTC()

	if err := uc.planRepo.Update(ctx, plan); err != nil {
		return nil, err
	}

	uc.invalidatePlan(ctx, plan)
	uc.invalidateAccountPlans(ctx, plan.AccountID)

	return plan, nil
}

// DeletePlan soft-deletes a plan.
func (uc *PlanUseCase) DeletePlan(ctx context.Context, id string) error {
	plan, err := uc.planRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := uc.planRepo.Deactivate(ctx, id, time.Now().UTC()); err != nil {
		return err
	}

	uc.invalidatePlan(ctx, plan)
	uc.invalidateAccountPlans(ctx, plan.AccountID)

	return nil
}

// PlanAmount implements AmountResolver for the payment processor.
func (uc *PlanUseCase) PlanAmount(ctx context.Context, planID string) (decimal.Decimal, string, error) {
	plan, err := uc.GetPlan(ctx, planID)
	if err != nil {
		return decimal.Zero, "", err
	}

	return plan.Amount, plan.Currency, nil
}

func (uc *PlanUseCase) cachePlan(ctx context.Context, plan *domain.SubscriptionPlan) {
	data, err := json.Marshal(plan)
	if err != nil {
		return
	}
	if err := uc.cache.Set(ctx, planCacheKeyPrefix+plan.ID, string(data), uc.cacheTTL); err != nil {
		uc.logger.Warn().Err(err).Str("plan_id", plan.ID).Msg("failed to cache plan")
	}
}

func (uc *PlanUseCase) invalidatePlan(ctx context.Context, plan *domain.SubscriptionPlan) {
	if err := uc.cache.Delete(ctx, planCacheKeyPrefix+plan.ID); err != nil {
		uc.logger.Warn().Err(err).Str("plan_id", plan.ID).Msg("failed to invalidate plan cache")
	}
}

func (uc *PlanUseCase) invalidateAccountPlans(ctx context.Context, accountID string) {
	if err := uc.cache.Delete(ctx, accountPlansCacheKeyPrefix+accountID); err != nil {
		uc.logger.Warn().Err(err).Str("account_id", accountID).Msg("failed to invalidate account plans cache")
	}
}
