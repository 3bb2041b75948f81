package usecase

import (
	"context"

	"github.com/iho/subscriptions/internal/domain"
)

// CatalogUseCase serves the reference data behind the plan catalog: the
// accounts users can subscribe to, the duration types plans run on, and the
// active business rules.
type CatalogUseCase struct {
	accountRepo  AccountRepository
	durationRepo DurationTypeRepository
	ruleRepo     RuleRepository
}

// NewCatalogUseCase creates a new CatalogUseCase.
func NewCatalogUseCase(accountRepo AccountRepository, durationRepo DurationTypeRepository, ruleRepo RuleRepository) *CatalogUseCase {
	return &CatalogUseCase{
		accountRepo:  accountRepo,
		durationRepo: durationRepo,
		ruleRepo:     ruleRepo,
	}
}

// ListAccounts lists every subscription account.
func (uc *CatalogUseCase) ListAccounts(ctx context.Context) ([]*domain.SubscriptionAccount, error) {
	return uc.accountRepo.List(ctx)
}

// GetAccount fetches a single account.
func (uc *CatalogUseCase) GetAccount(ctx context.Context, id string) (*domain.SubscriptionAccount, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// ListDurationTypes lists every duration type, shortest first.
func (uc *CatalogUseCase) ListDurationTypes(ctx context.Context) ([]*domain.DurationType, error) {
	return uc.durationRepo.List(ctx)
}

// ListActiveRules lists the active business rules.
func (uc *CatalogUseCase) ListActiveRules(ctx context.Context) ([]*domain.Rule, error) {
	return uc.ruleRepo.ListActive(ctx)
}
