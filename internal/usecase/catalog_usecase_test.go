package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/subscriptions/internal/domain"
	"github.com/iho/subscriptions/internal/usecase"
	"github.com/iho/subscriptions/internal/usecase/mocks"
)

func newCatalogFixture() (*usecase.CatalogUseCase, *mocks.MockAccountRepository, *mocks.MockDurationTypeRepository, *mocks.MockRuleRepository) {
	accounts := mocks.NewMockAccountRepository()
	durations := mocks.NewMockDurationTypeRepository()
	rules := mocks.NewMockRuleRepository()

	return usecase.NewCatalogUseCase(accounts, durations, rules), accounts, durations, rules
}

func TestCatalogUseCase_ListAccounts(t *testing.T) {
	ctx := context.Background()

	uc, accounts, _, _ := newCatalogFixture()
	accounts.Add(&domain.SubscriptionAccount{ID: "1", Name: "Streaming"})
	accounts.Add(&domain.SubscriptionAccount{ID: "2", Name: "News"})

	got, err := uc.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestCatalogUseCase_GetAccount(t *testing.T) {
	ctx := context.Background()

	uc, accounts, _, _ := newCatalogFixture()
	accounts.Add(&domain.SubscriptionAccount{ID: "1", Name: "Streaming"})

	account, err := uc.GetAccount(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Streaming", account.Name)

	_, err = uc.GetAccount(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrAccountNotFound))
}

func TestCatalogUseCase_ListDurationTypes(t *testing.T) {
	ctx := context.Background()

	uc, _, durations, _ := newCatalogFixture()
	durations.Add(&domain.DurationType{ID: "1", Name: "WEEKLY", Days: 7})
	durations.Add(&domain.DurationType{ID: "2", Name: "MONTHLY", Days: 30})

	got, err := uc.ListDurationTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestCatalogUseCase_ListActiveRules(t *testing.T) {
	ctx := context.Background()

	uc, _, _, rules := newCatalogFixture()
	rules.Add(&domain.Rule{ID: "r1", Key: domain.RuleMaxSubscriptionDurationDays, Value: "730", Active: true})
	rules.Add(&domain.Rule{ID: "r2", Key: "retired_rule", Value: "0", Active: false})

	got, err := uc.ListActiveRules(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.RuleMaxSubscriptionDurationDays, got[0].Key)
}
