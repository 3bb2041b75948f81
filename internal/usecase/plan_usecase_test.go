package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/subscriptions/internal/domain"
	"github.com/iho/subscriptions/internal/usecase"
	"github.com/iho/subscriptions/internal/usecase/mocks"
)

type planFixture struct {
	uc       *usecase.PlanUseCase
	planRepo *mocks.MockPlanRepository
	cache    *mocks.MockCache
}

func newPlanFixture() *planFixture {
	f := &planFixture{
		planRepo: mocks.NewMockPlanRepository(),
		cache:    mocks.NewMockCache(),
	}
	f.uc = usecase.NewPlanUseCase(f.planRepo, f.cache, time.Minute, mocks.NewMockIDGenerator(), zerolog.Nop())

	return f
}

func TestPlanUseCase_GetPlan(t *testing.T) {
	ctx := context.Background()

	t.Run("serves from cache on second read", func(t *testing.T) {
		f := newPlanFixture()
		require.NoError(t, f.planRepo.Insert(ctx, &domain.SubscriptionPlan{
			ID:        "plan-1",
			AccountID: "1",
			Amount:    decimal.NewFromInt(10),
			Active:    true,
		}))

		_, err := f.uc.GetPlan(ctx, "plan-1")
		require.NoError(t, err)

		repoCalls := 0
		f.planRepo.GetByIDFunc = func(ctx context.Context, id string) (*domain.SubscriptionPlan, error) {
			repoCalls++
			return nil, domain.ErrPlanNotFound
		}

		plan, err := f.uc.GetPlan(ctx, "plan-1")
		require.NoError(t, err)
		assert.Equal(t, "plan-1", plan.ID)
		assert.Equal(t, 0, repoCalls)
	})

	t.Run("cache outage falls through to the repository", func(t *testing.T) {
		f := newPlanFixture()
		f.cache.GetFunc = func(ctx context.Context, key string) (string, error) {
			return "", assert.AnError
		}
		f.cache.SetFunc = func(ctx context.Context, key, value string, ttl time.Duration) error {
			return assert.AnError
		}
		require.NoError(t, f.planRepo.Insert(ctx, &domain.SubscriptionPlan{ID: "plan-1", Active: true}))

		plan, err := f.uc.GetPlan(ctx, "plan-1")
		require.NoError(t, err)
		assert.Equal(t, "plan-1", plan.ID)
	})
}

func TestPlanUseCase_CreatePlan(t *testing.T) {
	ctx := context.Background()

	t.Run("deactivates the previous active plan", func(t *testing.T) {
		f := newPlanFixture()
		require.NoError(t, f.planRepo.Insert(ctx, &domain.SubscriptionPlan{
			ID:             "plan-old",
			AccountID:      "1",
			DurationTypeID: "2",
			Active:         true,
		}))

		created, err := f.uc.CreatePlan(ctx, usecase.CreatePlanInput{
			AccountID:      "1",
			DurationTypeID: "2",
			Name:           "Monthly v2",
			Amount:         decimal.NewFromInt(12),
			Currency:       "USD",
		})
		require.NoError(t, err)
		assert.True(t, created.Active)

		old, err := f.planRepo.GetByID(ctx, "plan-old")
		require.NoError(t, err)
		assert.False(t, old.Active)
		assert.NotNil(t, old.DeletedAt)

		active, err := f.planRepo.FindActiveByAccountAndDurationType(ctx, "1", "2")
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, created.ID, active.ID)
	})
}

func TestPlanUseCase_UpdatePlan(t *testing.T) {
	ctx := context.Background()
	f := newPlanFixture()

	require.NoError(t, f.planRepo.Insert(ctx, &domain.SubscriptionPlan{
		ID:        "plan-1",
		AccountID: "1",
		Name:      "Monthly",
		Amount:    decimal.NewFromInt(10),
		Currency:  "USD",
		Active:    true,
	}))

	newName := "Monthly Plus"
	newAmount := decimal.NewFromInt(15)

	plan, err := f.uc.UpdatePlan(ctx, "plan-1", usecase.UpdatePlanInput{
		Name:   &newName,
		Amount: &newAmount,
	})
	require.NoError(t, err)
	assert.Equal(t, "Monthly Plus", plan.Name)
	assert.True(t, plan.Amount.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, "USD", plan.Currency, "unset fields are untouched")
}

func TestPlanUseCase_DeletePlan(t *testing.T) {
	ctx := context.Background()
	f := newPlanFixture()

	require.NoError(t, f.planRepo.Insert(ctx, &domain.SubscriptionPlan{ID: "plan-1", AccountID: "1", Active: true}))
	require.NoError(t, f.uc.DeletePlan(ctx, "plan-1"))

	plan, err := f.planRepo.GetByID(ctx, "plan-1")
	require.NoError(t, err)
	assert.False(t, plan.Active)
}

func TestPlanUseCase_PlanAmount(t *testing.T) {
	ctx := context.Background()
	f := newPlanFixture()

	require.NoError(t, f.planRepo.Insert(ctx, &domain.SubscriptionPlan{
		ID:       "plan-1",
		Amount:   decimal.RequireFromString("9.99"),
		Currency: "EUR",
		Active:   true,
	}))

	amount, currency, err := f.uc.PlanAmount(ctx, "plan-1")
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.RequireFromString("9.99")))
	assert.Equal(t, "EUR", currency)

	_, _, err = f.uc.PlanAmount(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrPlanNotFound)
}
