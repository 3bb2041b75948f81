package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/subscriptions/internal/domain"
	"github.com/iho/subscriptions/internal/usecase"
	"github.com/iho/subscriptions/internal/usecase/mocks"
)

func TestReconciliationUseCase_Sweep(t *testing.T) {
	ctx := context.Background()

	t.Run("republishes stuck COMPLETED entries", func(t *testing.T) {
		repo := mocks.NewMockLedgerRepository()
		producer := mocks.NewMockEventProducer()
		payment := mocks.NewMockPaymentProcessor()

		stuck := newLedgerEntry("bk-1", "100:1:2:req-1")
		require.NoError(t, repo.Insert(ctx, stuck))
		require.NoError(t, repo.MarkCompleted(ctx, "bk-1", "pay-ref-1", time.Now().UTC().Add(-10*time.Minute)))

		uc := usecase.NewReconciliationUseCase(usecase.ReconciliationConfig{
			LedgerRepo: repo,
			Producer:   producer,
			Payment:    payment,
			Logger:     zerolog.Nop(),
		})

		result, err := uc.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Republished)
		assert.Equal(t, 0, result.Reenqueued)

		published := producer.Published()
		require.Len(t, published, 1)
		assert.Equal(t, "bk-1", published[0].ID)
	})

	t.Run("re-enqueues stale INITIATED entries", func(t *testing.T) {
		repo := mocks.NewMockLedgerRepository()
		payment := mocks.NewMockPaymentProcessor()

		stale := newLedgerEntry("bk-1", "100:1:2:req-1")
		stale.CreatedAt = time.Now().UTC().Add(-time.Hour)
		require.NoError(t, repo.Insert(ctx, stale))

		fresh := newLedgerEntry("bk-2", "100:1:2:req-2")
		require.NoError(t, repo.Insert(ctx, fresh))

		uc := usecase.NewReconciliationUseCase(usecase.ReconciliationConfig{
			LedgerRepo: repo,
			Producer:   mocks.NewMockEventProducer(),
			Payment:    payment,
			Grace:      5 * time.Minute,
			Logger:     zerolog.Nop(),
		})

		result, err := uc.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Reenqueued)

		enqueued := payment.Enqueued()
		require.Len(t, enqueued, 1)
		assert.Equal(t, "bk-1", enqueued[0].ID, "entries inside the grace window stay untouched")
	})

	t.Run("publish failure skips the entry without aborting the pass", func(t *testing.T) {
		repo := mocks.NewMockLedgerRepository()
		producer := mocks.NewMockEventProducer()
		producer.PublishFunc = func(ctx context.Context, entry *domain.LedgerEntry) error {
			return errors.New("stream unavailable")
		}

		stuck := newLedgerEntry("bk-1", "100:1:2:req-1")
		require.NoError(t, repo.Insert(ctx, stuck))
		require.NoError(t, repo.MarkCompleted(ctx, "bk-1", "pay-ref-1", time.Now().UTC().Add(-10*time.Minute)))

		uc := usecase.NewReconciliationUseCase(usecase.ReconciliationConfig{
			LedgerRepo: repo,
			Producer:   producer,
			Payment:    mocks.NewMockPaymentProcessor(),
			Logger:     zerolog.Nop(),
		})

		result, err := uc.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Republished)
	})
}

func TestReconciliationUseCase_RunStopsOnCancel(t *testing.T) {
	uc := usecase.NewReconciliationUseCase(usecase.ReconciliationConfig{
		LedgerRepo: mocks.NewMockLedgerRepository(),
		Producer:   mocks.NewMockEventProducer(),
		Payment:    mocks.NewMockPaymentProcessor(),
		Logger:     zerolog.Nop(),
	})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- uc.Run(ctx, time.Hour)
	}()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}
