package payment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/subscriptions/internal/domain"
)

type fakeGateway struct {
	mu       sync.Mutex
	calls    int
	failures int
	err      error
}

func (g *fakeGateway) Process(ctx context.Context, req ProcessRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls++
	if g.err != nil && g.calls <= g.failures {
		return "", g.err
	}

	return "pay-ref-" + req.BookKeepingID, nil
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type fakeLedger struct {
	mu        sync.Mutex
	completed map[string]string
	done      chan struct{}
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		completed: make(map[string]string),
		done:      make(chan struct{}, 16),
	}
}

func (l *fakeLedger) MarkCompleted(ctx context.Context, id, ref string) error {
	l.mu.Lock()
	l.completed[id] = ref
	l.mu.Unlock()
	l.done <- struct{}{}
	return nil
}

func (l *fakeLedger) wait(t *testing.T) {
	t.Helper()
	select {
	case <-l.done:
	case <-time.After(2 * time.Second):
		t.Fatal("ledger was never updated")
	}
}

type fakeAmounts struct{}

func (fakeAmounts) PlanAmount(ctx context.Context, planID string) (decimal.Decimal, string, error) {
	return decimal.NewFromInt(10), "USD", nil
}

func testEntry(id string) *domain.LedgerEntry {
	return domain.NewLedgerEntry(id, "100:1:2:"+id, "100", "plan-1", "1", "2",
		domain.EventSubscribed, nil, domain.State{"end_date": "2024-01-31"}, time.Now().UTC())
}

func newTestProcessor(gateway Gateway, ledger Ledger, breaker *Breaker) *Processor {
	cfg := ProcessorConfig{
		Workers:       2,
		QueueSize:     8,
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	}
	if breaker == nil {
		breaker = NewBreaker(DefaultBreakerConfig(), zerolog.Nop())
	}

	return NewProcessor(gateway, breaker, ledger, fakeAmounts{}, nil, cfg, zerolog.Nop())
}

func TestProcessorMarksCompletedOnSuccess(t *testing.T) {
	gateway := &fakeGateway{}
	ledger := newFakeLedger()
	p := newTestProcessor(gateway, ledger, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	p.ProcessAsync(testEntry("bk-1"))
	ledger.wait(t)

	ledger.mu.Lock()
	defer ledger.mu.Unlock()
	assert.Equal(t, "pay-ref-bk-1", ledger.completed["bk-1"])
}

func TestProcessorRetriesTransientFailures(t *testing.T) {
	gateway := &fakeGateway{err: errors.New("gateway hiccup"), failures: 2}
	ledger := newFakeLedger()
	p := newTestProcessor(gateway, ledger, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	p.ProcessAsync(testEntry("bk-1"))
	ledger.wait(t)

	assert.Equal(t, 3, gateway.callCount(), "two failures then a success")

	ledger.mu.Lock()
	defer ledger.mu.Unlock()
	assert.Equal(t, "pay-ref-bk-1", ledger.completed["bk-1"])
}

func TestProcessorLeavesEntryInitiatedAfterRetryBudget(t *testing.T) {
	gateway := &fakeGateway{err: errors.New("card declined"), failures: 100}
	ledger := newFakeLedger()
	p := newTestProcessor(gateway, ledger, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	p.ProcessAsync(testEntry("bk-1"))

	require.Eventually(t, func() bool {
		return gateway.callCount() == 3
	}, 2*time.Second, 5*time.Millisecond, "fixed budget of 3 attempts")

	// No ledger transition on exhaustion: the entry stays INITIATED so the
	// reconciliation sweep can re-enqueue it once the gateway recovers.
	select {
	case <-ledger.done:
		t.Fatal("exhausted payment must not advance the ledger entry")
	case <-time.After(100 * time.Millisecond):
	}

	ledger.mu.Lock()
	defer ledger.mu.Unlock()
	assert.Empty(t, ledger.completed)
}

func TestProcessorDefersWhenBreakerOpen(t *testing.T) {
	gateway := &fakeGateway{}
	ledger := newFakeLedger()

	breaker := NewBreaker(testBreakerConfig(), zerolog.Nop())
	for i := 0; i < 5; i++ {
		require.NoError(t, breaker.Allow())
		breaker.Mark(errors.New("gateway down"))
	}
	require.Equal(t, BreakerOpen, breaker.State())

	p := newTestProcessor(gateway, ledger, breaker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	p.ProcessAsync(testEntry("bk-1"))

	// The entry must stay INITIATED: neither completed nor failed, and the
	// gateway is never called while the breaker is open.
	select {
	case <-ledger.done:
		t.Fatal("entry must not reach a terminal state while breaker is open")
	case <-time.After(100 * time.Millisecond):
	}

	assert.Equal(t, 0, gateway.callCount())
}

func TestProcessAsyncNeverBlocksOnFullQueue(t *testing.T) {
	p := newTestProcessor(&fakeGateway{}, newFakeLedger(), nil)
	// Workers never started; fill the queue past capacity.

	done := make(chan struct{})
	go func() {
		for i := 0; i < 64; i++ {
			p.ProcessAsync(testEntry("bk-overflow"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ProcessAsync blocked on a full queue")
	}
}
