package payment

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBreakerConfig() BreakerConfig {
	return BreakerConfig{
		WindowSize:       10,
		MinCalls:         5,
		FailureRate:      0.5,
		OpenWait:         50 * time.Millisecond,
		HalfOpenMaxCalls: 3,
	}
}

func TestBreakerStaysClosedBelowMinCalls(t *testing.T) {
	b := NewBreaker(testBreakerConfig(), zerolog.Nop())

	// Four straight failures: 100% failure rate but below the minimum
	// sample size.
	for i := 0; i < 4; i++ {
		require.NoError(t, b.Allow())
		b.Mark(errors.New("gateway down"))
	}

	assert.Equal(t, BreakerClosed, b.State())
	assert.NoError(t, b.Allow())
}

func TestBreakerOpensOnFailureRate(t *testing.T) {
	b := NewBreaker(testBreakerConfig(), zerolog.Nop())

	for i := 0; i < 2; i++ {
		require.NoError(t, b.Allow())
		b.Mark(nil)
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, b.Allow())
		b.Mark(errors.New("gateway down"))
	}

	// 3 of 5 failed, above the 50% threshold.
	assert.Equal(t, BreakerOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	cfg := testBreakerConfig()
	b := NewBreaker(cfg, zerolog.Nop())

	for i := 0; i < 5; i++ {
		require.NoError(t, b.Allow())
		b.Mark(errors.New("gateway down"))
	}
	require.Equal(t, BreakerOpen, b.State())

	time.Sleep(cfg.OpenWait + 10*time.Millisecond)

	// Trial calls are admitted and all succeed.
	for i := 0; i < cfg.HalfOpenMaxCalls; i++ {
		require.NoError(t, b.Allow())
		b.Mark(nil)
	}

	assert.Equal(t, BreakerClosed, b.State())
	assert.NoError(t, b.Allow())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	cfg := testBreakerConfig()
	b := NewBreaker(cfg, zerolog.Nop())

	for i := 0; i < 5; i++ {
		require.NoError(t, b.Allow())
		b.Mark(errors.New("gateway down"))
	}

	time.Sleep(cfg.OpenWait + 10*time.Millisecond)

	require.NoError(t, b.Allow())
	b.Mark(errors.New("still down"))

	assert.Equal(t, BreakerOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)
}

func TestBreakerHalfOpenLimitsTrialCalls(t *testing.T) {
	cfg := testBreakerConfig()
	b := NewBreaker(cfg, zerolog.Nop())

	for i := 0; i < 5; i++ {
		require.NoError(t, b.Allow())
		b.Mark(errors.New("gateway down"))
	}

	time.Sleep(cfg.OpenWait + 10*time.Millisecond)

	// The call that reopens the circuit into half-open counts against the
	// trial budget: exactly HalfOpenMaxCalls calls are admitted in total.
	admitted := 0
	for i := 0; i < 10; i++ {
		if b.Allow() == nil {
			admitted++
		}
	}

	assert.Equal(t, cfg.HalfOpenMaxCalls, admitted, "trial budget exhausted")
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)
}

func TestBreakerSlidingWindowEvictsOldOutcomes(t *testing.T) {
	b := NewBreaker(testBreakerConfig(), zerolog.Nop())

	// Two early failures stay below the trip rate, then successes roll
	// them out of the 10-call window.
	for i := 0; i < 2; i++ {
		require.NoError(t, b.Allow())
		b.Mark(errors.New("gateway down"))
	}
	for i := 0; i < 12; i++ {
		require.NoError(t, b.Allow())
		b.Mark(nil)
	}

	assert.Equal(t, BreakerClosed, b.State())
}
