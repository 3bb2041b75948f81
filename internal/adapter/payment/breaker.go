package payment

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrCircuitOpen is returned when the breaker rejects a call outright.
var ErrCircuitOpen = errors.New("payment circuit breaker open")

// BreakerState is the state of the circuit breaker.
type BreakerState int

const (
	// BreakerClosed allows calls and tracks outcomes over a sliding window.
	BreakerClosed BreakerState = iota
	// BreakerOpen rejects calls until the wait period elapses.
	BreakerOpen
	// BreakerHalfOpen admits a limited number of trial calls.
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures the circuit breaker. The failure rate is computed
// over a count-based sliding window of the last WindowSize calls and only
// evaluated once MinCalls outcomes have been recorded.
type BreakerConfig struct {
	WindowSize       int
	MinCalls         int
	FailureRate      float64
	OpenWait         time.Duration
	HalfOpenMaxCalls int
	OnStateChange    func(from, to BreakerState)
}

// DefaultBreakerConfig returns the production defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		WindowSize:       10,
		MinCalls:         5,
		FailureRate:      0.5,
		OpenWait:         60 * time.Second,
		HalfOpenMaxCalls: 3,
	}
}

// Breaker is a count-based sliding-window circuit breaker guarding the
// payment gateway.
type Breaker struct {
	config BreakerConfig
	logger zerolog.Logger

	mu            sync.Mutex
	state         BreakerState
	window        []bool
	windowPos     int
	windowFilled  int
	halfOpenCalls int
	halfOpenFails int
	openedAt      time.Time
}

// NewBreaker creates a breaker in the closed state.
func NewBreaker(config BreakerConfig, logger zerolog.Logger) *Breaker {
	if config.WindowSize <= 0 {
		config.WindowSize = 10
	}
	if config.MinCalls <= 0 {
		config.MinCalls = config.WindowSize / 2
	}
	if config.FailureRate <= 0 {
		config.FailureRate = 0.5
	}
	if config.HalfOpenMaxCalls <= 0 {
		config.HalfOpenMaxCalls = 3
	}

	return &Breaker{
		config: config,
		logger: logger,
		state:  BreakerClosed,
		window: make([]bool, config.WindowSize),
	}
}

// Allow reports whether a call may proceed. Returns ErrCircuitOpen when the
// breaker is rejecting calls.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return nil

	case BreakerOpen:
		if time.Since(b.openedAt) >= b.config.OpenWait {
			b.setState(BreakerHalfOpen)
			// The transitioning call is itself the first trial call.
			b.halfOpenCalls = 1
			b.halfOpenFails = 0
			return nil
		}
		return ErrCircuitOpen

	case BreakerHalfOpen:
		if b.halfOpenCalls >= b.config.HalfOpenMaxCalls {
			return ErrCircuitOpen
		}
		b.halfOpenCalls++
		return nil

	default:
		return ErrCircuitOpen
	}
}

// Mark records a call outcome. Pass nil for success.
func (b *Breaker) Mark(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	failed := err != nil

	switch b.state {
	case BreakerClosed:
		b.record(failed)
		if b.windowFilled >= b.config.MinCalls && b.failureRate() >= b.config.FailureRate {
			b.trip()
		}

	case BreakerHalfOpen:
		if failed {
			b.halfOpenFails++
			b.trip()
			return
		}
		if b.halfOpenCalls >= b.config.HalfOpenMaxCalls && b.halfOpenFails == 0 {
			b.reset()
		}

	case BreakerOpen:
		// Late outcome from a call admitted before the trip; ignored.
	}
}

// State returns the current breaker state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) record(failed bool) {
	b.window[b.windowPos] = failed
	b.windowPos = (b.windowPos + 1) % len(b.window)
	if b.windowFilled < len(b.window) {
		b.windowFilled++
	}
}

func (b *Breaker) failureRate() float64 {
	failures := 0
	for i := 0; i < b.windowFilled; i++ {
		if b.window[i] {
			failures++
		}
	}
	return float64(failures) / float64(b.windowFilled)
}

func (b *Breaker) trip() {
	b.setState(BreakerOpen)
	b.openedAt = time.Now()
	b.logger.Warn().Dur("open_wait", b.config.OpenWait).Msg("payment circuit breaker opened")
}

func (b *Breaker) reset() {
	b.setState(BreakerClosed)
	b.window = make([]bool, b.config.WindowSize)
	b.windowPos = 0
	b.windowFilled = 0
	b.logger.Info().Msg("payment circuit breaker closed")
}

func (b *Breaker) setState(to BreakerState) {
	from := b.state
	if from == to {
		return
	}
	b.state = to

	if b.config.OnStateChange != nil {
		go b.config.OnStateChange(from, to)
	}
}
