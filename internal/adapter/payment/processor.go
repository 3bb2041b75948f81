package payment

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/iho/subscriptions/internal/domain"
	"github.com/iho/subscriptions/internal/usecase"
)

// Gateway submits charges to the external payment provider.
type Gateway interface {
	Process(ctx context.Context, req ProcessRequest) (string, error)
}

// Ledger is the slice of the ledger the processor drives. Payment failure
// has no ledger arc: an entry the gateway never confirmed stays INITIATED
// and the reconciliation sweep re-enqueues it.
type Ledger interface {
	MarkCompleted(ctx context.Context, id, paymentReferenceID string) error
}

// Metrics records payment attempt outcomes.
type Metrics interface {
	PaymentAttempt(outcome string)
}

// ProcessorConfig configures the async payment worker pool.
type ProcessorConfig struct {
	Workers       int
	QueueSize     int
	RetryAttempts int
	RetryDelay    time.Duration
}

// DefaultProcessorConfig returns the production defaults: a fixed-delay retry
// of 3 attempts spaced 2 seconds apart.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		Workers:       4,
		QueueSize:     256,
		RetryAttempts: 3,
		RetryDelay:    2 * time.Second,
	}
}

// Processor implements usecase.PaymentProcessor. ProcessAsync never blocks
// the intake path: entries go onto a bounded queue and workers drive the
// gateway call through the circuit breaker and retry policy. An entry the
// pool cannot take stays INITIATED for the reconciliation sweep.
type Processor struct {
	gateway  Gateway
	breaker  *Breaker
	ledger   Ledger
	amounts  usecase.AmountResolver
	metrics  Metrics
	config   ProcessorConfig
	queue    chan *domain.LedgerEntry
	logger   zerolog.Logger
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewProcessor creates a Processor.
func NewProcessor(
	gateway Gateway,
	breaker *Breaker,
	ledger Ledger,
	amounts usecase.AmountResolver,
	metrics Metrics,
	config ProcessorConfig,
	logger zerolog.Logger,
) *Processor {
	if config.Workers <= 0 {
		config.Workers = 4
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 256
	}
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 3
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 2 * time.Second
	}

	return &Processor{
		gateway: gateway,
		breaker: breaker,
		ledger:  ledger,
		amounts: amounts,
		metrics: metrics,
		config:  config,
		queue:   make(chan *domain.LedgerEntry, config.QueueSize),
		logger:  logger,
	}
}

// Start launches the worker pool. Workers drain until the context is
// cancelled.
func (p *Processor) Start(ctx context.Context) {
	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}

	p.logger.Info().Int("workers", p.config.Workers).Msg("payment workers started")
}

// Stop waits for in-flight work to finish.
func (p *Processor) Stop() {
	p.stopOnce.Do(func() {
		close(p.queue)
	})
	p.wg.Wait()
}

// ProcessAsync enqueues an entry for payment. Never blocks; a full queue
// drops the entry and leaves it to reconciliation.
func (p *Processor) ProcessAsync(entry *domain.LedgerEntry) {
	select {
	case p.queue <- entry:
	default:
		p.logger.Error().
			Str("entry_id", entry.ID).
			Msg("payment queue full, entry left for reconciliation")
	}
}

func (p *Processor) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-p.queue:
			if !ok {
				return
			}
			p.process(ctx, entry)
		}
	}
}

func (p *Processor) process(ctx context.Context, entry *domain.LedgerEntry) {
	amount, currency, err := p.amounts.PlanAmount(ctx, entry.PlanID)
	if err != nil {
		p.logger.Error().Err(err).
			Str("entry_id", entry.ID).
			Msg("cannot resolve plan amount, entry left for reconciliation")
		return
	}

	req := ProcessRequest{
		BookKeepingID:      entry.ID,
		UserID:             entry.UserID,
		Amount:             amount,
		Currency:           currency,
		SubscriptionPlanID: entry.PlanID,
	}

	ref, err := p.charge(ctx, req)
	if err != nil {
		if errors.Is(err, ErrCircuitOpen) {
			// Not a verdict on this payment. The entry stays INITIATED
			// and reconciliation re-enqueues it once the window passes.
			p.logger.Warn().Str("entry_id", entry.ID).Msg("breaker open, deferring payment")
			return
		}

		// Retry budget spent. The entry stays INITIATED; advancing it to a
		// terminal state here would put it beyond the reconciliation sweep.
		p.recordAttempt("abandoned")
		p.logger.Error().Err(err).
			Str("entry_id", entry.ID).
			Int("attempts", p.config.RetryAttempts).
			Msg("payment attempts exhausted, entry left for reconciliation")
		return
	}

	p.recordAttempt("success")

	if err := p.ledger.MarkCompleted(ctx, entry.ID, ref); err != nil {
		p.logger.Error().Err(err).
			Str("entry_id", entry.ID).
			Str("payment_reference_id", ref).
			Msg("payment succeeded but completion write failed")
	}
}

// charge runs the gateway call under the breaker with a fixed-delay retry.
// A breaker rejection is permanent so waiting out the open window does not
// burn the retry budget.
func (p *Processor) charge(ctx context.Context, req ProcessRequest) (string, error) {
	var ref string

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.config.RetryDelay), uint64(p.config.RetryAttempts-1)),
		ctx,
	)

	err := backoff.Retry(func() error {
		if err := p.breaker.Allow(); err != nil {
			return backoff.Permanent(err)
		}

		result, err := p.gateway.Process(ctx, req)
		p.breaker.Mark(err)
		if err != nil {
			p.recordAttempt("failure")
			return err
		}

		ref = result
		return nil
	}, b)

	return ref, err
}

func (p *Processor) recordAttempt(outcome string) {
	if p.metrics != nil {
		p.metrics.PaymentAttempt(outcome)
	}
}
