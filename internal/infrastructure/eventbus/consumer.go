package eventbus

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/subscriptions/internal/domain"
)

// Materializer projects a ledger entry into the read model.
type Materializer interface {
	Apply(ctx context.Context, entry *domain.LedgerEntry) error
}

// Ledger is the slice of the ledger the consumer drives.
type Ledger interface {
	GetEntry(ctx context.Context, id string) (*domain.LedgerEntry, error)
	MarkProcessed(ctx context.Context, id string) error
	RecordMaterializationFailure(ctx context.Context, id string, cause error) error
}

// ConsumerConfig configures the stream consumer.
type ConsumerConfig struct {
	Client       *redis.Client
	Stream       string
	Group        string
	ConsumerName string
	Materializer Materializer
	Ledger       Ledger
	BatchSize    int
	BlockTimeout time.Duration
	Logger       zerolog.Logger
}

// Consumer reads completed ledger entries from the stream via a consumer
// group and materializes them.
//
// Every message is acked exactly once, regardless of outcome. Durable retry
// state lives in the ledger row (retry_count), and the reconciliation sweep
// re-publishes entries that remain COMPLETED, so a lost in-flight message is
// never lost for good.
type Consumer struct {
	client       *redis.Client
	stream       string
	group        string
	consumerName string
	materializer Materializer
	ledger       Ledger
	batchSize    int
	blockTimeout time.Duration
	logger       zerolog.Logger
}

// NewConsumer creates a Consumer.
func NewConsumer(cfg ConsumerConfig) *Consumer {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 16
	}
	if cfg.BlockTimeout == 0 {
		cfg.BlockTimeout = 5 * time.Second
	}

	return &Consumer{
		client:       cfg.Client,
		stream:       cfg.Stream,
		group:        cfg.Group,
		consumerName: cfg.ConsumerName,
		materializer: cfg.Materializer,
		ledger:       cfg.Ledger,
		batchSize:    cfg.BatchSize,
		blockTimeout: cfg.BlockTimeout,
		logger:       cfg.Logger,
	}
}

// Run consumes until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		return err
	}

	c.logger.Info().
		Str("stream", c.stream).
		Str("group", c.group).
		Str("consumer", c.consumerName).
		Msg("event consumer started")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("event consumer shutting down")
			return ctx.Err()
		default:
		}

		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.group,
			Consumer: c.consumerName,
			Streams:  []string{c.stream, ">"},
			Count:    int64(c.batchSize),
			Block:    c.blockTimeout,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}

			c.logger.Error().Err(err).Msg("stream read failed")
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				c.handleMessage(ctx, msg)
			}
		}
	}
}

// ensureGroup creates the consumer group, tolerating concurrent creation.
func (c *Consumer) ensureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}

	return nil
}

// handleMessage processes one message and always acks it afterwards.
func (c *Consumer) handleMessage(ctx context.Context, msg redis.XMessage) {
	defer c.ack(ctx, msg.ID)

	entryID, ok := msg.Values[fieldEntryID].(string)
	if !ok || entryID == "" {
		c.logger.Error().Str("stream_id", msg.ID).Msg("poison message without entry id, dropping")
		return
	}

	// Reload the row: the stream snapshot may be stale on re-delivery.
	entry, err := c.ledger.GetEntry(ctx, entryID)
	if err != nil {
		if errors.Is(err, domain.ErrLedgerEntryNotFound) {
			c.logger.Error().Str("entry_id", entryID).Msg("message references unknown entry, dropping")
			return
		}

		c.logger.Error().Err(err).Str("entry_id", entryID).Msg("entry load failed, deferring to reconciliation")
		return
	}

	switch entry.Status {
	case domain.StatusProcessed, domain.StatusFailed:
		// Re-delivery of an entry that already reached a terminal state.
		c.logger.Debug().Str("entry_id", entryID).Str("status", string(entry.Status)).Msg("entry already settled, skipping")
		return
	case domain.StatusInitiated:
		c.logger.Warn().Str("entry_id", entryID).Msg("entry not yet completed, skipping")
		return
	}

	if err := c.materializer.Apply(ctx, entry); err != nil {
		c.logger.Error().Err(err).Str("entry_id", entryID).Msg("materialization failed")

		if recErr := c.ledger.RecordMaterializationFailure(ctx, entryID, err); recErr != nil {
			c.logger.Error().Err(recErr).Str("entry_id", entryID).Msg("failed to record materialization failure")
		}
		return
	}

	if err := c.ledger.MarkProcessed(ctx, entryID); err != nil {
		c.logger.Error().Err(err).Str("entry_id", entryID).Msg("failed to mark entry PROCESSED")
	}
}

func (c *Consumer) ack(ctx context.Context, msgID string) {
	if err := c.client.XAck(ctx, c.stream, c.group, msgID).Err(); err != nil {
		c.logger.Error().Err(err).Str("stream_id", msgID).Msg("ack failed")
	}
}
