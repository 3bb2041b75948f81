package eventbus

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/subscriptions/internal/domain"
)

// Stream message field names.
const (
	fieldEntryID        = "entry_id"
	fieldIdempotencyKey = "idempotency_key"
	fieldEventType      = "event_type"
	fieldPayload        = "payload"
)

// Producer implements usecase.EventProducer on a Redis Stream. The message
// carries the entry snapshot for observability, but consumers always reload
// the row so they act on fresh state.
type Producer struct {
	client *redis.Client
	stream string
	logger zerolog.Logger
}

// NewProducer creates a Producer.
func NewProducer(client *redis.Client, stream string, logger zerolog.Logger) *Producer {
	return &Producer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

// Publish appends a completed ledger entry to the stream.
func (p *Producer) Publish(ctx context.Context, entry *domain.LedgerEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			fieldEntryID:        entry.ID,
			fieldIdempotencyKey: entry.IdempotencyKey,
			fieldEventType:      string(entry.EventType),
			fieldPayload:        payload,
		},
	}).Result()
	if err != nil {
		return err
	}

	p.logger.Debug().
		Str("entry_id", entry.ID).
		Str("stream_id", id).
		Msg("published ledger entry")

	return nil
}
