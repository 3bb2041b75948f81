package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyGuard implements usecase.IdempotencyGuard using Redis SETNX.
// The key carries a short TTL; storage failure is surfaced to the caller so
// intake can fail closed instead of letting duplicates through.
type IdempotencyGuard struct {
	client *redis.Client
	prefix string
}

// NewIdempotencyGuard creates a new IdempotencyGuard.
func NewIdempotencyGuard(client *redis.Client) *IdempotencyGuard {
	return &IdempotencyGuard{
		client: client,
		prefix: "idempotency:",
	}
}

// CheckAndSet atomically sets the key if absent. Returns true only when this
// caller planted the key.
func (g *IdempotencyGuard) CheckAndSet(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return g.client.SetNX(ctx, g.prefix+key, "processing", ttl).Result()
}
