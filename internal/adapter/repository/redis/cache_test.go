package redis

import (
	"context"
	"testing"
	"time"
)

func TestCacheSetGetDelete(t *testing.T) {
	client, _ := newTestRedisClient(t)
	cache := NewCache(client)
	ctx := context.Background()

	if err := cache.Set(ctx, "plan:plan-1", `{"id":"plan-1"}`, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	val, err := cache.Get(ctx, "plan:plan-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if val != `{"id":"plan-1"}` {
		t.Fatalf("unexpected value: %q", val)
	}

	if err := cache.Delete(ctx, "plan:plan-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	val, err = cache.Get(ctx, "plan:plan-1")
	if err != nil {
		t.Fatalf("get after delete failed: %v", err)
	}
	if val != "" {
		t.Fatalf("expected empty value after delete, got %q", val)
	}
}

func TestCacheMissIsNotAnError(t *testing.T) {
	client, _ := newTestRedisClient(t)
	cache := NewCache(client)

	val, err := cache.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("miss must not error: %v", err)
	}
	if val != "" {
		t.Fatalf("expected empty value, got %q", val)
	}
}
