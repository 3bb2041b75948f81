package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGuardCheckAndSet(t *testing.T) {
	client, _ := newTestRedisClient(t)
	guard := NewIdempotencyGuard(client)
	ctx := context.Background()

	accepted, err := guard.CheckAndSet(ctx, "100:1:2:req-1", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !accepted {
		t.Fatal("first request must be accepted")
	}

	accepted, err = guard.CheckAndSet(ctx, "100:1:2:req-1", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if accepted {
		t.Fatal("duplicate within TTL must be rejected")
	}
}

func TestGuardKeyExpires(t *testing.T) {
	client, mr := newTestRedisClient(t)
	guard := NewIdempotencyGuard(client)
	ctx := context.Background()

	accepted, err := guard.CheckAndSet(ctx, "100:1:2:req-1", 10*time.Second)
	if err != nil || !accepted {
		t.Fatalf("first request must be accepted, got accepted=%v err=%v", accepted, err)
	}

	mr.FastForward(11 * time.Second)

	accepted, err = guard.CheckAndSet(ctx, "100:1:2:req-1", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !accepted {
		t.Fatal("expired key must be accepted again; the ledger backstop takes over")
	}
}

func TestGuardConcurrentCheckAndSet(t *testing.T) {
	client, _ := newTestRedisClient(t)
	guard := NewIdempotencyGuard(client)
	ctx := context.Background()

	const callers = 10
	var accepted atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, err := guard.CheckAndSet(ctx, "100:1:2:req-1", 10*time.Second)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if ok {
				accepted.Add(1)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := accepted.Load(); got != 1 {
		t.Fatalf("expected exactly one accepted caller, got %d", got)
	}
}

func TestGuardDistinctKeysDoNotCollide(t *testing.T) {
	client, _ := newTestRedisClient(t)
	guard := NewIdempotencyGuard(client)
	ctx := context.Background()

	first, err := guard.CheckAndSet(ctx, "100:1:2:req-1", 10*time.Second)
	if err != nil || !first {
		t.Fatalf("unexpected rejection: accepted=%v err=%v", first, err)
	}

	second, err := guard.CheckAndSet(ctx, "100:1:2:req-2", 10*time.Second)
	if err != nil || !second {
		t.Fatalf("distinct request id must be accepted: accepted=%v err=%v", second, err)
	}
}
