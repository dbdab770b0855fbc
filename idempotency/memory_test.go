package idempotency_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hexlane/courier/idempotency"
)

func TestMemoryStoreSetThenHas(t *testing.T) {
	store := idempotency.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	if err := store.Set(ctx, "k", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	ok, err := store.Has(ctx, "k")
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if !ok {
		t.Error("expected key to be present")
	}

	ok, err = store.Has(ctx, "missing")
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if ok {
		t.Error("expected missing key to be absent")
	}
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	store := idempotency.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	const ttl = 30 * time.Millisecond
	if err := store.Set(ctx, "k", ttl); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if ok, _ := store.Has(ctx, "k"); !ok {
		t.Error("expected key to be present before the TTL elapsed")
	}

	time.Sleep(2 * ttl)

	// sweep has not run yet; lazy expiry on access must still apply
	if ok, _ := store.Has(ctx, "k"); ok {
		t.Error("expected key to be expired after the TTL elapsed")
	}
}

func TestMemoryStoreSweepRemovesExpired(t *testing.T) {
	store := idempotency.NewMemoryStore(
		idempotency.WithSweepInterval(10 * time.Millisecond),
	)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	if err := store.Set(ctx, "k", time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	if ok, _ := store.Has(ctx, "k"); ok {
		t.Error("expected the sweep to have removed the expired key")
	}
}

func TestMemoryStoreDefaultTTLApplied(t *testing.T) {
	store := idempotency.NewMemoryStore(
		idempotency.WithMemoryTTL(20 * time.Millisecond),
	)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	// ttl <= 0 applies the store default
	if err := store.Set(ctx, "k", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ok, _ := store.Has(ctx, "k"); !ok {
		t.Error("expected key to be present")
	}

	time.Sleep(40 * time.Millisecond)
	if ok, _ := store.Has(ctx, "k"); ok {
		t.Error("expected key to expire after the store default TTL")
	}
}

func TestMemoryStoreCloseIsIdempotent(t *testing.T) {
	store := idempotency.NewMemoryStore()
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	store := idempotency.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k-%d", i%4)
			_ = store.Set(ctx, key, time.Minute)
			_, _ = store.Has(ctx, key)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 4; i++ {
		if ok, _ := store.Has(ctx, fmt.Sprintf("k-%d", i)); !ok {
			t.Errorf("expected k-%d to be present", i)
		}
	}
}
