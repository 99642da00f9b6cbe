package cache

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock for deterministic expiry tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemoryStore_GetSetClear(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	// Get on empty store
	val, ok := store.Get(ctx, "nonexistent")
	if ok {
		t.Error("Get on empty store should return ok=false")
	}
	if val != nil {
		t.Error("Get on empty store should return nil value")
	}

	key := "test-key"
	value := []byte("test-value")
	if err := store.Set(ctx, key, value, 5*time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := store.Get(ctx, key)
	if !ok {
		t.Error("Get after Set should return ok=true")
	}
	if !bytes.Equal(got, value) {
		t.Errorf("Get returned %q, want %q", got, value)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := store.Get(ctx, key); ok {
		t.Error("Get after Clear should return ok=false")
	}
	if store.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", store.Len())
	}
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore(clock.Now)
	ctx := context.Background()

	// put("weather:london") at t=0 with TTL=300s
	if err := store.Set(ctx, "weather:london", []byte("18C"), 300*time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// t=250: hit
	clock.Advance(250 * time.Second)
	got, ok := store.Get(ctx, "weather:london")
	if !ok {
		t.Fatal("Get at t=250s should hit")
	}
	if string(got) != "18C" {
		t.Errorf("Get returned %q, want %q", got, "18C")
	}

	// t=350: miss
	clock.Advance(100 * time.Second)
	if _, ok := store.Get(ctx, "weather:london"); ok {
		t.Error("Get at t=350s should miss")
	}
}

func TestMemoryStore_ExpiryBoundary(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore(clock.Now)
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// elapsed == ttl is a miss, not a hit
	clock.Advance(time.Minute)
	if _, ok := store.Get(ctx, "k"); ok {
		t.Error("entry at exactly elapsed == ttl should be stale")
	}
}

func TestMemoryStore_StaleOverwrite(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore(clock.Now)
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("old"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	clock.Advance(2 * time.Minute)

	// Stale entry is still held (no eviction) but unreadable.
	if store.Len() != 1 {
		t.Errorf("Len = %d, want 1 (stale entries are kept)", store.Len())
	}
	if _, ok := store.Get(ctx, "k"); ok {
		t.Fatal("stale entry must not be readable")
	}

	// Next Set replaces it and the key is fresh again.
	if err := store.Set(ctx, "k", []byte("new"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok := store.Get(ctx, "k")
	if !ok || string(got) != "new" {
		t.Errorf("Get after overwrite = %q, %v; want %q, true", got, ok, "new")
	}
}

func TestMemoryStore_ZeroTTLNotStored(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok := store.Get(ctx, "k"); ok {
		t.Error("Set with TTL=0 should not store")
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	const numGoroutines = 50
	const opsPerGoroutine = 500

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < opsPerGoroutine; j++ {
				switch j % 3 {
				case 0:
					_ = store.Set(ctx, "concurrent-key", []byte("v"), 5*time.Minute)
				case 1:
					_, _ = store.Get(ctx, "concurrent-key")
				case 2:
					_ = store.Len()
				}
			}
		}()
	}

	wg.Wait()
}
