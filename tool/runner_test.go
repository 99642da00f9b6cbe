package tool

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/crewops/cache"
	"github.com/jonwraymond/crewops/observe"
)

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

func newTestBackend() *observe.SystemBackend {
	return observe.NewSystemBackend(observe.Options{Writer: io.Discard})
}

// execute mimics a tool body: check cache, run work, populate cache.
func execute(ctx context.Context, r *Runner, key string, calls *int) ([]byte, error) {
	if v, ok := r.GetCached(ctx, key); ok {
		return v, nil
	}
	result, err := r.Run(ctx, func(ctx context.Context) ([]byte, error) {
		*calls++
		return []byte("result"), nil
	})
	if err != nil {
		return nil, err
	}
	r.PutCached(ctx, key, result)
	return result, nil
}

func TestRunner_CacheHitSkipsWork(t *testing.T) {
	backend := newTestBackend()
	r := NewRunner("WeatherTool", backend, cache.DefaultPolicy())
	ctx := context.Background()

	var calls int
	for i := 0; i < 3; i++ {
		if _, err := execute(ctx, r, "weather:london", &calls); err != nil {
			t.Fatalf("execute failed: %v", err)
		}
	}

	if calls != 1 {
		t.Errorf("work invoked %d times, want 1 (cached after first)", calls)
	}
	if got := backend.SampleTotal(MetricCacheMiss); got != 1 {
		t.Errorf("miss count = %v, want 1", got)
	}
	if got := backend.SampleTotal(MetricCacheHit); got != 2 {
		t.Errorf("hit count = %v, want 2", got)
	}
}

func TestRunner_DisabledCacheRunsEveryTime(t *testing.T) {
	backend := newTestBackend()
	r := NewRunner("WeatherTool", backend, cache.DisabledPolicy())
	ctx := context.Background()

	var calls int
	const n = 4
	for i := 0; i < n; i++ {
		if _, err := execute(ctx, r, "weather:london", &calls); err != nil {
			t.Fatalf("execute failed: %v", err)
		}
	}

	if calls != n {
		t.Errorf("work invoked %d times with caching disabled, want %d", calls, n)
	}

	// Disabled caching is observable as guaranteed misses, not silence.
	if got := backend.SampleTotal(MetricCacheMiss); got != n {
		t.Errorf("miss count = %v, want %d", got, n)
	}
	if got := backend.SampleTotal(MetricCacheHit); got != 0 {
		t.Errorf("hit count = %v, want 0", got)
	}
}

func TestRunner_NamespaceIsolation(t *testing.T) {
	backend := newTestBackend()
	gsc := NewRunner("GSCTool", backend, cache.DefaultPolicy())
	search := NewRunner("KeywordSearchTool", backend, cache.DefaultPolicy())
	ctx := context.Background()

	input := map[string]any{"domain": "example.com"}
	gscKey, err := gsc.CacheKey(input)
	if err != nil {
		t.Fatalf("CacheKey failed: %v", err)
	}
	searchKey, err := search.CacheKey(input)
	if err != nil {
		t.Fatalf("CacheKey failed: %v", err)
	}
	if gscKey == searchKey {
		t.Error("identical signatures across tool classes must derive different keys")
	}

	// Even a literally identical key never crosses runners: stores are private.
	gsc.PutCached(ctx, "shared-key", []byte("gsc-data"))
	if _, ok := search.GetCached(ctx, "shared-key"); ok {
		t.Error("tool classes must not share cache entries")
	}
	if v, ok := gsc.GetCached(ctx, "shared-key"); !ok || string(v) != "gsc-data" {
		t.Errorf("owner lookup = %q, %v; want gsc-data, true", v, ok)
	}
}

func TestRunner_TTLOverride(t *testing.T) {
	clock := newFakeClock()
	backend := newTestBackend()
	r := NewRunner("GSCTool", backend, cache.DefaultPolicy(),
		WithTTL(24*time.Hour),
		WithStore(cache.NewMemoryStore(clock.Now)),
	)
	ctx := context.Background()

	r.PutCached(ctx, "gsc:example.com:10", []byte("keywords"))

	clock.Advance(23 * time.Hour)
	if _, ok := r.GetCached(ctx, "gsc:example.com:10"); !ok {
		t.Error("entry should still be fresh at 23h with 24h TTL")
	}

	clock.Advance(2 * time.Hour)
	if _, ok := r.GetCached(ctx, "gsc:example.com:10"); ok {
		t.Error("entry should be stale at 25h with 24h TTL")
	}
}

func TestRunner_RunSuccessMetrics(t *testing.T) {
	backend := newTestBackend()
	r := NewRunner("WeatherTool", backend, cache.DefaultPolicy())

	result, err := r.Run(context.Background(), func(ctx context.Context) ([]byte, error) {
		return []byte("18C"), nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if string(result) != "18C" {
		t.Errorf("result = %q, want 18C", result)
	}

	if got := backend.SampleTotal(MetricRunSuccess); got != 1 {
		t.Errorf("success count = %v, want 1", got)
	}
	if got := len(backend.Samples("tool_run_WeatherTool_duration_seconds")); got != 1 {
		t.Errorf("span duration samples = %d, want 1", got)
	}
}

func TestRunner_ErrorTransparency(t *testing.T) {
	backend := newTestBackend()
	r := NewRunner("GSCTool", backend, cache.DefaultPolicy())

	sentinel := NewError("GSCTool", "fetch", errors.New("credentials missing"))
	_, err := r.Run(context.Background(), func(ctx context.Context) ([]byte, error) {
		return nil, sentinel
	})

	// Re-raised verbatim: same value, same type, no wrapping.
	if err != sentinel {
		t.Errorf("error = %v (%T), want the exact sentinel", err, err)
	}
	var toolErr *Error
	if !errors.As(err, &toolErr) {
		t.Error("typed failure lost through the wrapper")
	}

	if got := backend.SampleTotal(MetricRunError); got != 1 {
		t.Errorf("error count = %v, want 1", got)
	}
	samples := backend.Samples(MetricRunError)
	if samples[0].Tags["error"] != "ToolError" {
		t.Errorf("error kind tag = %q, want ToolError", samples[0].Tags["error"])
	}

	// Span bookkeeping ran exactly once on the failure path too.
	if got := len(backend.Samples("tool_run_GSCTool_duration_seconds")); got != 1 {
		t.Errorf("span duration samples = %d, want 1", got)
	}
	if got := backend.SampleTotal("tool_run_GSCTool_error"); got != 1 {
		t.Errorf("span error count = %v, want 1", got)
	}
}

func TestRunner_NilWork(t *testing.T) {
	r := NewRunner("t", newTestBackend(), cache.DefaultPolicy())
	if _, err := r.Run(context.Background(), nil); !errors.Is(err, ErrNilWork) {
		t.Errorf("err = %v, want ErrNilWork", err)
	}
}

func TestRunner_ClearCache(t *testing.T) {
	r := NewRunner("t", newTestBackend(), cache.DefaultPolicy())
	ctx := context.Background()

	r.PutCached(ctx, "k", []byte("v"))
	r.ClearCache(ctx)
	if _, ok := r.GetCached(ctx, "k"); ok {
		t.Error("entry should be gone after ClearCache")
	}
}

func TestRunner_NilBackendUsesProcessInstance(t *testing.T) {
	observe.Reset()
	defer observe.Reset()

	b := observe.Create("system", observe.Options{Writer: io.Discard})
	r := NewRunner("t", nil, cache.DefaultPolicy())
	if r.Backend() != b {
		t.Error("nil backend should resolve to the process-wide instance")
	}
}
