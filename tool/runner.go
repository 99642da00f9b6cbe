package tool

import (
	"context"
	"time"

	"github.com/jonwraymond/crewops/cache"
	"github.com/jonwraymond/crewops/observe"
)

// Metric names emitted by the runner, each tagged with the tool name.
const (
	MetricCacheHit   = "tool_cache_hit"
	MetricCacheMiss  = "tool_cache_miss"
	MetricRunSuccess = "tool_run_success"
	MetricRunError   = "tool_run_error"
)

// WorkFunc is the tool-body contract: a unit of work that may fail with a
// typed error. Argument normalization happens in the body before the runner
// computes keys.
type WorkFunc func(ctx context.Context) ([]byte, error)

// Runner composes a TTL cache namespace with an observability backend for
// one tool class.
//
// Contract:
//   - Concurrency: safe for concurrent use. Concurrent identical calls may
//     race on the check-then-populate path and duplicate upstream work;
//     that is a missed dedup, not a correctness violation.
//   - Errors: Run re-raises work failures unmodified. Cache operations
//     never fail.
type Runner struct {
	name    string
	backend observe.Backend
	store   cache.Store
	keyer   cache.Keyer
	policy  cache.Policy
	ttl     time.Duration
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithTTL sets a per-tool TTL override for slow-refresh data sources.
func WithTTL(d time.Duration) RunnerOption {
	return func(r *Runner) { r.ttl = d }
}

// WithStore replaces the runner's private store, mainly to inject a fake
// clock in tests.
func WithStore(s cache.Store) RunnerOption {
	return func(r *Runner) { r.store = s }
}

// WithKeyer replaces the key derivation scheme.
func WithKeyer(k cache.Keyer) RunnerOption {
	return func(r *Runner) { r.keyer = k }
}

// NewRunner creates a runner for the named tool class. A nil backend picks
// up the process-wide instance, or a fresh system backend if none exists.
// Each runner owns its own store, so tool classes never share a key space.
func NewRunner(name string, backend observe.Backend, policy cache.Policy, opts ...RunnerOption) *Runner {
	if backend == nil {
		if inst := observe.Instance(); inst != nil {
			backend = inst
		} else {
			backend = observe.NewSystemBackend(observe.Options{})
		}
	}

	r := &Runner{
		name:    name,
		backend: backend,
		store:   cache.NewMemoryStore(nil),
		keyer:   cache.NewDefaultKeyer(),
		policy:  policy,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the tool class name.
func (r *Runner) Name() string { return r.name }

// Backend returns the observability backend the runner records to.
func (r *Runner) Backend() observe.Backend { return r.backend }

// CacheKey derives the deterministic key for input under this tool's
// identity.
func (r *Runner) CacheKey(input any) (string, error) {
	return r.keyer.Key(r.name, input)
}

// GetCached returns the stored value iff caching is enabled and the entry
// is unexpired. Every lookup records a hit or miss metric; a disabled
// cache is observable as guaranteed misses, not as missing instrumentation.
func (r *Runner) GetCached(ctx context.Context, key string) ([]byte, bool) {
	tags := map[string]string{"tool": r.name}

	if !r.policy.ShouldCache() {
		r.backend.RecordMetric(MetricCacheMiss, 1, tags)
		return nil, false
	}

	value, ok := r.store.Get(ctx, key)
	if !ok {
		r.backend.RecordMetric(MetricCacheMiss, 1, tags)
		return nil, false
	}

	r.backend.RecordMetric(MetricCacheHit, 1, tags)
	return value, true
}

// PutCached stores the value under key with the tool's effective TTL.
// A disabled cache silently no-ops.
func (r *Runner) PutCached(ctx context.Context, key string, value []byte) {
	if !r.policy.ShouldCache() {
		return
	}
	_ = r.store.Set(ctx, key, value, r.policy.EffectiveTTL(r.ttl))
}

// ClearCache drops the tool's entire namespace. Test-only by convention.
func (r *Runner) ClearCache(ctx context.Context) {
	_ = r.store.Clear(ctx)
}

// Run executes work inside a span named tool_run_<name>, recording a
// success or error counter. The failure path re-raises the original error
// unmodified; upstream callers decide retryability.
func (r *Runner) Run(ctx context.Context, work WorkFunc) ([]byte, error) {
	if work == nil {
		return nil, ErrNilWork
	}

	tags := map[string]string{"tool": r.name}
	ctx, span := r.backend.Trace(ctx, "tool_run_"+r.name, tags)

	result, err := work(ctx)
	span.End(err)

	if err != nil {
		r.backend.RecordMetric(MetricRunError, 1, map[string]string{
			"tool":  r.name,
			"error": ErrorKind(err),
		})
		return result, err
	}

	r.backend.RecordMetric(MetricRunSuccess, 1, tags)
	return result, nil
}
