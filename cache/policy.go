package cache

import "time"

// Policy configures caching behavior.
type Policy struct {
	// Enabled toggles caching globally. When false, Get always misses and
	// Set is a silent no-op; instrumentation still records every lookup.
	Enabled bool

	// DefaultTTL is the TTL to use when a tool declares no override.
	DefaultTTL time.Duration

	// MaxTTL is the maximum allowed TTL. Override TTLs are clamped to this.
	// If zero, no maximum is enforced.
	MaxTTL time.Duration
}

// DefaultPolicy returns the default caching policy: enabled, 5 minute TTL
// for fast-changing data, clamped at 48 hours so slow-refresh sources like
// search-index data can opt into day-scale TTLs.
func DefaultPolicy() Policy {
	return Policy{
		Enabled:    true,
		DefaultTTL: 5 * time.Minute,
		MaxTTL:     48 * time.Hour,
	}
}

// DisabledPolicy returns a policy that disables caching entirely.
func DisabledPolicy() Policy {
	return Policy{Enabled: false}
}

// ShouldCache returns true if caching is enabled by this policy.
func (p Policy) ShouldCache() bool {
	return p.Enabled && p.DefaultTTL > 0
}

// EffectiveTTL returns the TTL to use, applying the default and clamping.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}

	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}

	return ttl
}
