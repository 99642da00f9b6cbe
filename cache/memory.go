package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store implementation.
//
// Each tool class owns its own MemoryStore, so identical input signatures
// across tool classes can never collide. Entries transition
// absent -> fresh -> stale; stale entries are invisible to Get and replaced
// by the next Set for the same key.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*storeEntry
	clock   Clock
}

type storeEntry struct {
	value    []byte
	storedAt time.Time
	ttl      time.Duration
}

// NewMemoryStore creates a new in-memory store reading time from clock.
// A nil clock defaults to time.Now.
func NewMemoryStore(clock Clock) *MemoryStore {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryStore{
		entries: make(map[string]*storeEntry),
		clock:   clock,
	}
}

// Get retrieves a value from the store. Returns (nil, false) on miss or expiry.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	now := s.clock()
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}

	// Stale entries are never read. They stay in place until the next Set
	// overwrites them; there is no eviction.
	if now.Sub(entry.storedAt) >= entry.ttl {
		return nil, false
	}

	return entry.value, true
}

// Set stores a value with the given TTL. TTL=0 means no caching.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	s.mu.Lock()
	s.entries[key] = &storeEntry{
		value:    value,
		storedAt: s.clock(),
		ttl:      ttl,
	}
	s.mu.Unlock()

	return nil
}

// Clear removes all entries.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string]*storeEntry)
	s.mu.Unlock()
	return nil
}

// Len reports the number of entries currently held, stale ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
