// Package cache provides deterministic TTL caching for tool executions.
//
// It provides a Store interface with a memory implementation, SHA-256-based
// key derivation, and TTL policies with per-tool overrides. Expiry is checked
// lazily at read time against an injected clock.
package cache
