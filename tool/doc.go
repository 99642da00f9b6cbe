// Package tool wraps arbitrary tool work with caching and observability so
// tool bodies implement neither concern themselves.
//
// A Runner owns one tool class's cache namespace and its telemetry: cache
// lookups emit hit/miss metrics on every call, and Run executes work inside
// a trace span with success/error counters, re-raising work failures
// verbatim. JoinAll provides the fan-out/fan-in pattern used by tools that
// query several upstreams at once.
package tool
