// Package tools implements the external-data tool bodies the crews invoke:
// a wttr.in weather fetcher, a Google Search Console keyword query, and a
// multi-model keyword visibility search.
//
// Every tool wraps its upstream call in a tool.Runner, which layers a
// per-tool TTL cache under the process observability backend. Input
// normalization (lowercasing locations, adding URL schemes) happens here,
// before cache keys are derived; the runner treats keys as opaque.
package tools
