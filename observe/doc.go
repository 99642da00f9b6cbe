// Package observe provides the observability backend used by tools and crews.
//
// A Backend exposes structured logging, convention-dispatched metrics, and
// scoped trace spans behind one capability interface. Variants exist for
// Prometheus scraping and OTLP-speaking agents (Grafana, Datadog); every
// variant degrades permanently to the zero-dependency SystemBackend if its
// initialization fails, so obtaining a working backend can never fail.
package observe
