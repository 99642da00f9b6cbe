package observe

import (
	"context"
	"io"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Options carries backend configuration. Every field has a usable zero
// value; variants ignore fields they do not consume.
type Options struct {
	// ServiceName tags exported telemetry. Defaults to "crewops".
	ServiceName string

	// Version tags exported telemetry with the service version.
	Version string

	// LogLevel filters system-backend log output. Defaults to "info".
	LogLevel string

	// Writer receives system-backend log lines. Defaults to stderr.
	Writer io.Writer

	// MetricsPort is the Prometheus scrape port. 0 binds an ephemeral port.
	MetricsPort int

	// AgentEndpoint is the OTLP gRPC endpoint for the Grafana and Datadog
	// variants. Empty means the variant cannot initialize and falls back.
	AgentEndpoint string
}

func serviceName(opts Options) string {
	if opts.ServiceName != "" {
		return opts.ServiceName
	}
	return "crewops"
}

func newResource(opts Options) *resource.Resource {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName(opts)),
			semconv.ServiceVersion(opts.Version),
		),
	)
	if err != nil {
		return resource.Default()
	}
	return res
}

// Factory owns at most one live backend for its lifetime slot. The first
// Create wins; later calls return the existing instance regardless of kind
// or options, until Reset closes and clears the slot.
//
// The package-level Create/Instance/Reset operate on a process-wide factory;
// tests and embedders construct their own Factory to avoid shared state.
type Factory struct {
	mu       sync.Mutex
	instance Backend
}

// NewFactory creates an empty factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Create returns the live backend, constructing it on first call. The
// requested kind is tried first; any construction failure falls through to
// SystemBackend, which cannot fail, so Create never returns nil.
func (f *Factory) Create(kind string, opts Options) Backend {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.instance != nil {
		return f.instance
	}

	f.instance = construct(strings.ToLower(kind), opts)
	return f.instance
}

// construct builds the requested kind. Backend constructors handle their own
// init failures internally; the recover guard keeps the chain total even
// against a panicking constructor.
func construct(kind string, opts Options) (b Backend) {
	defer func() {
		if r := recover(); r != nil {
			sys := NewSystemBackend(opts)
			sys.Log(LevelWarn, "backend construction panicked, using system logger", map[string]any{
				"kind":  kind,
				"panic": r,
			})
			b = sys
		}
	}()

	switch kind {
	case KindPrometheus:
		return NewPrometheusBackend(opts)
	case KindGrafana:
		return NewGrafanaBackend(opts)
	case KindDatadog:
		return NewDatadogBackend(opts)
	case KindSystem:
		return NewSystemBackend(opts)
	default:
		sys := NewSystemBackend(opts)
		sys.Log(LevelWarn, "unknown backend kind, using system logger", map[string]any{"kind": kind})
		return sys
	}
}

// Instance returns the current backend without creating one. Nil when empty.
func (f *Factory) Instance() Backend {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.instance
}

// Reset closes the live backend, if any, and clears the slot so the next
// Create constructs fresh. Used to restore a clean process state, mainly
// for test isolation.
func (f *Factory) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.instance != nil {
		_ = f.instance.Close()
		f.instance = nil
	}
}

var defaultFactory Factory

// Create returns the process-wide backend, constructing it on first call.
func Create(kind string, opts Options) Backend {
	return defaultFactory.Create(kind, opts)
}

// Instance returns the process-wide backend, or nil before the first Create.
func Instance() Backend {
	return defaultFactory.Instance()
}

// Reset closes and clears the process-wide backend.
func Reset() {
	defaultFactory.Reset()
}
