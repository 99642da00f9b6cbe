package observe

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/jonwraymond/crewops/observe/exporters"
)

// Span-derived instrument names. The duration/active substrings matter:
// they steer the meterSink dispatch.
const (
	opsTotalMetric    = "agent_operations_total"
	opsDurationMetric = "agent_operation_duration_seconds"
	opsActiveMetric   = "agent_active_operations"
)

// PrometheusBackend exposes metrics for scraping on a local HTTP listener.
// If any part of initialization fails (exporter, port bind), the backend
// delegates every operation to an internal SystemBackend for the rest of
// its life; construction itself never fails.
type PrometheusBackend struct {
	fallback *SystemBackend
	ok       bool

	port     int
	listener net.Listener
	server   *http.Server
	provider *sdkmetric.MeterProvider
	registry *prom.Registry
	sink     *meterSink
	active   metric.Int64UpDownCounter

	closeOnce sync.Once
	closeErr  error
}

// NewPrometheusBackend creates a Prometheus backend serving /metrics on the
// configured port. Initialization failure is logged as a warning and the
// instance degrades permanently to the system backend.
func NewPrometheusBackend(opts Options) *PrometheusBackend {
	b := &PrometheusBackend{
		fallback: NewSystemBackend(opts),
		port:     opts.MetricsPort,
	}

	if err := b.init(opts); err != nil {
		b.fallback.Log(LevelWarn, "prometheus backend init failed, falling back to system logger", map[string]any{
			"error": err.Error(),
			"port":  opts.MetricsPort,
		})
		return b
	}

	b.ok = true
	b.fallback.Log(LevelInfo, "prometheus backend initialized", map[string]any{
		"addr": b.listener.Addr().String(),
	})
	return b
}

func (b *PrometheusBackend) init(opts Options) error {
	registry := prom.NewRegistry()
	reader, err := exporters.NewPrometheusReader(registry)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", opts.MetricsPort))
	if err != nil {
		return fmt.Errorf("bind metrics port: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(newResource(opts)),
	)
	meter := provider.Meter(serviceName(opts))

	active, err := meter.Int64UpDownCounter(opsActiveMetric,
		metric.WithDescription("Operations currently in flight"),
	)
	if err != nil {
		listener.Close()
		_ = provider.Shutdown(context.Background())
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Handler: mux}
	go func() {
		_ = server.Serve(listener)
	}()

	b.registry = registry
	b.listener = listener
	b.server = server
	b.provider = provider
	b.sink = newMeterSink(meter)
	b.active = active
	return nil
}

// Kind returns "prometheus" even when degraded; the kind tag is immutable.
func (b *PrometheusBackend) Kind() string { return KindPrometheus }

// Addr returns the listener address, empty when degraded. Useful with port 0.
func (b *PrometheusBackend) Addr() string {
	if !b.ok {
		return ""
	}
	return b.listener.Addr().String()
}

// Log always goes through the system backend; Prometheus has no log surface.
func (b *PrometheusBackend) Log(level LogLevel, msg string, context map[string]any) {
	b.fallback.Log(level, msg, context)
}

// RecordMetric routes the sample onto a Prometheus-exported instrument,
// falling back to the system buffer if instrument creation fails.
func (b *PrometheusBackend) RecordMetric(name string, value float64, tags map[string]string) {
	if !b.ok {
		b.fallback.RecordMetric(name, value, tags)
		return
	}

	if err := b.sink.record(context.Background(), name, value, tags); err != nil {
		b.fallback.Log(LevelError, "failed to record prometheus metric", map[string]any{
			"metric": name,
			"error":  err.Error(),
		})
		b.fallback.RecordMetric(name, value, tags)
	}
}

// Trace opens a span tracked by an in-flight gauge. End decrements the
// gauge, observes the duration distribution, and counts the outcome.
func (b *PrometheusBackend) Trace(ctx context.Context, name string, attrs map[string]string) (context.Context, *Span) {
	if !b.ok {
		return b.fallback.Trace(ctx, name, attrs)
	}

	opt := metric.WithAttributes(tagAttrs(attrs)...)
	b.active.Add(ctx, 1, opt)

	span := newSpan(name, copyTags(attrs), func(s *Span, err error) {
		bg := context.Background()
		b.active.Add(bg, -1, opt)

		tags := copyTags(s.Attrs)
		if tags == nil {
			tags = make(map[string]string, 2)
		}
		tags["operation"] = s.Name
		_ = b.sink.record(bg, opsDurationMetric, s.Duration().Seconds(), tags)

		status := "success"
		if err != nil {
			status = "error"
		}
		tags["status"] = status
		_ = b.sink.record(bg, opsTotalMetric, 1, tags)
	})

	b.fallback.Log(LevelDebug, "trace start", map[string]any{"span": name, "span_id": span.ID})
	return ctx, span
}

// Flush forces an export cycle. Best-effort.
func (b *PrometheusBackend) Flush() {
	if !b.ok {
		b.fallback.Flush()
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = b.provider.ForceFlush(ctx)
}

// Close stops the metrics listener and shuts down the meter provider.
func (b *PrometheusBackend) Close() error {
	b.closeOnce.Do(func() {
		if !b.ok {
			b.closeErr = b.fallback.Close()
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = b.server.Close()
		b.closeErr = b.provider.Shutdown(ctx)
	})
	return b.closeErr
}

// Ensure PrometheusBackend implements Backend
var _ Backend = (*PrometheusBackend)(nil)
