package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/crewops/observe/exporters"
)

// otlpBackend is the shared implementation behind the Grafana and Datadog
// variants: both speak OTLP gRPC to a local agent and differ only in which
// agent they expect on the other end. Initialization failure degrades the
// instance permanently to the system backend.
type otlpBackend struct {
	kind     string
	fallback *SystemBackend
	ok       bool

	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	sink           *meterSink
	active         metric.Int64UpDownCounter

	closeOnce sync.Once
	closeErr  error
}

func newOTLPBackend(kind string, opts Options) *otlpBackend {
	b := &otlpBackend{
		kind:     kind,
		fallback: NewSystemBackend(opts),
	}

	if err := b.init(opts); err != nil {
		b.fallback.Log(LevelWarn, "backend init failed, falling back to system logger", map[string]any{
			"kind":     kind,
			"endpoint": opts.AgentEndpoint,
			"error":    err.Error(),
		})
		return b
	}

	b.ok = true
	b.fallback.Log(LevelInfo, "otlp backend initialized", map[string]any{
		"kind":     kind,
		"endpoint": opts.AgentEndpoint,
	})
	return b
}

func (b *otlpBackend) init(opts Options) error {
	if opts.AgentEndpoint == "" {
		return ErrNoEndpoint
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reader, err := exporters.NewMetricsReader(ctx, "otlp", opts.AgentEndpoint)
	if err != nil {
		return err
	}
	spanExporter, err := exporters.NewTracingExporter(ctx, "otlp", opts.AgentEndpoint)
	if err != nil {
		return err
	}

	res := newResource(opts)
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spanExporter),
		sdktrace.WithResource(res),
	)

	meter := meterProvider.Meter(serviceName(opts))
	active, err := meter.Int64UpDownCounter(opsActiveMetric,
		metric.WithDescription("Operations currently in flight"),
	)
	if err != nil {
		_ = meterProvider.Shutdown(context.Background())
		_ = tracerProvider.Shutdown(context.Background())
		return err
	}

	b.meterProvider = meterProvider
	b.tracerProvider = tracerProvider
	b.tracer = tracerProvider.Tracer(serviceName(opts))
	b.sink = newMeterSink(meter)
	b.active = active
	return nil
}

func (b *otlpBackend) Kind() string { return b.kind }

func (b *otlpBackend) Log(level LogLevel, msg string, context map[string]any) {
	b.fallback.Log(level, msg, context)
}

func (b *otlpBackend) RecordMetric(name string, value float64, tags map[string]string) {
	if !b.ok {
		b.fallback.RecordMetric(name, value, tags)
		return
	}
	if err := b.sink.record(context.Background(), name, value, tags); err != nil {
		b.fallback.Log(LevelError, "failed to record metric", map[string]any{
			"kind":   b.kind,
			"metric": name,
			"error":  err.Error(),
		})
		b.fallback.RecordMetric(name, value, tags)
	}
}

// Trace starts a real OTLP span alongside the in-flight gauge. End sets the
// span status from the outcome, then exports it.
func (b *otlpBackend) Trace(ctx context.Context, name string, attrs map[string]string) (context.Context, *Span) {
	if !b.ok {
		return b.fallback.Trace(ctx, name, attrs)
	}

	opt := metric.WithAttributes(tagAttrs(attrs)...)
	b.active.Add(ctx, 1, opt)

	ctx, otelSpan := b.tracer.Start(ctx, name,
		trace.WithAttributes(tagAttrs(attrs)...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)

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
			otelSpan.SetStatus(codes.Error, err.Error())
			otelSpan.RecordError(err)
		} else {
			otelSpan.SetStatus(codes.Ok, "")
		}
		tags["status"] = status
		_ = b.sink.record(bg, opsTotalMetric, 1, tags)

		otelSpan.End()
	})

	return ctx, span
}

func (b *otlpBackend) Flush() {
	if !b.ok {
		b.fallback.Flush()
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = b.meterProvider.ForceFlush(ctx)
	_ = b.tracerProvider.ForceFlush(ctx)
}

func (b *otlpBackend) Close() error {
	b.closeOnce.Do(func() {
		if !b.ok {
			b.closeErr = b.fallback.Close()
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		merr := b.meterProvider.Shutdown(ctx)
		terr := b.tracerProvider.Shutdown(ctx)
		if merr != nil {
			b.closeErr = merr
		} else {
			b.closeErr = terr
		}
	})
	return b.closeErr
}

// Ensure otlpBackend implements Backend
var _ Backend = (*otlpBackend)(nil)
