package observe

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterSink routes convention-named samples onto OpenTelemetry instruments,
// creating instruments lazily per metric name. Names containing "duration"
// become histograms, "active" gauges, everything else counters. Callers are
// internal tools with a small fixed metric vocabulary, which is what makes
// the naming dispatch tolerable.
type meterSink struct {
	meter metric.Meter

	mu         sync.Mutex
	counters   map[string]metric.Float64Counter
	histograms map[string]metric.Float64Histogram
	gauges     map[string]metric.Float64Gauge
}

func newMeterSink(meter metric.Meter) *meterSink {
	return &meterSink{
		meter:      meter,
		counters:   make(map[string]metric.Float64Counter),
		histograms: make(map[string]metric.Float64Histogram),
		gauges:     make(map[string]metric.Float64Gauge),
	}
}

func (s *meterSink) record(ctx context.Context, name string, value float64, tags map[string]string) error {
	opt := metric.WithAttributes(tagAttrs(tags)...)
	lower := strings.ToLower(name)

	switch {
	case strings.Contains(lower, "duration"):
		hist, err := s.histogram(name)
		if err != nil {
			return err
		}
		hist.Record(ctx, value, opt)
	case strings.Contains(lower, "active"):
		gauge, err := s.gauge(name)
		if err != nil {
			return err
		}
		gauge.Record(ctx, value, opt)
	default:
		counter, err := s.counter(name)
		if err != nil {
			return err
		}
		counter.Add(ctx, value, opt)
	}
	return nil
}

func (s *meterSink) counter(name string) (metric.Float64Counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.counters[name]; ok {
		return c, nil
	}
	c, err := s.meter.Float64Counter(name)
	if err != nil {
		return nil, err
	}
	s.counters[name] = c
	return c, nil
}

func (s *meterSink) histogram(name string) (metric.Float64Histogram, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.histograms[name]; ok {
		return h, nil
	}
	h, err := s.meter.Float64Histogram(name)
	if err != nil {
		return nil, err
	}
	s.histograms[name] = h
	return h, nil
}

func (s *meterSink) gauge(name string) (metric.Float64Gauge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.gauges[name]; ok {
		return g, nil
	}
	g, err := s.meter.Float64Gauge(name)
	if err != nil {
		return nil, err
	}
	s.gauges[name] = g
	return g, nil
}

func tagAttrs(tags map[string]string) []attribute.KeyValue {
	if len(tags) == 0 {
		return nil
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]attribute.KeyValue, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, attribute.String(k, tags[k]))
	}
	return attrs
}
