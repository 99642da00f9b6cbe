package observe

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// SystemBackend is the always-available backend and the terminal link of
// every fallback chain. It writes JSON log lines to a writer and buffers
// metric samples in memory. It has no external dependencies and its
// constructor cannot fail.
type SystemBackend struct {
	level  LogLevel
	writer io.Writer
	mu     sync.Mutex

	metricsMu sync.Mutex
	metrics   map[string][]MetricSample
}

// NewSystemBackend creates a system backend. A nil Writer defaults to stderr.
func NewSystemBackend(opts Options) *SystemBackend {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	return &SystemBackend{
		level:   ParseLogLevel(opts.LogLevel),
		writer:  w,
		metrics: make(map[string][]MetricSample),
	}
}

// Kind returns "system".
func (b *SystemBackend) Kind() string { return KindSystem }

// Log writes one JSON line. Malformed entries and write failures are
// dropped; logging never propagates an error.
func (b *SystemBackend) Log(level LogLevel, msg string, context map[string]any) {
	if level < b.level {
		return
	}

	entry := make(map[string]any, len(context)+3)
	entry["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	entry["level"] = level.String()
	entry["msg"] = msg

	for k, v := range context {
		if isRedactedField(k) {
			entry[k] = "[REDACTED]"
		} else {
			entry[k] = v
		}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.writer.Write(data)
	b.writer.Write([]byte("\n"))
}

// RecordMetric appends one sample to the in-memory buffer and echoes it at
// debug level.
func (b *SystemBackend) RecordMetric(name string, value float64, tags map[string]string) {
	sample := MetricSample{
		Name:      name,
		Value:     value,
		Tags:      copyTags(tags),
		Timestamp: time.Now(),
	}

	b.metricsMu.Lock()
	b.metrics[name] = append(b.metrics[name], sample)
	b.metricsMu.Unlock()

	ctx := map[string]any{"metric": name, "value": value}
	for k, v := range tags {
		ctx[k] = v
	}
	b.Log(LevelDebug, "metric recorded", ctx)
}

// Trace opens a span that logs on entry and, on End, logs duration and
// records duration/outcome samples.
func (b *SystemBackend) Trace(ctx context.Context, name string, attrs map[string]string) (context.Context, *Span) {
	span := newSpan(name, copyTags(attrs), func(s *Span, err error) {
		tags := copyTags(s.Attrs)
		b.RecordMetric(s.Name+"_duration_seconds", s.Duration().Seconds(), tags)
		if err != nil {
			b.RecordMetric(s.Name+"_error", 1, tags)
		} else {
			b.RecordMetric(s.Name+"_success", 1, tags)
		}
		b.Log(LevelDebug, "trace end", map[string]any{
			"span":        s.Name,
			"span_id":     s.ID,
			"duration_ms": float64(s.Duration().Milliseconds()),
			"error":       err != nil,
		})
	})

	b.Log(LevelDebug, "trace start", map[string]any{"span": name, "span_id": span.ID})
	return ctx, span
}

// Flush is a no-op: the writer is unbuffered and metrics live in memory.
func (b *SystemBackend) Flush() {}

// Close releases nothing; the system backend holds no external resources.
func (b *SystemBackend) Close() error { return nil }

// Samples returns the recorded samples for name. Intended for tests and
// debugging; the returned slice is a copy.
func (b *SystemBackend) Samples(name string) []MetricSample {
	b.metricsMu.Lock()
	defer b.metricsMu.Unlock()
	out := make([]MetricSample, len(b.metrics[name]))
	copy(out, b.metrics[name])
	return out
}

// SampleTotal returns the summed value of all samples for name.
func (b *SystemBackend) SampleTotal(name string) float64 {
	b.metricsMu.Lock()
	defer b.metricsMu.Unlock()
	var total float64
	for _, s := range b.metrics[name] {
		total += s.Value
	}
	return total
}

func copyTags(tags map[string]string) map[string]string {
	if tags == nil {
		return nil
	}
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		out[k] = v
	}
	return out
}

func isRedactedField(key string) bool {
	for _, k := range RedactedFields {
		if key == k {
			return true
		}
	}
	return false
}

// Ensure SystemBackend implements Backend
var _ Backend = (*SystemBackend)(nil)
