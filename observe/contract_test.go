package observe

import (
	"context"
	"errors"
	"io"
	"testing"
)

// Every backend variant must satisfy the same behavioral contract: total
// construction, non-panicking operations, exactly-once span bookkeeping.
func TestBackendContract(t *testing.T) {
	backends := map[string]Backend{
		"system": NewSystemBackend(Options{Writer: io.Discard}),
		// Healthy prometheus on an ephemeral port.
		"prometheus": NewPrometheusBackend(Options{Writer: io.Discard, MetricsPort: 0}),
		// Degraded variants: no agent endpoint configured.
		"grafana": NewGrafanaBackend(Options{Writer: io.Discard}),
		"datadog": NewDatadogBackend(Options{Writer: io.Discard}),
	}

	for name, b := range backends {
		t.Run(name, func(t *testing.T) {
			if b == nil {
				t.Fatal("constructor returned nil")
			}
			if b.Kind() != name {
				t.Errorf("Kind = %q, want %q", b.Kind(), name)
			}

			b.Log(LevelInfo, "contract", map[string]any{"k": "v"})
			b.RecordMetric("tool_cache_hit", 1, map[string]string{"tool": "t"})
			b.RecordMetric("op_duration_seconds", 0.1, nil)
			b.RecordMetric("agent_active_operations", 1, nil)

			ctx, span := b.Trace(context.Background(), "tool_run_t", map[string]string{"tool": "t"})
			if ctx == nil {
				t.Error("Trace must return a usable context")
			}
			if span == nil {
				t.Fatal("Trace must return a span")
			}
			span.End(errors.New("contract failure"))
			span.End(nil) // second End is a no-op

			b.Flush()
			if err := b.Close(); err != nil {
				t.Errorf("Close failed: %v", err)
			}
		})
	}
}
