package observe

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
)

func scrape(t *testing.T, addr string) string {
	t.Helper()
	resp, err := http.Get(fmt.Sprintf("http://%s/metrics", addr))
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read scrape body: %v", err)
	}
	return string(body)
}

func TestPrometheusBackend_ServesMetrics(t *testing.T) {
	b := NewPrometheusBackend(Options{Writer: io.Discard, MetricsPort: 0})
	defer b.Close()

	if b.Addr() == "" {
		t.Fatal("backend should be healthy on an ephemeral port")
	}

	b.RecordMetric("tool_cache_hit", 1, map[string]string{"tool": "WeatherTool"})
	b.RecordMetric("tool_run_duration_seconds", 0.25, map[string]string{"tool": "WeatherTool"})

	body := scrape(t, b.Addr())
	if !strings.Contains(body, "tool_cache_hit") {
		t.Errorf("counter missing from scrape output:\n%s", body)
	}
	if !strings.Contains(body, "tool_run_duration_seconds") {
		t.Errorf("histogram missing from scrape output:\n%s", body)
	}
}

func TestPrometheusBackend_TraceBookkeeping(t *testing.T) {
	b := NewPrometheusBackend(Options{Writer: io.Discard, MetricsPort: 0})
	defer b.Close()

	_, span := b.Trace(t.Context(), "crew_run_WeatherCrew", map[string]string{"crew": "WeatherCrew"})
	span.End(nil)

	body := scrape(t, b.Addr())
	if !strings.Contains(body, "agent_operations_total") {
		t.Errorf("outcome counter missing from scrape output:\n%s", body)
	}
	if !strings.Contains(body, "agent_operation_duration_seconds") {
		t.Errorf("duration histogram missing from scrape output:\n%s", body)
	}
	if !strings.Contains(body, `status="success"`) {
		t.Errorf("success status label missing from scrape output:\n%s", body)
	}
}

func TestPrometheusBackend_DegradedDelegatesToSystem(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	b := NewPrometheusBackend(Options{Writer: io.Discard, MetricsPort: port})
	defer b.Close()

	if b.Addr() != "" {
		t.Fatal("backend should be degraded on a conflicting port")
	}

	b.RecordMetric("tool_cache_miss", 1, map[string]string{"tool": "GSCTool"})
	if got := b.fallback.SampleTotal("tool_cache_miss"); got != 1 {
		t.Errorf("degraded sample total = %v, want 1 (routed to system backend)", got)
	}

	// Fallback is permanent: freeing the port must not promote the backend.
	ln.Close()
	b.RecordMetric("tool_cache_miss", 1, map[string]string{"tool": "GSCTool"})
	if got := b.fallback.SampleTotal("tool_cache_miss"); got != 2 {
		t.Errorf("degraded sample total = %v, want 2 (no retry-then-promote)", got)
	}
}

func TestPrometheusBackend_CloseStopsListener(t *testing.T) {
	b := NewPrometheusBackend(Options{Writer: io.Discard, MetricsPort: 0})
	addr := b.Addr()

	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// Close is safe to repeat.
	if err := b.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	if _, err := http.Get(fmt.Sprintf("http://%s/metrics", addr)); err == nil {
		t.Error("listener should be down after Close")
	}
}
