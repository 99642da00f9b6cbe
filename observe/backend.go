package observe

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Backend kinds.
const (
	KindSystem     = "system"
	KindPrometheus = "prometheus"
	KindGrafana    = "grafana"
	KindDatadog    = "datadog"
)

// LogLevel represents a logging level.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLogLevel parses a string log level.
func ParseLogLevel(s string) LogLevel {
	switch s {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Backend is the capability interface all observability variants satisfy.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Errors: Log and RecordMetric are best-effort and must never panic or
//     propagate failures into business logic.
//   - Lifecycle: Close releases held resources; behavior of any call after
//     Close is undefined and callers must not rely on it.
type Backend interface {
	// Kind returns the immutable backend-kind tag.
	Kind() string

	// Log appends a human-readable entry with key=value context.
	Log(level LogLevel, msg string, context map[string]any)

	// RecordMetric appends one sample. Variants route the sample to the
	// metric kind that best matches the name: names containing "duration"
	// map to a distribution, "active" to a gauge, anything else to a counter.
	RecordMetric(name string, value float64, tags map[string]string)

	// Trace opens a scoped span. The caller must call End exactly once on
	// the returned span, on every exit path.
	Trace(ctx context.Context, name string, attrs map[string]string) (context.Context, *Span)

	// Flush pushes any buffered telemetry. Best-effort.
	Flush()

	// Close releases all held resources (handlers, timers, listeners).
	Close() error
}

// MetricSample is one recorded metric value. Samples are append-only and
// never mutated after recording.
type MetricSample struct {
	Name      string
	Value     float64
	Tags      map[string]string
	Timestamp time.Time
}

// Span is a transient value representing one traced operation.
type Span struct {
	ID        string
	Name      string
	Attrs     map[string]string
	StartTime time.Time
	EndTime   time.Time

	mu    sync.Mutex
	ended bool
	onEnd func(*Span, error)
}

func newSpan(name string, attrs map[string]string, onEnd func(*Span, error)) *Span {
	return &Span{
		ID:        uuid.NewString(),
		Name:      name,
		Attrs:     attrs,
		StartTime: time.Now(),
		onEnd:     onEnd,
	}
}

// End closes the span, recording duration and outcome bookkeeping. It runs
// at most once; later calls are no-ops. Bookkeeping is best-effort: a panic
// inside it is swallowed so it can never mask the caller's real outcome.
func (s *Span) End(err error) {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	s.EndTime = time.Now()
	onEnd := s.onEnd
	s.mu.Unlock()

	if onEnd == nil {
		return
	}
	func() {
		defer func() { _ = recover() }()
		onEnd(s, err)
	}()
}

// Ended reports whether End has run.
func (s *Span) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// Duration returns the span's elapsed time, zero until End has run.
func (s *Span) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ended {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}
