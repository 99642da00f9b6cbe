package observe

// DatadogBackend ships metrics and traces over OTLP gRPC to a Datadog
// agent's OTLP ingest.
type DatadogBackend struct {
	*otlpBackend
}

// NewDatadogBackend creates a Datadog backend. Missing or broken agent
// configuration degrades it permanently to the system backend; the
// constructor never fails.
func NewDatadogBackend(opts Options) *DatadogBackend {
	return &DatadogBackend{otlpBackend: newOTLPBackend(KindDatadog, opts)}
}

// Ensure DatadogBackend implements Backend
var _ Backend = (*DatadogBackend)(nil)
