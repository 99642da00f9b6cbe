package observe

// GrafanaBackend ships metrics and traces over OTLP gRPC to a Grafana
// agent (Alloy or the OTel collector fronting a Grafana stack).
type GrafanaBackend struct {
	*otlpBackend
}

// NewGrafanaBackend creates a Grafana backend. Missing or broken agent
// configuration degrades it permanently to the system backend; the
// constructor never fails.
func NewGrafanaBackend(opts Options) *GrafanaBackend {
	return &GrafanaBackend{otlpBackend: newOTLPBackend(KindGrafana, opts)}
}

// Ensure GrafanaBackend implements Backend
var _ Backend = (*GrafanaBackend)(nil)
