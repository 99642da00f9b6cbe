package observe

import "errors"

// Configuration errors.
var (
	// ErrUnknownKind indicates a backend kind outside the supported set.
	// The factory treats it as a request for the system backend rather than
	// surfacing it, but constructors report it for direct callers.
	ErrUnknownKind = errors.New("observe: unknown backend kind")

	// ErrNoEndpoint indicates an OTLP-backed variant was requested without
	// an agent endpoint.
	ErrNoEndpoint = errors.New("observe: agent endpoint not configured")
)

// Runtime errors.
var (
	// ErrClosed indicates an operation on a closed backend.
	ErrClosed = errors.New("observe: backend is closed")
)

// ValidKinds lists the supported backend kinds.
var ValidKinds = []string{KindSystem, KindPrometheus, KindGrafana, KindDatadog}

// RedactedFields lists log context keys whose values are masked before
// writing. They may carry credentials or raw tool inputs.
var RedactedFields = []string{
	"input",
	"inputs",
	"password",
	"secret",
	"token",
	"api_key",
	"apiKey",
	"credential",
}
