package tool

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors.
var (
	ErrNilWork    = errors.New("tool: work function is nil")
	ErrNilBackend = errors.New("tool: observability backend is nil")
)

// Error is a typed tool failure carrying the tool name and operation.
type Error struct {
	Tool string
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s failed", e.Tool, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Tool, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Kind implements the failure-kind contract used for error metrics.
func (e *Error) Kind() string { return "ToolError" }

// NewError wraps err as a tool failure.
func NewError(tool, op string, err error) *Error {
	return &Error{Tool: tool, Op: op, Err: err}
}

// kinder is satisfied by failures that name their own kind.
type kinder interface {
	Kind() string
}

// ErrorKind derives the failure-kind tag recorded on error metrics. Typed
// failures name themselves; anything else falls back to its Go type name.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var k kinder
	if errors.As(err, &k) {
		return k.Kind()
	}

	name := fmt.Sprintf("%T", err)
	name = strings.TrimPrefix(name, "*")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
