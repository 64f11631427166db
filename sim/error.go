package sim

import "fmt"

// ErrorKind classifies simulator errors for transport mapping and retry
// decisions.
type ErrorKind string

const (
	// ErrorKindInvalid signals malformed input that will never succeed.
	ErrorKindInvalid ErrorKind = "invalid"
	// ErrorKindNotFound signals a missing session or turn.
	ErrorKindNotFound ErrorKind = "not_found"
	// ErrorKindConflict signals current state rejecting the operation,
	// such as a closed session or a decision for a stale turn.
	ErrorKindConflict ErrorKind = "conflict"
	// ErrorKindUnavailable signals a transient backend failure.
	ErrorKindUnavailable ErrorKind = "unavailable"
)

// Error is the canonical error crossing the service boundary. It is
// JSON-serializable so transport layers can return it verbatim.
type Error struct {
	Kind    ErrorKind      `json:"kind"`
	Message string         `json:"message"`
	Session string         `json:"session,omitempty"`
	Turn    string         `json:"turn,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func (e *Error) Error() string {
	if e.Session != "" {
		return fmt.Sprintf("[%s] %s (session: %s)", e.Kind, e.Message, e.Session)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// NewError creates an Error with the given kind and message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithSession attaches the session ID the error refers to.
func (e *Error) WithSession(id string) *Error {
	e.Session = id
	return e
}

// WithTurn attaches the turn ID the error refers to.
func (e *Error) WithTurn(id string) *Error {
	e.Turn = id
	return e
}

// WithMeta attaches an arbitrary metadata entry.
func (e *Error) WithMeta(key string, value any) *Error {
	if e.Meta == nil {
		e.Meta = make(map[string]any)
	}
	e.Meta[key] = value
	return e
}

// ToMap converts the error to a map suitable for script contexts and JSON
// bodies.
func (e *Error) ToMap() map[string]any {
	m := map[string]any{
		"kind":    string(e.Kind),
		"message": e.Message,
	}
	if e.Session != "" {
		m["session"] = e.Session
	}
	if e.Turn != "" {
		m["turn"] = e.Turn
	}
	return m
}
