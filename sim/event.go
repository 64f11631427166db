package sim

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// EventType identifies what a session event records.
type EventType string

const (
	// EventRequest records an intercepted agent request entering the queue.
	EventRequest EventType = "request"
	// EventDecision records the decision that resolved a request.
	EventDecision EventType = "decision"
	// EventSessionClosed records the end of a session.
	EventSessionClosed EventType = "session_closed"
)

// Event is one entry in a session's ordered history. Seq is a per-session
// monotonic counter assigned when the event is emitted; subscribers use it
// to stitch replayed history onto the live stream without gaps.
//
// Payload is kept as raw JSON end to end so that object key order from the
// originating document survives into the viewer.
type Event struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Seq       uint64          `json:"seq"`
	Type      EventType       `json:"type"`
	Time      time.Time       `json:"time"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Request is a pending agent call awaiting a decision.
type Request struct {
	TurnID     string          `json:"turn_id"`
	SessionID  string          `json:"session_id"`
	AgentName  string          `json:"agent_name"`
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt time.Time       `json:"received_at"`
}

// ErrSessionNotFound is returned by Repository implementations when no
// session exists under the requested ID.
var ErrSessionNotFound = errors.New("session not found")

// Repository persists sessions and their event history. Implementations
// must be safe for concurrent use.
type Repository interface {
	PutSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	ListSessions(ctx context.Context) ([]*Session, error)
	AppendEvent(ctx context.Context, e *Event) error
	Events(ctx context.Context, sessionID string) ([]*Event, error)
	Close() error
}
