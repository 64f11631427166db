package sim

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DecisionKind is the operator's verdict on a pending request.
type DecisionKind string

const (
	// DecisionApprove lets the request proceed as submitted.
	DecisionApprove DecisionKind = "approve"
	// DecisionDeny rejects the request.
	DecisionDeny DecisionKind = "deny"
	// DecisionRespond substitutes a hand-written response payload.
	DecisionRespond DecisionKind = "respond"
)

// Decision resolves one pending request. Response is only meaningful for
// DecisionRespond and carries the payload the agent receives.
type Decision struct {
	TurnID   string          `json:"turn_id"`
	Kind     DecisionKind    `json:"kind"`
	Response json.RawMessage `json:"response,omitempty"`
	Note     string          `json:"note,omitempty"`
}

// Validate checks the decision is well-formed enough to apply.
func (d *Decision) Validate() error {
	switch d.Kind {
	case DecisionApprove, DecisionDeny:
		return nil
	case DecisionRespond:
		if len(d.Response) == 0 {
			return NewError(ErrorKindInvalid, "respond decision carries no response payload")
		}
		return nil
	case "":
		return NewError(ErrorKindInvalid, "decision kind is required")
	default:
		return NewError(ErrorKindInvalid, "unknown decision kind %q", d.Kind)
	}
}

// rawDecision is the loosely typed shape scripts and scenario steps produce.
type rawDecision struct {
	TurnID   string `mapstructure:"turn_id"`
	Kind     string `mapstructure:"kind"`
	Response any    `mapstructure:"response"`
	Note     string `mapstructure:"note"`
}

// DecodeDecision builds a Decision from a loosely typed map, coercing
// near-miss primitive types on the way. The response value, if present, is
// re-serialized so the rest of the system only ever sees raw JSON.
func DecodeDecision(m map[string]any) (*Decision, error) {
	var raw rawDecision
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &raw,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating decision decoder: %w", err)
	}
	if err := decoder.Decode(m); err != nil {
		return nil, NewError(ErrorKindInvalid, "malformed decision: %v", err)
	}

	d := &Decision{
		TurnID: raw.TurnID,
		Kind:   DecisionKind(raw.Kind),
		Note:   raw.Note,
	}
	if raw.Response != nil {
		data, err := json.Marshal(raw.Response)
		if err != nil {
			return nil, NewError(ErrorKindInvalid, "unserializable decision response: %v", err)
		}
		d.Response = data
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}
