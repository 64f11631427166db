package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/object"
)

// Responder evaluates an operator-supplied script against each incoming
// request and turns the script's return value into a decision. Scripts run
// sandboxed: WithoutDefaultGlobals strips the os/exec/file builtins, so only
// the injected bindings are visible to script code.
//
// Bindings:
//
//	request - turn_id, agent, payload (the decoded request payload)
//	session - id, agent, description
//	decide  - decide.approve(), decide.deny(note), decide.respond(payload)
//
// The script's final expression is its result: a decide.* call, or a plain
// map of the same shape.
type Responder struct {
	l    *slog.Logger
	code string
}

func NewResponder(l *slog.Logger, code string) *Responder {
	return &Responder{l: l, code: code}
}

// NewResponderFromFile loads the script source from path.
func NewResponderFromFile(l *slog.Logger, path string) (*Responder, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading script file: %w", err)
	}
	return NewResponder(l, string(code)), nil
}

// Decide runs the script for one request.
func (r *Responder) Decide(ctx context.Context, sess *Session, req *Request) (*Decision, error) {
	var payload any
	if len(req.Payload) > 0 {
		if err := json.Unmarshal(req.Payload, &payload); err != nil {
			return nil, fmt.Errorf("error decoding request payload: %w", err)
		}
	}

	globals := map[string]any{
		"request": map[string]any{
			"turn_id": req.TurnID,
			"agent":   req.AgentName,
			"payload": payload,
		},
		"session": map[string]any{
			"id":          sess.ID,
			"agent":       sess.AgentName,
			"description": sess.Description,
		},
		"decide": decideModule(),
	}

	result, err := risor.Eval(ctx, r.code,
		risor.WithoutDefaultGlobals(),
		risor.WithGlobals(globals),
	)
	if err != nil {
		return nil, fmt.Errorf("script error: %w", err)
	}

	value := objectToGo(result)
	m, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("script returned %T, expected a decision map", value)
	}

	decision, err := DecodeDecision(m)
	if err != nil {
		return nil, err
	}
	decision.TurnID = req.TurnID
	return decision, nil
}

// decideModule exposes the decision constructors to scripts, so script code
// reads as decide.approve() rather than a hand-built map.
func decideModule() *object.Module {
	return object.NewBuiltinsModule("decide", map[string]object.Object{
		"approve": object.NewBuiltin("decide.approve", func(ctx context.Context, args ...object.Object) object.Object {
			return object.NewMap(map[string]object.Object{
				"kind": object.NewString(string(DecisionApprove)),
			})
		}),
		"deny": object.NewBuiltin("decide.deny", func(ctx context.Context, args ...object.Object) object.Object {
			m := map[string]object.Object{
				"kind": object.NewString(string(DecisionDeny)),
			}
			if len(args) > 0 {
				if note, ok := args[0].(*object.String); ok {
					m["note"] = note
				}
			}
			return object.NewMap(m)
		}),
		"respond": object.NewBuiltin("decide.respond", func(ctx context.Context, args ...object.Object) object.Object {
			if len(args) != 1 {
				return object.NewError(fmt.Errorf("decide.respond takes exactly one argument"))
			}
			return object.NewMap(map[string]object.Object{
				"kind":     object.NewString(string(DecisionRespond)),
				"response": args[0],
			})
		}),
	})
}

// objectToGo recursively converts a script value to a native Go value.
func objectToGo(obj object.Object) any {
	if obj == nil {
		return nil
	}

	switch o := obj.(type) {
	case *object.Map:
		m := make(map[string]any, len(o.Value()))
		for k, v := range o.Value() {
			m[k] = objectToGo(v)
		}
		return m
	case *object.List:
		items := o.Value()
		out := make([]any, len(items))
		for i, v := range items {
			out[i] = objectToGo(v)
		}
		return out
	case *object.NilType:
		return nil
	default:
		// String, Int, Float, Bool return their native Go value.
		return obj.Interface()
	}
}
