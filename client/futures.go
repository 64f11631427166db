package client

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/simdeck/simdeck/sim"
)

// Pending matches decision events arriving on a session stream to the turns
// waiting for them. An instrumented agent submits a request, calls Await with
// the turn ID, and blocks until the operator (or a script) decides.
//
// Resolve and Await can run in any order: a decision that lands before its
// waiter is kept until the waiter arrives.
type Pending struct {
	mu       sync.Mutex
	waiters  map[string]chan *sim.Decision
	resolved map[string]*sim.Decision
}

func NewPending() *Pending {
	return &Pending{
		waiters:  make(map[string]chan *sim.Decision),
		resolved: make(map[string]*sim.Decision),
	}
}

// Resolve inspects a stream event and, when it carries a decision, wakes the
// matching waiter. Non-decision events are ignored, so the whole stream can
// be fed through unfiltered.
func (p *Pending) Resolve(e *sim.Event) {
	if e == nil || e.Type != sim.EventDecision {
		return
	}

	var d sim.Decision
	if err := json.Unmarshal(e.Payload, &d); err != nil || d.TurnID == "" {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if ch, ok := p.waiters[d.TurnID]; ok {
		ch <- &d
		delete(p.waiters, d.TurnID)
		return
	}
	p.resolved[d.TurnID] = &d
}

// Await blocks until the turn's decision arrives or ctx ends.
func (p *Pending) Await(ctx context.Context, turnID string) (*sim.Decision, error) {
	p.mu.Lock()
	if d, ok := p.resolved[turnID]; ok {
		delete(p.resolved, turnID)
		p.mu.Unlock()
		return d, nil
	}

	// Buffered so Resolve never blocks on a waiter that gave up.
	ch := make(chan *sim.Decision, 1)
	p.waiters[turnID] = ch
	p.mu.Unlock()

	select {
	case d := <-ch:
		return d, nil
	case <-ctx.Done():
		p.mu.Lock()
		delete(p.waiters, turnID)
		p.mu.Unlock()
		return nil, ctx.Err()
	}
}
