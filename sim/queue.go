package sim

import "sync"

// RequestQueue holds each session's pending requests in arrival order.
// Current returns the head without removing it, so the operator can inspect
// a request for as long as they like; Advance removes it once the decision
// is in.
type RequestQueue struct {
	mu      sync.Mutex
	pending map[string][]*Request
}

func NewRequestQueue() *RequestQueue {
	return &RequestQueue{
		pending: make(map[string][]*Request),
	}
}

// Submit appends a request to its session's queue.
func (q *RequestQueue) Submit(r *Request) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending[r.SessionID] = append(q.pending[r.SessionID], r)
}

// Current returns the head of the session's queue without removing it.
func (q *RequestQueue) Current(sessionID string) (*Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	pending := q.pending[sessionID]
	if len(pending) == 0 {
		return nil, false
	}
	return pending[0], true
}

// Advance removes and returns the head of the session's queue.
func (q *RequestQueue) Advance(sessionID string) (*Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	pending := q.pending[sessionID]
	if len(pending) == 0 {
		return nil, false
	}

	head := pending[0]
	rest := pending[1:]
	if len(rest) == 0 {
		delete(q.pending, sessionID)
	} else {
		q.pending[sessionID] = rest
	}
	return head, true
}

// Len reports how many requests are pending for the session.
func (q *RequestQueue) Len(sessionID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending[sessionID])
}

// Drop discards the session's queue entirely, for session close.
func (q *RequestQueue) Drop(sessionID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.pending, sessionID)
}
