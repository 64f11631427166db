package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("simdeck/sim")

// serviceMetrics holds the instruments the service reports on.
type serviceMetrics struct {
	requests  metric.Int64Counter
	decisions metric.Int64Counter
	queueLen  metric.Int64UpDownCounter
}

func newServiceMetrics() serviceMetrics {
	meter := otel.Meter("simdeck/sim")

	requests, _ := meter.Int64Counter("simdeck.requests",
		metric.WithDescription("Requests submitted to the simulator"))
	decisions, _ := meter.Int64Counter("simdeck.decisions",
		metric.WithDescription("Decisions applied to pending requests"))
	queueLen, _ := meter.Int64UpDownCounter("simdeck.queue.pending",
		metric.WithDescription("Requests currently awaiting a decision"))

	return serviceMetrics{requests: requests, decisions: decisions, queueLen: queueLen}
}

// Service coordinates sessions, the pending-request queue, persistence, and
// event fanout. All methods are safe for concurrent use.
type Service struct {
	l        *slog.Logger
	repo     Repository
	sessions *Manager
	queue    *RequestQueue
	bcast    *Broadcaster
	metrics  serviceMetrics

	// responder, when set, decides every incoming request automatically.
	responder *Responder

	mu   sync.Mutex
	seqs map[string]uint64
}

func NewService(l *slog.Logger, repo Repository) *Service {
	return &Service{
		l:        l,
		repo:     repo,
		sessions: NewManager(repo),
		queue:    NewRequestQueue(),
		bcast:    NewBroadcaster(l),
		metrics:  newServiceMetrics(),
		seqs:     make(map[string]uint64),
	}
}

// SetResponder installs a script responder that decides every request as it
// arrives. Pass nil to return to manual decisions.
func (s *Service) SetResponder(r *Responder) {
	s.responder = r
}

// CreateSession registers a new active session.
func (s *Service) CreateSession(ctx context.Context, agentName, description string) (*Session, error) {
	ctx, span := tracer.Start(ctx, "sim.CreateSession")
	defer span.End()

	sess, err := s.sessions.Create(ctx, agentName, description)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("session_id", sess.ID))
	s.l.InfoContext(ctx, "session created", "session_id", sess.ID, "agent", agentName)
	return sess, nil
}

// GetSession returns a session by ID.
func (s *Service) GetSession(ctx context.Context, id string) (*Session, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		if err == ErrSessionNotFound {
			return nil, NewError(ErrorKindNotFound, "session %s not found", id).WithSession(id)
		}
		return nil, fmt.Errorf("error loading session %s: %w", id, err)
	}
	return sess, nil
}

// ListSessions returns every known session.
func (s *Service) ListSessions(ctx context.Context) ([]*Session, error) {
	return s.sessions.List(ctx)
}

// SubmitRequest enqueues an intercepted agent request, records it in the
// session history, and notifies subscribers. When a responder is installed
// the request is decided immediately after being enqueued.
func (s *Service) SubmitRequest(ctx context.Context, sessionID, agentName string, payload json.RawMessage) (*Request, error) {
	ctx, span := tracer.Start(ctx, "sim.SubmitRequest",
		trace.WithAttributes(attribute.String("session_id", sessionID)))
	defer span.End()

	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != StatusActive {
		return nil, NewError(ErrorKindConflict, "session %s is %s", sessionID, sess.Status).WithSession(sessionID)
	}
	if len(payload) == 0 {
		return nil, NewError(ErrorKindInvalid, "request payload is empty").WithSession(sessionID)
	}

	req := &Request{
		TurnID:     uuid.New().String(),
		SessionID:  sessionID,
		AgentName:  agentName,
		Payload:    payload,
		ReceivedAt: time.Now().UTC(),
	}
	s.queue.Submit(req)
	s.metrics.requests.Add(ctx, 1)
	s.metrics.queueLen.Add(ctx, 1)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("error encoding request %s: %w", req.TurnID, err)
	}
	if _, err := s.emit(ctx, sessionID, EventRequest, body); err != nil {
		return nil, err
	}

	s.l.InfoContext(ctx, "request submitted",
		"session_id", sessionID,
		"turn_id", req.TurnID,
		"agent", agentName,
		"pending", s.queue.Len(sessionID))

	if s.responder != nil {
		if err := s.autoDecide(ctx, sess, req); err != nil {
			// The request stays queued for a manual decision.
			s.l.ErrorContext(ctx, "script responder failed",
				"session_id", sessionID,
				"turn_id", req.TurnID,
				"error", err)
		}
	}
	return req, nil
}

func (s *Service) autoDecide(ctx context.Context, sess *Session, req *Request) error {
	decision, err := s.responder.Decide(ctx, sess, req)
	if err != nil {
		return err
	}
	if _, err := s.SubmitDecision(ctx, sess.ID, decision); err != nil {
		return fmt.Errorf("error applying scripted decision: %w", err)
	}
	return nil
}

// CurrentRequest returns the request at the head of the session's queue.
func (s *Service) CurrentRequest(ctx context.Context, sessionID string) (*Request, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	req, ok := s.queue.Current(sessionID)
	if !ok {
		return nil, NewError(ErrorKindNotFound, "no pending request").WithSession(sessionID)
	}
	return req, nil
}

// SubmitDecision resolves the session's current pending request. The
// decision must name the turn at the head of the queue; decisions for any
// other turn are rejected so an operator and a script cannot race past each
// other.
func (s *Service) SubmitDecision(ctx context.Context, sessionID string, d *Decision) (*Event, error) {
	ctx, span := tracer.Start(ctx, "sim.SubmitDecision",
		trace.WithAttributes(attribute.String("session_id", sessionID)))
	defer span.End()

	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != StatusActive {
		return nil, NewError(ErrorKindConflict, "session %s is %s", sessionID, sess.Status).WithSession(sessionID)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	current, ok := s.queue.Current(sessionID)
	if !ok {
		return nil, NewError(ErrorKindConflict, "no pending request to decide").WithSession(sessionID)
	}
	if d.TurnID != "" && d.TurnID != current.TurnID {
		return nil, NewError(ErrorKindConflict, "decision targets turn %s but %s is pending", d.TurnID, current.TurnID).
			WithSession(sessionID).WithTurn(d.TurnID)
	}
	d.TurnID = current.TurnID

	s.queue.Advance(sessionID)
	s.metrics.decisions.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(d.Kind))))
	s.metrics.queueLen.Add(ctx, -1)

	body, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("error encoding decision for turn %s: %w", d.TurnID, err)
	}
	event, err := s.emit(ctx, sessionID, EventDecision, body)
	if err != nil {
		return nil, err
	}

	s.l.InfoContext(ctx, "decision applied",
		"session_id", sessionID,
		"turn_id", d.TurnID,
		"kind", string(d.Kind),
		"pending", s.queue.Len(sessionID))
	return event, nil
}

// Events returns the session's full recorded history in order.
func (s *Service) Events(ctx context.Context, sessionID string) ([]*Event, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	events, err := s.repo.Events(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("error loading events for session %s: %w", sessionID, err)
	}
	return events, nil
}

// Subscribe returns the session's recorded history plus a live channel for
// everything after it. The snapshot and the subscription are taken under
// the sequence lock, so no event falls between them. The caller must invoke
// cancel when done.
func (s *Service) Subscribe(ctx context.Context, sessionID string) ([]*Event, <-chan *Event, func(), error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.repo.Events(ctx, sessionID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error loading events for session %s: %w", sessionID, err)
	}
	live, cancel := s.bcast.Subscribe(sessionID)
	return history, live, cancel, nil
}

// CloseSession ends the session: pending requests are discarded, a closing
// event is recorded, and subscriber channels are closed.
func (s *Service) CloseSession(ctx context.Context, sessionID string) (*Session, error) {
	ctx, span := tracer.Start(ctx, "sim.CloseSession",
		trace.WithAttributes(attribute.String("session_id", sessionID)))
	defer span.End()

	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	sess, err := s.sessions.Close(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("error closing session %s: %w", sessionID, err)
	}

	dropped := s.queue.Len(sessionID)
	s.queue.Drop(sessionID)
	if dropped > 0 {
		s.metrics.queueLen.Add(ctx, int64(-dropped))
	}

	if _, err := s.emit(ctx, sessionID, EventSessionClosed, nil); err != nil {
		return nil, err
	}
	s.bcast.CloseSession(sessionID)

	s.l.InfoContext(ctx, "session closed", "session_id", sessionID, "dropped_requests", dropped)
	return sess, nil
}

// emit assigns the next sequence number, persists the event, and fans it
// out to subscribers.
func (s *Service) emit(ctx context.Context, sessionID string, t EventType, payload json.RawMessage) (*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq, err := s.nextSeqLocked(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	event := &Event{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Seq:       seq,
		Type:      t,
		Time:      time.Now().UTC(),
		Payload:   payload,
	}
	if err := s.repo.AppendEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("error persisting %s event for session %s: %w", t, sessionID, err)
	}
	s.bcast.Publish(event)
	return event, nil
}

// nextSeqLocked returns the next sequence number for the session. On the
// first event after a restart the counter resumes from the persisted
// history.
func (s *Service) nextSeqLocked(ctx context.Context, sessionID string) (uint64, error) {
	if _, ok := s.seqs[sessionID]; !ok {
		events, err := s.repo.Events(ctx, sessionID)
		if err != nil {
			return 0, fmt.Errorf("error resuming sequence for session %s: %w", sessionID, err)
		}
		if len(events) > 0 {
			s.seqs[sessionID] = events[len(events)-1].Seq
		}
	}
	s.seqs[sessionID]++
	return s.seqs[sessionID], nil
}
