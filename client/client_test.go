package client

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simdeck/simdeck/server"
	"github.com/simdeck/simdeck/sim"
	"github.com/simdeck/simdeck/store"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo, err := store.OpenBadger(store.BadgerConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := sim.NewService(logger, repo)

	g := gin.New()
	server.New(logger, svc).Routes(g)

	ts := httptest.NewServer(g)
	t.Cleanup(ts.Close)
	return New(ts.URL)
}

func TestClientSessionLifecycle(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	sess, err := c.CreateSession(ctx, "researcher", "trial run")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, sim.StatusActive, sess.Status)

	got, err := c.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)

	sessions, err := c.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	closed, err := c.CloseSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sim.StatusClosed, closed.Status)
}

func TestClientErrorsCarryKind(t *testing.T) {
	c := newTestClient(t)

	_, err := c.GetSession(context.Background(), "missing")
	require.Error(t, err)

	var simErr *sim.Error
	require.ErrorAs(t, err, &simErr)
	assert.Equal(t, sim.ErrorKindNotFound, simErr.Kind)
}

func TestClientRequestDecisionRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	sess, err := c.CreateSession(ctx, "agent", "")
	require.NoError(t, err)

	payload := json.RawMessage(`{"model":"m1","messages":[{"role":"user","content":"hi"}]}`)
	req, err := c.SubmitRequest(ctx, sess.ID, "agent", payload)
	require.NoError(t, err)
	assert.NotEmpty(t, req.TurnID)

	current, err := c.CurrentRequest(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, req.TurnID, current.TurnID)

	event, err := c.SubmitDecision(ctx, sess.ID, &sim.Decision{
		TurnID: req.TurnID,
		Kind:   sim.DecisionApprove,
	})
	require.NoError(t, err)
	assert.Equal(t, sim.EventDecision, event.Type)

	events, err := c.Events(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
}

func TestClientStreamReplaysThenFollows(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	sess, err := c.CreateSession(ctx, "agent", "")
	require.NoError(t, err)

	// One event already recorded before the subscriber connects.
	_, err = c.SubmitRequest(ctx, sess.ID, "agent", json.RawMessage(`{"n":1}`))
	require.NoError(t, err)

	events, cancel, err := c.Stream(ctx, sess.ID)
	require.NoError(t, err)
	defer cancel()

	first := receiveEvent(t, events)
	assert.Equal(t, sim.EventRequest, first.Type)
	assert.Equal(t, uint64(1), first.Seq)

	// A decision submitted after connecting arrives live.
	req, err := c.CurrentRequest(ctx, sess.ID)
	require.NoError(t, err)
	_, err = c.SubmitDecision(ctx, sess.ID, &sim.Decision{TurnID: req.TurnID, Kind: sim.DecisionDeny})
	require.NoError(t, err)

	second := receiveEvent(t, events)
	assert.Equal(t, sim.EventDecision, second.Type)
	assert.Equal(t, uint64(2), second.Seq)
}

func receiveEvent(t *testing.T, events <-chan *sim.Event) *sim.Event {
	t.Helper()
	select {
	case e, ok := <-events:
		require.True(t, ok, "stream closed early")
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for stream event")
		return nil
	}
}

func TestPendingAwaitAfterResolve(t *testing.T) {
	p := NewPending()

	d, _ := json.Marshal(sim.Decision{TurnID: "t-1", Kind: sim.DecisionApprove})
	p.Resolve(&sim.Event{Type: sim.EventDecision, Payload: d})

	got, err := p.Await(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, sim.DecisionApprove, got.Kind)
}

func TestPendingAwaitBeforeResolve(t *testing.T) {
	p := NewPending()

	go func() {
		time.Sleep(10 * time.Millisecond)
		d, _ := json.Marshal(sim.Decision{TurnID: "t-2", Kind: sim.DecisionDeny})
		p.Resolve(&sim.Event{Type: sim.EventDecision, Payload: d})
	}()

	got, err := p.Await(context.Background(), "t-2")
	require.NoError(t, err)
	assert.Equal(t, sim.DecisionDeny, got.Kind)
}

func TestPendingAwaitCancelled(t *testing.T) {
	p := NewPending()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Await(ctx, "never")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPendingIgnoresNonDecisionEvents(t *testing.T) {
	p := NewPending()

	p.Resolve(&sim.Event{Type: sim.EventRequest, Payload: json.RawMessage(`{"turn_id":"t-3"}`)})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.Await(ctx, "t-3")
	assert.Error(t, err)
}
