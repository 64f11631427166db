// Package client is the Go client for a simdeck server. Instrumented agents
// use it to route intercepted requests through the deck and block on the
// operator's decision; the TUI uses it to attach to running sessions.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/simdeck/simdeck/sim"
)

// Client speaks the server's JSON API.
type Client struct {
	http    *resty.Client
	baseURL string
}

// Option adjusts the client at construction.
type Option func(*Client)

// WithTimeout overrides the default per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

// WithRetries sets the retry count for transient failures.
func WithRetries(n int) Option {
	return func(c *Client) {
		c.http.SetRetryCount(n)
	}
}

// New builds a client for the server at baseURL. A bare host:port is
// accepted and normalized to http://.
func New(baseURL string, opts ...Option) *Client {
	baseURL = normalizeBaseURL(baseURL)

	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30 * time.Second),
		baseURL: baseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func normalizeBaseURL(u string) string {
	u = strings.TrimRight(u, "/")
	if !strings.Contains(u, "://") {
		u = "http://" + u
	}
	return u
}

// errorBody is the server's error envelope.
type errorBody struct {
	Error *sim.Error `json:"error"`
}

// apiError turns a non-2xx response into the sim.Error the server sent, or a
// synthesized one when the body is not ours.
func apiError(resp *resty.Response) error {
	if body, ok := resp.Error().(*errorBody); ok && body.Error != nil {
		return body.Error
	}
	return sim.NewError(sim.ErrorKindUnavailable, "server returned %s", resp.Status())
}

// CreateSession registers a new session on the server.
func (c *Client) CreateSession(ctx context.Context, agentName, description string) (*sim.Session, error) {
	var sess sim.Session
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"agent_name": agentName, "description": description}).
		SetResult(&sess).
		SetError(&errorBody{}).
		Post("/v1/sessions")
	if err != nil {
		return nil, fmt.Errorf("error creating session: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &sess, nil
}

// GetSession fetches one session.
func (c *Client) GetSession(ctx context.Context, id string) (*sim.Session, error) {
	var sess sim.Session
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&sess).
		SetError(&errorBody{}).
		Get("/v1/sessions/" + id)
	if err != nil {
		return nil, fmt.Errorf("error fetching session %s: %w", id, err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &sess, nil
}

// ListSessions fetches every session the server knows.
func (c *Client) ListSessions(ctx context.Context) ([]*sim.Session, error) {
	var page struct {
		Sessions []*sim.Session `json:"sessions"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&page).
		SetError(&errorBody{}).
		Get("/v1/sessions")
	if err != nil {
		return nil, fmt.Errorf("error listing sessions: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return page.Sessions, nil
}

// SubmitRequest routes an intercepted agent request into the session queue
// and returns the pending turn.
func (c *Client) SubmitRequest(ctx context.Context, sessionID, agentName string, payload json.RawMessage) (*sim.Request, error) {
	var req sim.Request
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"agent_name": agentName, "payload": payload}).
		SetResult(&req).
		SetError(&errorBody{}).
		Post("/v1/sessions/" + sessionID + "/requests")
	if err != nil {
		return nil, fmt.Errorf("error submitting request: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &req, nil
}

// CurrentRequest returns the request at the head of the session's queue.
func (c *Client) CurrentRequest(ctx context.Context, sessionID string) (*sim.Request, error) {
	var req sim.Request
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&req).
		SetError(&errorBody{}).
		Get("/v1/sessions/" + sessionID + "/requests/current")
	if err != nil {
		return nil, fmt.Errorf("error fetching current request: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &req, nil
}

// SubmitDecision resolves the session's pending request.
func (c *Client) SubmitDecision(ctx context.Context, sessionID string, d *sim.Decision) (*sim.Event, error) {
	var event sim.Event
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(d).
		SetResult(&event).
		SetError(&errorBody{}).
		Post("/v1/sessions/" + sessionID + "/decisions")
	if err != nil {
		return nil, fmt.Errorf("error submitting decision: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &event, nil
}

// Events fetches the session's full recorded history.
func (c *Client) Events(ctx context.Context, sessionID string) ([]*sim.Event, error) {
	var page struct {
		Events []*sim.Event `json:"events"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&page).
		SetError(&errorBody{}).
		Get("/v1/sessions/" + sessionID + "/events")
	if err != nil {
		return nil, fmt.Errorf("error fetching events: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return page.Events, nil
}

// CloseSession ends the session.
func (c *Client) CloseSession(ctx context.Context, sessionID string) (*sim.Session, error) {
	var sess sim.Session
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&sess).
		SetError(&errorBody{}).
		Delete("/v1/sessions/" + sessionID)
	if err != nil {
		return nil, fmt.Errorf("error closing session %s: %w", sessionID, err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &sess, nil
}
