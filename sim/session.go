package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is a session's lifecycle state.
type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// Session is one simulated agent run: a stream of intercepted requests and
// the decisions that resolved them.
type Session struct {
	ID          string    `json:"id"`
	Description string    `json:"description,omitempty"`
	AgentName   string    `json:"agent_name,omitempty"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Manager creates and looks up sessions. The repository is the source of
// truth; an in-memory cache serves repeat lookups on the hot path.
type Manager struct {
	mu    sync.RWMutex
	cache map[string]*Session
	repo  Repository
}

func NewManager(repo Repository) *Manager {
	return &Manager{
		cache: make(map[string]*Session),
		repo:  repo,
	}
}

// Create mints a new active session and persists it.
func (m *Manager) Create(ctx context.Context, agentName, description string) (*Session, error) {
	s := &Session{
		ID:          uuid.New().String(),
		Description: description,
		AgentName:   agentName,
		Status:      StatusActive,
		CreatedAt:   time.Now().UTC(),
	}

	if err := m.repo.PutSession(ctx, s); err != nil {
		return nil, fmt.Errorf("error persisting session %s: %w", s.ID, err)
	}

	m.mu.Lock()
	m.cache[s.ID] = s
	m.mu.Unlock()

	return s, nil
}

// Get returns the session with the given ID, consulting the cache first and
// falling through to the repository.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.cache[id]
	m.mu.RUnlock()
	if ok {
		return s, nil
	}

	s, err := m.repo.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.cache[id] = s
	m.mu.Unlock()

	return s, nil
}

// List returns all known sessions from the repository.
func (m *Manager) List(ctx context.Context) ([]*Session, error) {
	return m.repo.ListSessions(ctx)
}

// Close marks the session closed and persists the transition.
func (m *Manager) Close(ctx context.Context, id string) (*Session, error) {
	s, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Status == StatusClosed {
		return s, nil
	}

	closed := *s
	closed.Status = StatusClosed
	if err := m.repo.PutSession(ctx, &closed); err != nil {
		return nil, fmt.Errorf("error persisting session %s: %w", id, err)
	}

	m.mu.Lock()
	m.cache[id] = &closed
	m.mu.Unlock()

	return &closed, nil
}
