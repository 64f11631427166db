package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/simdeck/simdeck/sim"
)

// PostgresConfig configures the SQL repository.
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Postgres stores sessions and events in two tables. The frequently queried
// fields (id, status, created_at, seq) are promoted to columns; the rest of
// each record travels as a JSON blob, so schema changes in the Go types do
// not need migrations.
type Postgres struct {
	db *sql.DB
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	data       JSONB NOT NULL
);
CREATE TABLE IF NOT EXISTS events (
	session_id TEXT NOT NULL,
	seq        BIGINT NOT NULL,
	event_type TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	data       JSONB NOT NULL,
	PRIMARY KEY (session_id, seq)
);
`

// OpenPostgres connects, configures the pool, and bootstraps the schema.
func OpenPostgres(cfg PostgresConfig) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, errors.New("store: postgres dsn is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("error opening postgres connection: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error pinging postgres: %w", err)
	}
	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("error bootstrapping postgres schema: %w", err)
	}
	return &Postgres{db: db}, nil
}

// PutSession upserts the session row.
func (p *Postgres) PutSession(ctx context.Context, s *sim.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("error encoding session %s: %w", s.ID, err)
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO sessions (id, status, created_at, data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET status = $2, data = $4`,
		s.ID, string(s.Status), s.CreatedAt, data)
	if err != nil {
		return fmt.Errorf("error writing session %s: %w", s.ID, err)
	}
	return nil
}

// GetSession loads one session, returning sim.ErrSessionNotFound when the ID
// is unknown.
func (p *Postgres) GetSession(ctx context.Context, id string) (*sim.Session, error) {
	var data []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT data FROM sessions WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sim.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error reading session %s: %w", id, err)
	}

	var s sim.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("error decoding session %s: %w", id, err)
	}
	return &s, nil
}

// ListSessions returns every stored session, newest first.
func (p *Postgres) ListSessions(ctx context.Context) ([]*sim.Session, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT data FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("error listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*sim.Session
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("error scanning session row: %w", err)
		}
		var s sim.Session
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("error decoding session row: %w", err)
		}
		sessions = append(sessions, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}
	return sessions, nil
}

// AppendEvent stores one event row.
func (p *Postgres) AppendEvent(ctx context.Context, e *sim.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("error encoding event %s: %w", e.ID, err)
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO events (session_id, seq, event_type, created_at, data)
		VALUES ($1, $2, $3, $4, $5)`,
		e.SessionID, e.Seq, string(e.Type), e.Time, data)
	if err != nil {
		return fmt.Errorf("error writing event %s/%d: %w", e.SessionID, e.Seq, err)
	}
	return nil
}

// Events returns the session's history in sequence order.
func (p *Postgres) Events(ctx context.Context, sessionID string) ([]*sim.Event, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT data FROM events WHERE session_id = $1 ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("error reading events for session %s: %w", sessionID, err)
	}
	defer rows.Close()

	var events []*sim.Event
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("error scanning event row: %w", err)
		}
		var e sim.Event
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("error decoding event row: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return events, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}
