// Package store provides the persistence backends for simdeck sessions and
// their event histories. The default backend is an embedded Badger database;
// a Postgres backend is available for shared deployments. Both implement
// sim.Repository.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/simdeck/simdeck/sim"
)

// BadgerConfig configures the embedded repository.
type BadgerConfig struct {
	// Path is the database directory, created if missing. Ignored when
	// InMemory is set.
	Path string

	// InMemory keeps everything in RAM. Used by tests.
	InMemory bool

	// SyncWrites forces every write to disk before returning.
	SyncWrites bool

	// Logger receives Badger's internal log output. Nil disables it.
	Logger *slog.Logger
}

// Badger is the embedded repository. Sessions live under session/<id>,
// events under event/<session>/<seq>, with the sequence zero-padded so
// lexicographic key order is replay order.
type Badger struct {
	db *badger.DB
}

// badgerLogger bridges Badger's printf-style logger onto slog.
type badgerLogger struct {
	l *slog.Logger
}

func (b *badgerLogger) Errorf(format string, args ...any)   { b.l.Error(fmt.Sprintf(format, args...)) }
func (b *badgerLogger) Warningf(format string, args ...any) { b.l.Warn(fmt.Sprintf(format, args...)) }
func (b *badgerLogger) Infof(format string, args ...any)    { b.l.Debug(fmt.Sprintf(format, args...)) }
func (b *badgerLogger) Debugf(format string, args ...any)   { b.l.Debug(fmt.Sprintf(format, args...)) }

// OpenBadger opens the embedded database described by cfg.
func OpenBadger(cfg BadgerConfig) (*Badger, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("store: badger path is required")
		}
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("error creating store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{l: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("error opening badger store: %w", err)
	}
	return &Badger{db: db}, nil
}

func sessionKey(id string) []byte {
	return []byte("session/" + id)
}

func eventKey(sessionID string, seq uint64) []byte {
	return []byte(fmt.Sprintf("event/%s/%020d", sessionID, seq))
}

func eventPrefix(sessionID string) []byte {
	return []byte("event/" + sessionID + "/")
}

// PutSession stores or replaces the session record.
func (b *Badger) PutSession(ctx context.Context, s *sim.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("error encoding session %s: %w", s.ID, err)
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sessionKey(s.ID), data)
	})
	if err != nil {
		return fmt.Errorf("error writing session %s: %w", s.ID, err)
	}
	return nil
}

// GetSession loads one session, returning sim.ErrSessionNotFound when the ID
// is unknown.
func (b *Badger) GetSession(ctx context.Context, id string) (*sim.Session, error) {
	var s sim.Session
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &s)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, sim.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error reading session %s: %w", id, err)
	}
	return &s, nil
}

// ListSessions returns every stored session, newest first.
func (b *Badger) ListSessions(ctx context.Context) ([]*sim.Session, error) {
	var sessions []*sim.Session
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("session/")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var s sim.Session
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &s)
			})
			if err != nil {
				return err
			}
			sessions = append(sessions, &s)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error listing sessions: %w", err)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

// AppendEvent stores one event under its session's history.
func (b *Badger) AppendEvent(ctx context.Context, e *sim.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("error encoding event %s: %w", e.ID, err)
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(eventKey(e.SessionID, e.Seq), data)
	})
	if err != nil {
		return fmt.Errorf("error writing event %s/%d: %w", e.SessionID, e.Seq, err)
	}
	return nil
}

// Events returns the session's history in sequence order. Key order is
// sequence order, so no sort is needed.
func (b *Badger) Events(ctx context.Context, sessionID string) ([]*sim.Event, error) {
	var events []*sim.Event
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = eventPrefix(sessionID)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var e sim.Event
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			})
			if err != nil {
				return err
			}
			events = append(events, &e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error reading events for session %s: %w", sessionID, err)
	}
	return events, nil
}

// Close releases the database.
func (b *Badger) Close() error {
	return b.db.Close()
}
