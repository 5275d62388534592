package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens or creates the database at dbPath, creating parent
// directories. Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, errors.WrapError(err, errors.CategoryHistory, "could not create history directory").
				WithContext("path", dbPath).
				Build()
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryHistory, "could not open history database").
			WithContext("path", dbPath).
			Build()
	}
	// One connection keeps ":memory:" a single database and serialises writers.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, errors.WrapError(err, errors.CategoryHistory, "failed to initialize history schema").
			WithContext("path", dbPath).
			Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS run_events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		type TEXT NOT NULL,
		at_ms INTEGER NOT NULL,
		payload BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS run_events_run_id ON run_events(run_id);
	CREATE INDEX IF NOT EXISTS run_events_at ON run_events(at_ms);
	`)
	return err
}

const selectEvents = "SELECT seq, run_id, type, at_ms, payload FROM run_events"

// Append adds e to the store. A zero Time is set to now and a nil payload
// is stored as an empty object.
func (s *SQLiteStore) Append(ctx context.Context, e *Event) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	if e.Payload == nil {
		e.Payload = json.RawMessage("{}")
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO run_events (run_id, type, at_ms, payload) VALUES (?, ?, ?, ?)",
		e.RunID, e.Type, e.Time.UnixMilli(), []byte(e.Payload),
	)
	if err != nil {
		return 0, errors.WrapError(err, errors.CategoryHistory, "failed to append event").
			WithContext("run_id", e.RunID).
			WithContext("type", e.Type).
			Build()
	}
	return res.LastInsertId()
}

// GetByRunID retrieves all events for a specific run.
func (s *SQLiteStore) GetByRunID(ctx context.Context, runID string) ([]*Event, error) {
	return s.query(ctx, selectEvents+" WHERE run_id = ? ORDER BY seq", runID)
}

// GetRange retrieves events within a time range.
func (s *SQLiteStore) GetRange(ctx context.Context, start, end time.Time) ([]*Event, error) {
	return s.query(ctx, selectEvents+" WHERE at_ms BETWEEN ? AND ? ORDER BY seq", start.UnixMilli(), end.UnixMilli())
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, queryError(err)
	}
	defer func() { _ = rows.Close() }()

	var events []*Event
	for rows.Next() {
		var (
			e       Event
			atMS    int64
			payload []byte
		)
		if err := rows.Scan(&e.Seq, &e.RunID, &e.Type, &atMS, &payload); err != nil {
			return nil, queryError(err)
		}
		e.Time = time.UnixMilli(atMS)
		e.Payload = payload
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(err)
	}
	return events, nil
}

// RecentRunIDs returns the ids of the latest runs, newest first.
func (s *SQLiteStore) RecentRunIDs(ctx context.Context, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id FROM run_events GROUP BY run_id ORDER BY MIN(seq) DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, queryError(err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, queryError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(err)
	}
	return ids, nil
}

func queryError(err error) error {
	return errors.WrapError(err, errors.CategoryHistory, "failed to query events").Build()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
