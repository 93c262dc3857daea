// Package eventstore keeps an append-only log of build events in
// SQLite, plus the in-memory history projection `mdpage history` and
// the admin endpoints read from.
package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens or creates an event database. Use ":memory:"
// for an in-memory store, or a file path for persistence.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open event database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize event schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		payload BLOB NOT NULL,
		metadata TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_build_id ON events(build_id);
	CREATE INDEX IF NOT EXISTS idx_timestamp ON events(timestamp);
	CREATE INDEX IF NOT EXISTS idx_event_type ON events(event_type);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append adds a new event to the store. Timestamps are stored with
// millisecond resolution so short builds keep distinguishable start
// and end times.
func (s *SQLiteStore) Append(ctx context.Context, buildID, eventType string, payload []byte, metadata map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var metadataJSON []byte
	if metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("marshal event metadata: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (build_id, event_type, timestamp, payload, metadata) VALUES (?, ?, ?, ?, ?)",
		buildID, eventType, time.Now().UnixMilli(), payload, metadataJSON,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetByBuildID retrieves all events for one build.
func (s *SQLiteStore) GetByBuildID(ctx context.Context, buildID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, build_id, event_type, timestamp, payload, metadata FROM events WHERE build_id = ? ORDER BY id",
		buildID,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetRange retrieves events within a time range.
func (s *SQLiteStore) GetRange(ctx context.Context, start, end time.Time) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, build_id, event_type, timestamp, payload, metadata FROM events WHERE timestamp >= ? AND timestamp <= ? ORDER BY id",
		start.UnixMilli(), end.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var e BaseEvent
		var timestampMilli int64
		var metadataJSON []byte

		if err := rows.Scan(&e.EventID, &e.EventBuildID, &e.EventType, &timestampMilli, &e.EventPayload, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.EventTimestamp = time.UnixMilli(timestampMilli)

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &e.EventMetadata); err != nil {
				return nil, fmt.Errorf("unmarshal event metadata: %w", err)
			}
		}
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}
	return events, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
