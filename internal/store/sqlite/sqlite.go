// Package sqlite persists the event sequence in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Daxiongmao87/alignment-correction-mcp/internal/model"
)

// Store keeps one row per event. Events are immutable, so Save inserts with
// INSERT OR IGNORE keyed by event id; the position column preserves append
// order across restarts.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database file and ensures the schema.
func New(path string) (*Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db)
}

// Open opens the SQLite database at path, creating it and its parent
// directory on first run. Journal mode is WAL so the event log stays
// readable while an append is in flight.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// sql.Open is lazy; ping so a bad path fails here rather than on first use.
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB allows wiring with an existing connection (used by tests and the factory).
func NewWithDB(db *sql.DB) (*Store, error) {
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS Events (
        Position INTEGER NOT NULL,
        EventId TEXT PRIMARY KEY,
        Timestamp TEXT NOT NULL,
        EventType TEXT NOT NULL,
        Payload TEXT NOT NULL,
        Source TEXT NOT NULL
    );`)
	if err != nil {
		return fmt.Errorf("ensure events schema: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT EventId, Timestamp, EventType, Payload, Source FROM Events ORDER BY Position`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var evt model.Event
		var ts, payload string
		if err := rows.Scan(&evt.EventID, &ts, &evt.EventType, &payload, &evt.Source); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		evt.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("decode event timestamp %q: %w", ts, err)
		}
		evt.Payload = []byte(payload)
		out = append(out, evt)
	}
	return out, rows.Err()
}

func (s *Store) Save(ctx context.Context, events []model.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for i, evt := range events {
		_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO Events (Position, EventId, Timestamp, EventType, Payload, Source) VALUES (?,?,?,?,?,?)`,
			i, evt.EventID, evt.Timestamp.UTC().Format(time.RFC3339Nano), string(evt.EventType), string(evt.Payload), evt.Source)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert event %s: %w", evt.EventID, err)
		}
	}
	return tx.Commit()
}

func (s *Store) Close() error { return s.db.Close() }
