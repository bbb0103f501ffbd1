// Package postgres persists the event sequence in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Daxiongmao87/alignment-correction-mcp/internal/model"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Store appends immutable event rows; ON CONFLICT DO NOTHING keeps Save
// idempotent over the already-persisted prefix.
type Store struct {
	db *sql.DB
}

// NewWithDB constructs a Postgres store backed directly by database/sql and
// ensures the schema.
func NewWithDB(db *sql.DB) (*Store, error) {
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS events (
        position BIGINT NOT NULL,
        event_id TEXT PRIMARY KEY,
        ts TIMESTAMPTZ NOT NULL,
        event_type TEXT NOT NULL,
        payload JSONB NOT NULL,
        source TEXT NOT NULL
    )`)
	if err != nil {
		return fmt.Errorf("ensure events schema: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT event_id, ts, event_type, payload, source FROM events ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var evt model.Event
		var ts time.Time
		var payload []byte
		if err := rows.Scan(&evt.EventID, &ts, &evt.EventType, &payload, &evt.Source); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		evt.Timestamp = ts.UTC()
		evt.Payload = payload
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
		_, err := tx.ExecContext(ctx, `INSERT INTO events (position, event_id, ts, event_type, payload, source)
            VALUES ($1,$2,$3,$4,$5,$6) ON CONFLICT (event_id) DO NOTHING`,
			i, evt.EventID, evt.Timestamp.UTC(), string(evt.EventType), string(evt.Payload), evt.Source)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert event %s: %w", evt.EventID, err)
		}
	}
	return tx.Commit()
}

func (s *Store) Close() error { return s.db.Close() }
