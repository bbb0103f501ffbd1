package postgres

import (
	"os"
	"testing"

	"github.com/Daxiongmao87/alignment-correction-mcp/internal/store"
	"github.com/Daxiongmao87/alignment-correction-mcp/internal/store/storetest"
)

func makePGStore(t *testing.T) store.EventStore {
	t.Helper()
	dsn := os.Getenv("ALIGNMENT_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ALIGNMENT_POSTGRES_DSN not set; skipping postgres store integration test")
	}
	db, err := Open(dsn)
	if err != nil {
		t.Fatalf("postgres open: %v", err)
	}
	s, err := NewWithDB(db)
	if err != nil {
		t.Fatalf("postgres store: %v", err)
	}
	// The suite expects a clean store; the DSN points at a dedicated test database.
	if _, err := db.Exec(`TRUNCATE events`); err != nil {
		t.Fatalf("truncate events: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPostgresStore_Compliance(t *testing.T) {
	storetest.Run(t, makePGStore)
}
