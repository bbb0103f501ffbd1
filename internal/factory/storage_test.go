package factory

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Daxiongmao87/alignment-correction-mcp/internal/config"
)

func TestNewEventStore_File(t *testing.T) {
	cfg := config.NewForTesting(filepath.Join(t.TempDir(), "events.json"))
	st, err := NewEventStore(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	_ = st.Close()
}

func TestNewEventStore_SQLite(t *testing.T) {
	cfg := config.NewForTesting(filepath.Join(t.TempDir(), "events.db"))
	cfg.StoreDriver = "sqlite"
	st, err := NewEventStore(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("sqlite store: %v", err)
	}
	_ = st.Close()
}

func TestNewEventStore_UnsupportedDriver(t *testing.T) {
	cfg := config.NewForTesting("")
	cfg.StoreDriver = "dynamo"
	if _, err := NewEventStore(cfg, zerolog.Nop()); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
