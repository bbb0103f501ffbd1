// Package factory wires configured backends into concrete instances.
package factory

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Daxiongmao87/alignment-correction-mcp/internal/config"
	"github.com/Daxiongmao87/alignment-correction-mcp/internal/store"
	"github.com/Daxiongmao87/alignment-correction-mcp/internal/store/file"
	"github.com/Daxiongmao87/alignment-correction-mcp/internal/store/postgres"
	"github.com/Daxiongmao87/alignment-correction-mcp/internal/store/sqlite"
)

// NewEventStore builds the EventStore selected by cfg.StoreDriver.
func NewEventStore(cfg *config.Config, log zerolog.Logger) (store.EventStore, error) {
	log.Debug().Str("driver", cfg.StoreDriver).Str("path", cfg.StatePath).Msg("opening event store")

	switch cfg.StoreDriver {
	case "file":
		return file.New(cfg.StatePath)
	case "sqlite":
		return sqlite.New(cfg.StatePath)
	case "postgres":
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return postgres.NewWithDB(db)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.StoreDriver)
	}
}
