// Package store defines the durable persistence boundary for the event log.
package store

import (
	"context"

	"github.com/Daxiongmao87/alignment-correction-mcp/internal/model"
)

// EventStore persists the full ordered event sequence.
// Implementations live under internal/store/<driver>/ (file, sqlite, postgres).
//
// Load returns a nil slice and nil error when no state has been persisted
// yet. A corrupt backing store returns an error; callers decide whether to
// degrade to an empty log.
//
// Events are immutable and the sequence is append-only, so Save may skip
// rewriting rows it has already persisted.
type EventStore interface {
	Load(ctx context.Context) ([]model.Event, error)
	Save(ctx context.Context, events []model.Event) error
	Close() error
}
