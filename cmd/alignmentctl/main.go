package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Daxiongmao87/alignment-correction-mcp/internal/config"
	"github.com/Daxiongmao87/alignment-correction-mcp/internal/constraints"
	"github.com/Daxiongmao87/alignment-correction-mcp/internal/eventlog"
	"github.com/Daxiongmao87/alignment-correction-mcp/internal/factory"
	"github.com/Daxiongmao87/alignment-correction-mcp/internal/logger"
	"github.com/Daxiongmao87/alignment-correction-mcp/internal/mood"
	"github.com/Daxiongmao87/alignment-correction-mcp/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "alignmentctl",
	Short: "Inspect and mutate the alignment behavioral-state store",
}

func main() {
	rootCmd.AddCommand(newConstraintCmd(), newMoodCmd(), newEventsCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// core bundles the hydrated event log with the projections built over it.
type core struct {
	log         *eventlog.Log
	store       store.EventStore
	constraints *constraints.Store
	mood        *mood.Tracker
}

func openCore() (*core, error) {
	zl := logger.New("alignmentctl")
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	st, err := factory.NewEventStore(cfg, zl)
	if err != nil {
		return nil, err
	}
	elog := eventlog.New(st, zl)
	// Corrupt state degrades to an empty log; the event log itself logs the
	// warning, so the CLI keeps going.
	_ = elog.Load(context.Background())
	return &core{
		log:         elog,
		store:       st,
		constraints: constraints.New(elog),
		mood:        mood.New(elog),
	}, nil
}

func (c *core) close() { _ = c.store.Close() }
