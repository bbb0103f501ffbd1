// Package logger builds the structured loggers handed to the event log and
// its projections.
package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New returns a JSON logger on stdout tagged with the owning component, so
// log lines from the event log, the stores, and the CLI stay attributable.
func New(serviceName string) zerolog.Logger {
	return zerolog.New(os.Stdout).With().
		Str("service", serviceName).
		Timestamp().
		Logger()
}
