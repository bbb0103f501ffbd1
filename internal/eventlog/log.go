// Package eventlog implements the append-only event log that is the sole
// source of truth for projected behavioral state.
//
// A Log has a single logical owner and performs no internal locking; callers
// that share an instance must serialize mutations themselves.
package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Daxiongmao87/alignment-correction-mcp/internal/model"
	"github.com/Daxiongmao87/alignment-correction-mcp/internal/store"
)

// Log is an ordered, append-only sequence of immutable events backed by an
// EventStore. Reads are served from the in-memory snapshot and never touch
// durable storage; only Append and Load do.
type Log struct {
	store  store.EventStore
	logger zerolog.Logger
	now    func() time.Time
	events []model.Event
}

// Option configures a Log.
type Option func(*Log)

// WithClock overrides the timestamp source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// New creates a Log over the given store. Call Load to hydrate it from
// persisted state.
func New(st store.EventStore, logger zerolog.Logger, opts ...Option) *Log {
	l := &Log{store: st, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load replaces the in-memory sequence with persisted state. Absent state
// yields an empty log and a nil error. Unreadable or corrupt state also
// yields an empty, usable log; the error is returned so the host decides
// whether to log, alert, or ignore it.
func (l *Log) Load(ctx context.Context) error {
	events, err := l.store.Load(ctx)
	if err != nil {
		l.events = nil
		l.logger.Warn().Err(err).Msg("event log unreadable, starting empty")
		return fmt.Errorf("load event log: %w", err)
	}
	l.events = events
	return nil
}

// Append constructs an event with a fresh id and the current timestamp,
// appends it to the in-memory sequence, and persists the full sequence.
//
// When persistence fails the in-memory append is NOT rolled back: the event
// remains visible to in-process reads until restart and the error is
// returned. This at-least-once-in-memory, best-effort-durable behavior is
// deliberate; callers decide how to surface the failure.
func (l *Log) Append(ctx context.Context, eventType model.EventType, payload interface{}, source string) (*model.Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate event id: %w", err)
	}
	evt := model.Event{
		EventID:   id.String(),
		Timestamp: l.now().UTC().Truncate(time.Millisecond),
		EventType: eventType,
		Payload:   raw,
		Source:    source,
	}
	l.events = append(l.events, evt)

	if err := l.store.Save(ctx, l.events); err != nil {
		l.logger.Error().Err(err).Str("event_id", evt.EventID).Msg("event log persistence failed")
		return &evt, fmt.Errorf("persist event log: %w", err)
	}
	return &evt, nil
}

// Events returns a snapshot copy of the log in append order, optionally
// filtered to the given event types. Mutating the returned slice, including
// an event's payload bytes, does not affect log history.
func (l *Log) Events(types ...model.EventType) []model.Event {
	if len(types) == 0 {
		return cloneEvents(l.events)
	}
	want := make(map[model.EventType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	var out []model.Event
	for _, evt := range l.events {
		if want[evt.EventType] {
			out = append(out, cloneEvent(evt))
		}
	}
	return out
}

// EventsSince returns all events strictly after the event with the given id,
// in order. An unknown id returns the full sequence: the caller has no
// earlier anchor, so nothing is excluded.
func (l *Log) EventsSince(eventID string) []model.Event {
	for i, evt := range l.events {
		if evt.EventID == eventID {
			return cloneEvents(l.events[i+1:])
		}
	}
	return l.Events()
}

// cloneEvent copies an event including its payload bytes. Payload is a
// json.RawMessage, so a plain struct copy would still alias the backing
// array with the live log.
func cloneEvent(evt model.Event) model.Event {
	out := evt
	if evt.Payload != nil {
		out.Payload = append(json.RawMessage(nil), evt.Payload...)
	}
	return out
}

func cloneEvents(events []model.Event) []model.Event {
	out := make([]model.Event, len(events))
	for i, evt := range events {
		out[i] = cloneEvent(evt)
	}
	return out
}

// Len returns the number of events currently in the log.
func (l *Log) Len() int { return len(l.events) }

// Reduce folds the ordered event sequence through fn, left to right,
// starting from initial. This is the only sanctioned way to derive
// projections from the log.
func Reduce[S any](l *Log, initial S, fn func(S, model.Event) S) S {
	state := initial
	for _, evt := range l.events {
		state = fn(state, evt)
	}
	return state
}
