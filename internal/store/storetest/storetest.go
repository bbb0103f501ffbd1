// Package storetest provides a compliance suite shared by all EventStore
// backends.
package storetest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Daxiongmao87/alignment-correction-mcp/internal/model"
	"github.com/Daxiongmao87/alignment-correction-mcp/internal/store"
)

// Run exercises a minimal compliance suite against an EventStore
// implementation. makeStore should provide a clean, isolated store.
func Run(t *testing.T, makeStore func(t *testing.T) store.EventStore) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	// Fresh store loads empty without error.
	events, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load on empty store: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("Load on empty store: got %d events", len(events))
	}

	seq := []model.Event{
		makeEvent(t, model.EventConstraintAdded, map[string]interface{}{
			"key": "no_profanity", "value": "Never use profanity", "type": "hard",
		}),
		makeEvent(t, model.EventMoodRecorded, map[string]interface{}{
			"mood": "Calm", "intensity": 2.5, "reason": "steady progress",
		}),
		makeEvent(t, model.EventConstraintObsoleted, map[string]interface{}{
			"key": "no_profanity", "reason": "superseded",
		}),
	}

	if err := s.Save(ctx, seq); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load after save: %v", err)
	}
	requireSameSequence(t, seq, loaded)

	// Saving an extended sequence is idempotent over the persisted prefix.
	extended := append(append([]model.Event{}, seq...), makeEvent(t, model.EventConstraintAdded, map[string]interface{}{
		"key": "tone_pref", "value": "Prefer concise answers", "type": "soft", "strength": 0.2,
	}))
	if err := s.Save(ctx, extended); err != nil {
		t.Fatalf("Save extended: %v", err)
	}
	loaded, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("Load after extended save: %v", err)
	}
	requireSameSequence(t, extended, loaded)
}

func makeEvent(t *testing.T, typ model.EventType, payload map[string]interface{}) model.Event {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("uuid: %v", err)
	}
	return model.Event{
		EventID:   id.String(),
		Timestamp: time.Now().UTC().Truncate(time.Millisecond),
		EventType: typ,
		Payload:   raw,
		Source:    "storetest",
	}
}

func requireSameSequence(t *testing.T, want, got []model.Event) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("sequence length: want %d, got %d", len(want), len(got))
	}
	for i := range want {
		w, g := want[i], got[i]
		if g.EventID != w.EventID || g.EventType != w.EventType || g.Source != w.Source {
			t.Fatalf("event %d mismatch: want %+v, got %+v", i, w, g)
		}
		if !g.Timestamp.Equal(w.Timestamp) {
			t.Fatalf("event %d timestamp: want %s, got %s", i, w.Timestamp, g.Timestamp)
		}
		var wp, gp map[string]interface{}
		if err := json.Unmarshal(w.Payload, &wp); err != nil {
			t.Fatalf("event %d decode want payload: %v", i, err)
		}
		if err := json.Unmarshal(g.Payload, &gp); err != nil {
			t.Fatalf("event %d decode got payload: %v", i, err)
		}
		if len(wp) != len(gp) {
			t.Fatalf("event %d payload mismatch: want %v, got %v", i, wp, gp)
		}
		for k, v := range wp {
			if gv, ok := gp[k]; !ok || gv != v {
				t.Fatalf("event %d payload key %q: want %v, got %v", i, k, v, gp[k])
			}
		}
	}
}
