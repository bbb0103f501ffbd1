package constraints

import (
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Daxiongmao87/alignment-correction-mcp/internal/eventlog"
	"github.com/Daxiongmao87/alignment-correction-mcp/internal/model"
	"github.com/Daxiongmao87/alignment-correction-mcp/internal/store/file"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(t *testing.T) (*Store, *eventlog.Log, *fakeClock) {
	t.Helper()
	st, err := file.New(filepath.Join(t.TempDir(), "events.json"))
	require.NoError(t, err)
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	log := eventlog.New(st, zerolog.Nop(), eventlog.WithClock(clock.Now))
	require.NoError(t, log.Load(context.Background()))
	s := New(log)
	s.now = clock.Now
	return s, log, clock
}

func fptr(v float64) *float64 { return &v }
func iptr(v int64) *int64     { return &v }

func TestAddValidation(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  AddRequest
	}{
		{"empty key", AddRequest{Value: "v"}},
		{"empty value", AddRequest{Key: "k"}},
		{"bad type", AddRequest{Key: "k", Value: "v", Type: "firm"}},
		{"strength below range", AddRequest{Key: "k", Value: "v", Strength: fptr(-0.1)}},
		{"strength above range", AddRequest{Key: "k", Value: "v", Strength: fptr(1.1)}},
		{"negative ttl", AddRequest{Key: "k", Value: "v", TTLSeconds: iptr(-1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Add(ctx, tc.req)
			require.ErrorIs(t, err, model.ErrValidation)
		})
	}

	// Validation happens strictly before the log write: nothing was appended.
	require.Equal(t, 0, s.log.Len())
}

func TestAddDefaults(t *testing.T) {
	s, _, _ := newTestStore(t)

	rec, err := s.Add(context.Background(), AddRequest{Key: "tone", Value: "Stay neutral"})
	require.NoError(t, err)
	require.Equal(t, model.ConstraintSoft, rec.Type)
	require.Equal(t, 1.0, rec.Strength)
	require.Nil(t, rec.TTLSeconds)
	require.NotEmpty(t, rec.SourceEventID)
	require.True(t, s.Has("tone"))
}

func TestIncrementalMatchesRebuild(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, AddRequest{Key: "a", Value: "rule a", Type: model.ConstraintHard})
	require.NoError(t, err)
	_, err = s.Add(ctx, AddRequest{Key: "b", Value: "rule b", Strength: fptr(0.8)})
	require.NoError(t, err)
	_, err = s.Update(ctx, "b", UpdateRequest{Strength: fptr(0.5)})
	require.NoError(t, err)
	_, err = s.Add(ctx, AddRequest{Key: "c", Value: "rule c"})
	require.NoError(t, err)
	require.NoError(t, s.Obsolete(ctx, "a", "retired"))

	incremental := s.GetAll()
	s.Rebuild()
	rebuilt := s.GetAll()
	require.True(t, reflect.DeepEqual(incremental, rebuilt), "incremental %v != rebuilt %v", incremental, rebuilt)
}

func TestSoftConstraintPrunedBelowThreshold(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, AddRequest{Key: "weak", Value: "barely holds", Strength: fptr(0.1)})
	require.NoError(t, err)
	_, err = s.Add(ctx, AddRequest{Key: "firm", Value: "barely holds", Type: model.ConstraintHard, Strength: fptr(0.1)})
	require.NoError(t, err)

	s.Rebuild()
	require.False(t, s.Has("weak"), "soft constraint below threshold must be pruned")
	require.True(t, s.Has("firm"), "hard constraints are immune to strength pruning")
}

func TestTTLExpiry(t *testing.T) {
	s, _, clock := newTestStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, AddRequest{Key: "ephemeral", Value: "short lived", TTLSeconds: iptr(1)})
	require.NoError(t, err)
	require.True(t, s.Has("ephemeral"), "present immediately after creation")

	s.Rebuild()
	require.True(t, s.Has("ephemeral"), "still within ttl")

	clock.Advance(1100 * time.Millisecond)
	s.Rebuild()
	require.False(t, s.Has("ephemeral"), "absent once now exceeds created_at + ttl")
}

func TestUpdateRenewsTTLClock(t *testing.T) {
	s, _, clock := newTestStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, AddRequest{Key: "lease", Value: "renewable", TTLSeconds: iptr(2)})
	require.NoError(t, err)

	clock.Advance(1500 * time.Millisecond)
	_, err = s.Update(ctx, "lease", UpdateRequest{Value: sptr("renewed")})
	require.NoError(t, err)

	clock.Advance(1500 * time.Millisecond)
	s.Rebuild()
	require.True(t, s.Has("lease"), "update renews created_at, restarting the ttl clock")
}

func TestUpdateMergesFields(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	orig, err := s.Add(ctx, AddRequest{Key: "tone", Value: "Stay neutral", Strength: fptr(0.9)})
	require.NoError(t, err)

	rec, err := s.Update(ctx, "tone", UpdateRequest{Strength: fptr(0.4)})
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, "Stay neutral", rec.Value, "unspecified fields retain prior values")
	require.Equal(t, 0.4, rec.Strength)
	require.NotEqual(t, orig.SourceEventID, rec.SourceEventID, "source event id is refreshed")
}

func TestUpdateAbsentKey(t *testing.T) {
	s, log, _ := newTestStore(t)

	_, err := s.Update(context.Background(), "ghost", UpdateRequest{Strength: fptr(0.5)})
	require.ErrorIs(t, err, model.ErrNotFound)
	require.Equal(t, 0, log.Len(), "updating an absent key appends nothing")
}

func TestObsoleteAbsentKeyIsNoop(t *testing.T) {
	s, log, _ := newTestStore(t)

	require.NoError(t, s.Obsolete(context.Background(), "ghost", "never existed"))
	require.Equal(t, 0, log.Len(), "obsoleting an absent key appends nothing")
}

func TestContradictDeletes(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, AddRequest{Key: "wrong", Value: "Assume single user", Type: model.ConstraintHard})
	require.NoError(t, err)
	require.NoError(t, s.Contradict(ctx, "wrong", "observed multiple users"))
	require.False(t, s.Has("wrong"))

	events := s.log.Events(model.EventConstraintContradicted)
	require.Len(t, events, 1)
}

func TestClear(t *testing.T) {
	s, log, _ := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		_, err := s.Add(ctx, AddRequest{Key: key, Value: "rule " + key})
		require.NoError(t, err)
	}
	require.NoError(t, s.Clear(ctx))
	require.Empty(t, s.GetAll())
	require.Len(t, log.Events(model.EventConstraintObsoleted), 3)
}

func TestGetByTypeAndLookups(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, AddRequest{Key: "h", Value: "hard rule", Type: model.ConstraintHard})
	require.NoError(t, err)
	_, err = s.Add(ctx, AddRequest{Key: "s", Value: "soft rule", Strength: fptr(0.7)})
	require.NoError(t, err)

	hard := s.GetByType(model.ConstraintHard)
	require.Len(t, hard, 1)
	require.Equal(t, "h", hard[0].Key)

	rec, ok := s.Get("s")
	require.True(t, ok)
	require.Equal(t, 0.7, rec.Strength)

	_, ok = s.Get("missing")
	require.False(t, ok)
}

func TestCanonicalStateString(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	require.Equal(t, "", s.CanonicalStateString(), "empty projection renders empty string")

	_, err := s.Add(ctx, AddRequest{Key: "no_profanity", Value: "Never use profanity", Type: model.ConstraintHard})
	require.NoError(t, err)
	_, err = s.Add(ctx, AddRequest{Key: "tone_pref", Value: "Prefer concise answers", Type: model.ConstraintSoft, Strength: fptr(0.2)})
	require.NoError(t, err)

	out := s.CanonicalStateString()
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "[HARD] Never use profanity", lines[0])
	require.Equal(t, "[SOFT] Prefer concise answers (strength: 0.2)", lines[1])
}

func TestCanonicalStateStringFullStrengthSoft(t *testing.T) {
	s, _, _ := newTestStore(t)

	_, err := s.Add(context.Background(), AddRequest{Key: "tone", Value: "Stay neutral"})
	require.NoError(t, err)
	require.Equal(t, "[SOFT] Stay neutral", s.CanonicalStateString())
}

func TestRebuildFromReloadedLog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.json")
	st, err := file.New(path)
	require.NoError(t, err)
	log := eventlog.New(st, zerolog.Nop())
	require.NoError(t, log.Load(context.Background()))
	s := New(log)

	ctx := context.Background()
	_, err = s.Add(ctx, AddRequest{Key: "persisted", Value: "Survives restart", Type: model.ConstraintHard})
	require.NoError(t, err)
	_, err = s.Add(ctx, AddRequest{Key: "removed", Value: "Does not survive"})
	require.NoError(t, err)
	require.NoError(t, s.Obsolete(ctx, "removed", "gone"))

	// Fresh log and store over the same backing file.
	st2, err := file.New(path)
	require.NoError(t, err)
	log2 := eventlog.New(st2, zerolog.Nop())
	require.NoError(t, log2.Load(ctx))
	s2 := New(log2)

	require.True(t, s2.Has("persisted"))
	require.False(t, s2.Has("removed"))
	require.Len(t, s2.GetAll(), 1)
	require.Equal(t, s.CanonicalStateString(), s2.CanonicalStateString())
}

func sptr(v string) *string { return &v }
