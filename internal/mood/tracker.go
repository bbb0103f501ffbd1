// Package mood records mood observations as events and derives a temporally
// decayed distress signal from recent history. No mutable aggregate is ever
// stored; every statistic is re-derived from the bounded recent slice of the
// event log.
package mood

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Daxiongmao87/alignment-correction-mcp/internal/eventlog"
	"github.com/Daxiongmao87/alignment-correction-mcp/internal/model"
)

const (
	// HalfLife controls the exponential decay of an observation's influence:
	// an observation one half-life old contributes half the weight of a
	// fresh one.
	HalfLife = 5 * time.Minute

	// DistressThreshold is the intensity at or above which an observation
	// counts toward the current distress episode.
	DistressThreshold = 6.0

	// distressWindow bounds how many recent observations feed the distress
	// computation.
	distressWindow = 20

	defaultTimelineLimit = 10

	sourceTag     = "mood_tracker"
	defaultReason = "no reason given"
)

// Tracker is a read/append facade over the event log specialized for
// MOOD_RECORDED events.
type Tracker struct {
	log *eventlog.Log
	now func() time.Time
}

// New creates a Tracker over the given log.
func New(log *eventlog.Log) *Tracker {
	return &Tracker{log: log, now: time.Now}
}

// RecordMood validates the observation and appends a MOOD_RECORDED event.
// An empty reason is replaced with a placeholder.
func (t *Tracker) RecordMood(ctx context.Context, mood string, intensity float64, reason string) (*model.Event, error) {
	if mood == "" {
		return nil, fmt.Errorf("%w: mood is required", model.ErrValidation)
	}
	if intensity < 0 || intensity > 10 {
		return nil, fmt.Errorf("%w: intensity must be in [0,10], got %g", model.ErrValidation, intensity)
	}
	if reason == "" {
		reason = defaultReason
	}
	return t.log.Append(ctx, model.EventMoodRecorded, model.MoodPayload{
		Mood:      mood,
		Intensity: intensity,
		Reason:    reason,
	}, sourceTag)
}

// observations returns the decoded mood history, newest first. Ties on
// timestamp keep append order among equals (stable sort).
func (t *Tracker) observations() []model.MoodObservation {
	events := t.log.Events(model.EventMoodRecorded)
	out := make([]model.MoodObservation, 0, len(events))
	for _, evt := range events {
		var p model.MoodPayload
		if err := evt.DecodePayload(&p); err != nil {
			continue
		}
		out = append(out, model.MoodObservation{
			EventID:   evt.EventID,
			Timestamp: evt.Timestamp,
			Mood:      p.Mood,
			Intensity: p.Intensity,
			Reason:    p.Reason,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

// Timeline returns the most recent limit observations, newest first. A
// non-positive limit defaults to 10.
func (t *Tracker) Timeline(limit int) []model.MoodObservation {
	if limit <= 0 {
		limit = defaultTimelineLimit
	}
	obs := t.observations()
	if len(obs) > limit {
		obs = obs[:limit]
	}
	return obs
}

// Weight returns the temporal weight of an observation of the given age:
// 2^(-age/HalfLife). Continuous, monotonically decreasing, never negative,
// and at most 1 for non-negative ages.
func Weight(age time.Duration) float64 {
	if age < 0 {
		age = 0
	}
	return math.Exp2(-float64(age) / float64(HalfLife))
}

// DistressLevel computes the weighted average intensity over the most recent
// 20 observations: recent high-intensity observations dominate. Among
// observations with intensity at or above the distress threshold it reports
// the reason of the single most intense one as the primary cause, and how
// long the current episode has persisted (measured from the earliest
// above-threshold observation in the window). With no history the report is
// all zeroes.
func (t *Tracker) DistressLevel() model.DistressReport {
	now := t.now()
	obs := t.observations()
	if len(obs) > distressWindow {
		obs = obs[:distressWindow]
	}
	if len(obs) == 0 {
		return model.DistressReport{}
	}

	var weightedSum, totalWeight float64
	var cause *model.MoodObservation
	var episodeStart time.Time
	for i := range obs {
		o := &obs[i]
		w := Weight(now.Sub(o.Timestamp))
		weightedSum += o.Intensity * w
		totalWeight += w
		if o.Intensity >= DistressThreshold {
			if cause == nil || o.Intensity > cause.Intensity {
				cause = o
			}
			if episodeStart.IsZero() || o.Timestamp.Before(episodeStart) {
				episodeStart = o.Timestamp
			}
		}
	}

	var level float64
	if totalWeight > 0 {
		level = weightedSum / totalWeight
	}
	level = math.Min(10, math.Max(0, level))
	level = math.Round(level*10) / 10

	report := model.DistressReport{Level: level}
	if cause != nil {
		report.PrimaryCause = cause.Reason
		report.Duration = now.Sub(episodeStart)
	}
	return report
}

// AdmonishmentMultiplier scales downstream response severity linearly with
// distress: 1.0 at level 0 up to 3.0 at level 10.
func (t *Tracker) AdmonishmentMultiplier() float64 {
	return multiplier(t.DistressLevel().Level)
}

func multiplier(level float64) float64 {
	return 1.0 + (level/10.0)*2.0
}
