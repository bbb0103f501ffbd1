// Package constraints maintains the canonical set of active behavioral
// constraints as a projection of the event log. Mutations always go through
// the log before taking effect; the projection can be rebuilt from the log
// at any time.
package constraints

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Daxiongmao87/alignment-correction-mcp/internal/eventlog"
	"github.com/Daxiongmao87/alignment-correction-mcp/internal/model"
)

const (
	// StrengthThreshold is the floor below which soft constraints are pruned
	// on rebuild.
	StrengthThreshold = 0.15
	// DefaultStrength applies when an add request does not specify one.
	DefaultStrength = 1.0

	sourceTag = "constraint_store"
)

// Store projects the event log into the set of active constraints. Like the
// log it wraps, a Store has a single logical owner and is not safe for
// concurrent use.
type Store struct {
	log    *eventlog.Log
	active map[string]model.Constraint
	now    func() time.Time
}

// New creates a Store over the given log and builds the initial projection.
func New(log *eventlog.Log) *Store {
	s := &Store{log: log, now: time.Now}
	s.Rebuild()
	return s
}

// AddRequest describes a new constraint. Type defaults to soft and Strength
// to 1.0 when unset.
type AddRequest struct {
	Key        string
	Value      string
	Type       model.ConstraintType
	Strength   *float64
	TTLSeconds *int64
}

// UpdateRequest patches any subset of an active constraint's fields;
// nil fields retain their prior values.
type UpdateRequest struct {
	Value      *string
	Strength   *float64
	Type       *model.ConstraintType
	TTLSeconds *int64
}

// Add validates the request, appends CONSTRAINT_ADDED, and installs the
// record. Validation happens strictly before the log write so every logged
// event was legal at commit time.
//
// When log persistence fails the record is still installed (the event exists
// in memory) and the persistence error is returned alongside it.
func (s *Store) Add(ctx context.Context, req AddRequest) (*model.Constraint, error) {
	typ := req.Type
	if typ == "" {
		typ = model.ConstraintSoft
	}
	strength := DefaultStrength
	if req.Strength != nil {
		strength = *req.Strength
	}
	if req.Key == "" {
		return nil, fmt.Errorf("%w: key is required", model.ErrValidation)
	}
	if req.Value == "" {
		return nil, fmt.Errorf("%w: value is required", model.ErrValidation)
	}
	if typ != model.ConstraintHard && typ != model.ConstraintSoft {
		return nil, fmt.Errorf("%w: type must be %q or %q, got %q", model.ErrValidation, model.ConstraintHard, model.ConstraintSoft, typ)
	}
	if strength < 0 || strength > 1 {
		return nil, fmt.Errorf("%w: strength must be in [0,1], got %g", model.ErrValidation, strength)
	}
	if req.TTLSeconds != nil && *req.TTLSeconds < 0 {
		return nil, fmt.Errorf("%w: ttl must be non-negative, got %d", model.ErrValidation, *req.TTLSeconds)
	}

	payload := model.ConstraintPayload{
		Key:        req.Key,
		Value:      &req.Value,
		Strength:   &strength,
		Type:       &typ,
		TTLSeconds: req.TTLSeconds,
	}
	evt, appendErr := s.log.Append(ctx, model.EventConstraintAdded, payload, sourceTag)
	if evt == nil {
		return nil, appendErr
	}

	rec := model.Constraint{
		Key:           req.Key,
		Value:         req.Value,
		Strength:      strength,
		Type:          typ,
		SourceEventID: evt.EventID,
		TTLSeconds:    req.TTLSeconds,
		CreatedAt:     evt.Timestamp,
	}
	s.active[req.Key] = rec
	return &rec, appendErr
}

// Update appends CONSTRAINT_UPDATED for an active key and rebuilds the full
// projection rather than trusting an incremental patch. Updating an absent
// key appends nothing and returns ErrNotFound.
//
// The returned record is the refreshed projection entry; it is nil when the
// rebuild pruned the key (for example after lowering a soft constraint's
// strength below the threshold).
func (s *Store) Update(ctx context.Context, key string, req UpdateRequest) (*model.Constraint, error) {
	if _, ok := s.active[key]; !ok {
		return nil, fmt.Errorf("%w: constraint %q", model.ErrNotFound, key)
	}
	payload := model.ConstraintPayload{
		Key:        key,
		Value:      req.Value,
		Strength:   req.Strength,
		Type:       req.Type,
		TTLSeconds: req.TTLSeconds,
	}
	_, appendErr := s.log.Append(ctx, model.EventConstraintUpdated, payload, sourceTag)
	s.Rebuild()
	rec, ok := s.active[key]
	if !ok {
		return nil, appendErr
	}
	return &rec, appendErr
}

// Obsolete removes an active constraint by appending CONSTRAINT_OBSOLETED.
// Obsoleting an absent key is a no-op, not an error, and appends nothing.
func (s *Store) Obsolete(ctx context.Context, key, reason string) error {
	return s.remove(ctx, model.EventConstraintObsoleted, key, reason)
}

// Contradict removes an active constraint by appending
// CONSTRAINT_CONTRADICTED. The projection treats it exactly like Obsolete;
// the event type records that the constraint was proven false rather than
// explicitly retired.
func (s *Store) Contradict(ctx context.Context, key, reason string) error {
	return s.remove(ctx, model.EventConstraintContradicted, key, reason)
}

func (s *Store) remove(ctx context.Context, eventType model.EventType, key, reason string) error {
	if _, ok := s.active[key]; !ok {
		return nil
	}
	_, appendErr := s.log.Append(ctx, eventType, model.ConstraintRemovalPayload{Key: key, Reason: reason}, sourceTag)
	s.Rebuild()
	return appendErr
}

// Clear obsoletes every currently active key, sequentially.
func (s *Store) Clear(ctx context.Context) error {
	keys := make([]string, 0, len(s.active))
	for k := range s.active {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := s.Obsolete(ctx, k, "cleared"); err != nil {
			return err
		}
	}
	return nil
}

// Rebuild recomputes the entire projection by replaying the event log, then
// applies the pruning policy. Replaying the same log twice yields the same
// projection.
func (s *Store) Rebuild() {
	s.active = eventlog.Reduce(s.log, map[string]model.Constraint{}, applyEvent)
	s.prune(s.now())
}

// applyEvent is the projection reducer. CONSTRAINT_ADDED sets or overwrites
// by key; CONSTRAINT_UPDATED merges into an existing record and is a no-op
// when the key is absent; CONSTRAINT_OBSOLETED and CONSTRAINT_CONTRADICTED
// both delete the key. Events with undecodable payloads are skipped.
func applyEvent(state map[string]model.Constraint, evt model.Event) map[string]model.Constraint {
	switch evt.EventType {
	case model.EventConstraintAdded:
		var p model.ConstraintPayload
		if err := evt.DecodePayload(&p); err != nil || p.Key == "" {
			return state
		}
		rec := model.Constraint{
			Key:           p.Key,
			Strength:      DefaultStrength,
			Type:          model.ConstraintSoft,
			SourceEventID: evt.EventID,
			TTLSeconds:    p.TTLSeconds,
			CreatedAt:     evt.Timestamp,
		}
		if p.Value != nil {
			rec.Value = *p.Value
		}
		if p.Strength != nil {
			rec.Strength = *p.Strength
		}
		if p.Type != nil {
			rec.Type = *p.Type
		}
		state[p.Key] = rec

	case model.EventConstraintUpdated:
		var p model.ConstraintPayload
		if err := evt.DecodePayload(&p); err != nil {
			return state
		}
		rec, ok := state[p.Key]
		if !ok {
			return state
		}
		if p.Value != nil {
			rec.Value = *p.Value
		}
		if p.Strength != nil {
			rec.Strength = *p.Strength
		}
		if p.Type != nil {
			rec.Type = *p.Type
		}
		if p.TTLSeconds != nil {
			rec.TTLSeconds = p.TTLSeconds
		}
		// An update renews the record: the TTL clock restarts from here.
		rec.SourceEventID = evt.EventID
		rec.CreatedAt = evt.Timestamp
		state[p.Key] = rec

	case model.EventConstraintObsoleted, model.EventConstraintContradicted:
		var p model.ConstraintRemovalPayload
		if err := evt.DecodePayload(&p); err != nil {
			return state
		}
		delete(state, p.Key)
	}
	return state
}

// prune applies the ambient removal policy: soft constraints below the
// strength threshold, and any constraint whose TTL has elapsed. Hard
// constraints are otherwise immune and persist until explicitly removed.
func (s *Store) prune(now time.Time) {
	for key, rec := range s.active {
		if rec.Type == model.ConstraintSoft && rec.Strength < StrengthThreshold {
			delete(s.active, key)
			continue
		}
		if rec.TTLSeconds != nil && now.After(rec.CreatedAt.Add(time.Duration(*rec.TTLSeconds)*time.Second)) {
			delete(s.active, key)
		}
	}
}

// GetAll returns the active records. Order carries no meaning; records are
// returned in creation order (key as tiebreak) so output is stable.
func (s *Store) GetAll() []model.Constraint {
	out := make([]model.Constraint, 0, len(s.active))
	for _, rec := range s.active {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// GetByType returns the active records of the given type.
func (s *Store) GetByType(t model.ConstraintType) []model.Constraint {
	var out []model.Constraint
	for _, rec := range s.GetAll() {
		if rec.Type == t {
			out = append(out, rec)
		}
	}
	return out
}

// Has reports whether the key is active in the current projection.
func (s *Store) Has(key string) bool {
	_, ok := s.active[key]
	return ok
}

// Get returns the active record for the key, if any.
func (s *Store) Get(key string) (*model.Constraint, bool) {
	rec, ok := s.active[key]
	if !ok {
		return nil, false
	}
	return &rec, true
}
