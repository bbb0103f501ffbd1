package model

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of domain event recorded in the log.
type EventType string

const (
	EventConstraintAdded        EventType = "CONSTRAINT_ADDED"
	EventConstraintUpdated      EventType = "CONSTRAINT_UPDATED"
	EventConstraintObsoleted    EventType = "CONSTRAINT_OBSOLETED"
	EventConstraintContradicted EventType = "CONSTRAINT_CONTRADICTED"
	EventMoodRecorded           EventType = "MOOD_RECORDED"
)

// ConstraintType classifies how strictly a constraint binds.
type ConstraintType string

const (
	ConstraintHard ConstraintType = "hard"
	ConstraintSoft ConstraintType = "soft"
)

// Event is an immutable record in the append-only log. Once appended it is
// never modified or removed; every other piece of state is a pure function of
// the ordered event sequence.
type Event struct {
	EventID   string          `json:"eventId"`
	Timestamp time.Time       `json:"timestamp"`
	EventType EventType       `json:"eventType"`
	Payload   json.RawMessage `json:"payload"`
	Source    string          `json:"source"`
}

// DecodePayload unmarshals the event payload into v.
func (e *Event) DecodePayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// ConstraintPayload is the payload of CONSTRAINT_ADDED and
// CONSTRAINT_UPDATED events. Pointer fields distinguish "not supplied" from
// zero values so that updates can patch any subset of the record.
type ConstraintPayload struct {
	Key        string          `json:"key"`
	Value      *string         `json:"value,omitempty"`
	Strength   *float64        `json:"strength,omitempty"`
	Type       *ConstraintType `json:"type,omitempty"`
	TTLSeconds *int64          `json:"ttl,omitempty"`
}

// ConstraintRemovalPayload is the payload of CONSTRAINT_OBSOLETED and
// CONSTRAINT_CONTRADICTED events. Both delete the key from the projection;
// the reason records why.
type ConstraintRemovalPayload struct {
	Key    string `json:"key"`
	Reason string `json:"reason,omitempty"`
}

// MoodPayload is the payload of MOOD_RECORDED events.
type MoodPayload struct {
	Mood      string  `json:"mood"`
	Intensity float64 `json:"intensity"`
	Reason    string  `json:"reason"`
}

// Constraint is a projected record. It is never stored directly; it only
// exists as the result of replaying the event log.
type Constraint struct {
	Key           string         `json:"key"`
	Value         string         `json:"value"`
	Strength      float64        `json:"strength"`
	Type          ConstraintType `json:"type"`
	SourceEventID string         `json:"sourceEventId"`
	TTLSeconds    *int64         `json:"ttl,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// MoodObservation is the decoded view of a MOOD_RECORDED event.
type MoodObservation struct {
	EventID   string    `json:"eventId"`
	Timestamp time.Time `json:"timestamp"`
	Mood      string    `json:"mood"`
	Intensity float64   `json:"intensity"`
	Reason    string    `json:"reason"`
}

// DistressReport summarizes the temporally weighted mood signal. Duration
// and PrimaryCause are zero when no observation in the window reached the
// distress threshold.
type DistressReport struct {
	Level        float64       `json:"level"`
	Duration     time.Duration `json:"duration"`
	PrimaryCause string        `json:"primaryCause,omitempty"`
}
