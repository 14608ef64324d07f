// Package audit captures key domain actions as events. Keep the event
// transport-agnostic so publishers can fan out to memory, logs, or Kafka.
package audit

import (
	"context"
	"time"
)

// Audit actions.
const (
	EventPersonRegistered = "person_registered"
	EventPersonUpdated    = "person_updated"
	EventPersonDeleted    = "person_deleted"
	EventRecordUpdated    = "record_updated"
	EventReminderSent     = "reminder_sent"
	EventReminderFailed   = "reminder_failed"
)

// Event is emitted from domain logic to capture key actions.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	PersonID  int64     `json:"person_id,omitempty"`
	// Category is the record category involved, when relevant
	// (medical, exercise4, exercise7, vacation).
	Category string `json:"category,omitempty"`
	Detail   string `json:"detail,omitempty"`
	// RequestID correlates the event with the triggering update or sweep.
	RequestID string `json:"request_id,omitempty"`
}

// Publisher delivers audit events. Implementations must not block domain
// logic on sink latency beyond what their construction promises.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
	Close() error
}
