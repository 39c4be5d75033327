// Package notify delivers "spontaneously updated" signals to subscribers.
//
// An event is published only when a remote job result was applied outside a
// caller's own read and the record holding it was saved. Delivery is best
// effort; publishers report failures but callers only log them.
package notify

import (
	"context"
	"time"
)

// EventType names a notification
type EventType string

// EventSpontaneouslyUpdated signals that a translation changed without the
// subscriber asking for it
const EventSpontaneouslyUpdated EventType = "spontaneously_updated"

// Event is the payload delivered to every publisher
type Event struct {
	Type          EventType `json:"type"`
	RecordID      string    `json:"record_id"`
	Language      string    `json:"language"`
	JobKind       string    `json:"job_kind"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher delivers events to one channel
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
