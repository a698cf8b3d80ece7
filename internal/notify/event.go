// Package notify defines the notification events emitted by the lifecycle
// services and the sink interface that delivers them. Delivery and storage
// are the sink's responsibility; services only describe what happened.
package notify

import (
	"time"

	"github.com/google/uuid"
)

// EventKind identifies a notification event.
type EventKind string

const (
	EventLogbookSubmitted     EventKind = "logbook_submitted"
	EventLogbookStatusUpdated EventKind = "logbook_status_updated"
	EventCommentAdded         EventKind = "comment_added"
	EventUnlockRequested      EventKind = "unlock_requested"
	EventUnlockApproved       EventKind = "unlock_approved"
	EventUnlockDenied         EventKind = "unlock_denied"
	EventUnlockExpired        EventKind = "unlock_expired"
	EventUnlockExpiryWarning  EventKind = "unlock_expiry_warning"
)

func (k EventKind) String() string { return string(k) }

// Event is one notification event descriptor.
type Event struct {
	Kind      EventKind
	LogbookID uuid.UUID

	// ActorID is nil for system-initiated events (automatic lock, sweep).
	ActorID *uuid.UUID

	OccurredAt time.Time
	Payload    map[string]any
}
