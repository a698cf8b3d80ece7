package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditEntry is one immutable record in a logbook's audit trail. Entries are
// append-only: no update or delete operation exists anywhere in the system.
type AuditEntry struct {
	ID        uuid.UUID
	LogbookID uuid.UUID

	// ActorID is nil for system actions (automatic lock, expiry sweep).
	ActorID *uuid.UUID

	Action      AuditAction
	Description string

	// Diff is an opaque snapshot of what changed. Stored as JSONB and
	// never reinterpreted by the engine.
	Diff map[string]any

	CreatedAt time.Time
}
