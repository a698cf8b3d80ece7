package domain

import (
	"time"

	"github.com/google/uuid"
)

// Logbook is one trainee's weekly logbook. The status field is owned by the
// lifecycle service; nothing else may mutate it.
type Logbook struct {
	ID           uuid.UUID
	OwnerID      uuid.UUID
	SupervisorID *uuid.UUID
	WeekStart    time.Time
	Status       LogbookStatus

	// Cached projection of the week's hour records, maintained by the
	// hours service. Display only; compliance math re-aggregates.
	Totals HourTotals

	CreatedAt   time.Time
	UpdatedAt   time.Time
	SubmittedAt *time.Time
	ApprovedAt  *time.Time

	Sections []LogbookSection
}

// HourTotals holds per-category hour sums for one logbook week.
type HourTotals struct {
	DCC         float64
	CRA         float64
	Development float64
	Supervision float64
}

// IsSupervisor reports whether the given user is this logbook's assigned
// reviewer. A logbook without an assigned supervisor has no reviewer.
func (l *Logbook) IsSupervisor(userID uuid.UUID) bool {
	return l.SupervisorID != nil && *l.SupervisorID == userID
}

// Locked reports whether the logbook's content is immutable at the given
// instant. A logbook is editable iff its status is pre-approval, or it is
// approved/locked with a currently granted, non-expired unlock. activeUnlock
// may be nil.
func (l *Logbook) Locked(activeUnlock *UnlockRequest, now time.Time) bool {
	if !l.Status.IsTerminal() {
		return false
	}
	return activeUnlock == nil || !activeUnlock.GrantedAndCurrent(now)
}

// SectionsComplete reports whether every section carries a non-empty payload.
// Minimal completeness gate for submission; richer validation belongs to the
// excluded entry CRUD screens.
func (l *Logbook) SectionsComplete() bool {
	if len(l.Sections) == 0 {
		return false
	}
	for _, s := range l.Sections {
		if len(s.Content) == 0 {
			return false
		}
	}
	return true
}

// LogbookSection is one of the three fixed sections of a logbook. Its
// lifecycle is tied to the parent logbook.
type LogbookSection struct {
	ID        uuid.UUID
	LogbookID uuid.UUID
	Type      SectionType

	// Content is an opaque structured payload owned by the entry screens.
	Content map[string]any

	// IsLocked normally mirrors the parent's lock state but may be set
	// independently by administrative action.
	IsLocked bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
