package domain

import (
	"time"

	"github.com/google/uuid"
)

// UnlockRequest is a time-boxed exception to the immutability of an
// approved/locked logbook. At most one pending or currently granted request
// exists per logbook; the unlock workflow checks this and a partial unique
// index backs it up under concurrency.
type UnlockRequest struct {
	ID              uuid.UUID
	LogbookID       uuid.UUID
	RequestedBy     uuid.UUID
	Reason          string
	Status          UnlockStatus
	RequestedAt     time.Time
	ResolvedBy      *uuid.UUID
	GrantedAt       *time.Time
	UnlockExpiresAt *time.Time
	DurationMinutes int
}

// EffectiveStatus applies lazy expiry: a granted request whose window has
// passed reads as expired even before the sweep persists it.
func (r *UnlockRequest) EffectiveStatus(now time.Time) UnlockStatus {
	if r.Status == UnlockGranted && r.UnlockExpiresAt != nil && r.UnlockExpiresAt.Before(now) {
		return UnlockExpired
	}
	return r.Status
}

// GrantedAndCurrent reports whether the request holds an unexpired grant.
func (r *UnlockRequest) GrantedAndCurrent(now time.Time) bool {
	return r.EffectiveStatus(now) == UnlockGranted
}

// Active reports whether the request blocks creation of a new one:
// pending, or granted and not yet expired.
func (r *UnlockRequest) Active(now time.Time) bool {
	s := r.EffectiveStatus(now)
	return s == UnlockPending || s == UnlockGranted
}
