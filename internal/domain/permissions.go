package domain

import (
	"time"

	"github.com/google/uuid"
)

// Viewer identifies who is looking at a logbook, as supplied by the
// identity provider.
type Viewer struct {
	ID   uuid.UUID
	Role UserRole
}

// Capabilities is the full set of affordances a viewer has on a logbook.
// The zero value is all-false, which is what an unrelated viewer gets.
type Capabilities struct {
	CanEdit          bool `json:"can_edit"`
	CanSubmit        bool `json:"can_submit"`
	CanApprove       bool `json:"can_approve"`
	CanReject        bool `json:"can_reject"`
	CanRequestUnlock bool `json:"can_request_unlock"`
	CanGrantUnlock   bool `json:"can_grant_unlock"`
}

// ResolvePermissions derives the viewer's capability set from the logbook's
// status, its lock state at the given instant, and the viewer's relationship
// to it. Pure and deterministic: both the read API (rendering affordances)
// and the lifecycle service (authorizing transitions) call this and nothing
// else, so the two can never diverge.
//
// activeUnlock is the logbook's most recent pending or granted unlock
// request, nil when there is none.
func ResolvePermissions(lb *Logbook, activeUnlock *UnlockRequest, viewer Viewer, now time.Time) Capabilities {
	var caps Capabilities
	if lb == nil {
		return caps
	}

	status := EffectiveStatus(lb, activeUnlock, now)
	isOwner := viewer.ID == lb.OwnerID
	isSupervisor := lb.IsSupervisor(viewer.ID)

	if isOwner {
		editable := status == StatusDraft || status == StatusChangesRequested
		caps.CanEdit = editable
		caps.CanSubmit = editable && lb.SectionsComplete()

		if status.IsTerminal() {
			caps.CanRequestUnlock = activeUnlock == nil || !activeUnlock.Active(now)
		}
	}

	if isSupervisor {
		reviewable := status == StatusSubmitted || status == StatusUnderReview
		caps.CanApprove = reviewable
		caps.CanReject = reviewable
		caps.CanGrantUnlock = activeUnlock != nil && activeUnlock.EffectiveStatus(now) == UnlockPending
	}

	return caps
}

// EffectiveStatus applies lazy unlock expiry to the stored status. A grant
// reopens a locked logbook as a draft; once the window passes, every read
// path must treat it as locked again even before the sweep persists the
// re-lock. A draft backed by an expired grant therefore reads as locked.
// A logbook resubmitted during the window stays in the review cycle.
func EffectiveStatus(lb *Logbook, activeUnlock *UnlockRequest, now time.Time) LogbookStatus {
	if lb.Status == StatusDraft &&
		activeUnlock != nil &&
		activeUnlock.Status == UnlockGranted &&
		activeUnlock.EffectiveStatus(now) == UnlockExpired {
		return StatusLocked
	}
	return lb.Status
}
