package domain

import (
	"testing"
)

func TestNextStatus_LegalEdges(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from   LogbookStatus
		action TransitionAction
		want   LogbookStatus
	}{
		{StatusDraft, ActionSubmit, StatusSubmitted},
		{StatusSubmitted, ActionBeginReview, StatusUnderReview},
		{StatusUnderReview, ActionApprove, StatusApproved},
		{StatusUnderReview, ActionReject, StatusChangesRequested},
		{StatusChangesRequested, ActionResubmit, StatusSubmitted},
		{StatusApproved, ActionLock, StatusLocked},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_"+string(tt.action), func(t *testing.T) {
			got, ok := NextStatus(tt.from, tt.action)
			if !ok {
				t.Fatalf("expected edge %s --%s--> to exist", tt.from, tt.action)
			}
			if got != tt.want {
				t.Errorf("NextStatus(%s, %s) = %s, want %s", tt.from, tt.action, got, tt.want)
			}
		})
	}
}

func TestNextStatus_IllegalEdges(t *testing.T) {
	t.Parallel()

	// Every (status, action) pair not in the table must be rejected.
	legal := map[string]bool{
		"draft/submit":                  true,
		"submitted/begin_review":        true,
		"under_review/approve":          true,
		"under_review/reject":           true,
		"changes_requested/resubmit":    true,
		"approved/lock":                 true,
	}

	statuses := []LogbookStatus{
		StatusDraft, StatusSubmitted, StatusUnderReview,
		StatusChangesRequested, StatusApproved, StatusLocked,
	}
	actions := []TransitionAction{
		ActionSubmit, ActionBeginReview, ActionApprove,
		ActionReject, ActionResubmit, ActionLock,
	}

	for _, s := range statuses {
		for _, a := range actions {
			key := string(s) + "/" + string(a)
			if _, ok := NextStatus(s, a); ok != legal[key] {
				t.Errorf("NextStatus(%s, %s): ok=%v, want %v", s, a, ok, legal[key])
			}
		}
	}
}

// No path reaches approved without passing through submitted and under_review.
func TestTransitionTable_NoShortcutToApproved(t *testing.T) {
	t.Parallel()

	for _, s := range []LogbookStatus{StatusDraft, StatusSubmitted, StatusChangesRequested, StatusLocked} {
		for _, a := range []TransitionAction{ActionSubmit, ActionBeginReview, ActionApprove, ActionReject, ActionResubmit, ActionLock} {
			if to, ok := NextStatus(s, a); ok && to == StatusApproved {
				t.Errorf("unexpected edge to approved: %s --%s-->", s, a)
			}
		}
	}

	if to, ok := NextStatus(StatusUnderReview, ActionApprove); !ok || to != StatusApproved {
		t.Error("approve from under_review must be the only way to reach approved")
	}
}

func TestActionsFrom(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from LogbookStatus
		want []TransitionAction
	}{
		{StatusDraft, []TransitionAction{ActionSubmit}},
		{StatusSubmitted, []TransitionAction{ActionBeginReview}},
		{StatusUnderReview, []TransitionAction{ActionApprove, ActionReject}},
		{StatusChangesRequested, []TransitionAction{ActionResubmit}},
		{StatusApproved, []TransitionAction{ActionLock}},
		{StatusLocked, nil},
	}

	for _, tt := range tests {
		got := ActionsFrom(tt.from)
		if len(got) != len(tt.want) {
			t.Errorf("ActionsFrom(%s) = %v, want %v", tt.from, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ActionsFrom(%s)[%d] = %s, want %s", tt.from, i, got[i], tt.want[i])
			}
		}
	}
}

func TestAuditActionFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		action TransitionAction
		want   AuditAction
	}{
		{ActionSubmit, AuditSubmit},
		{ActionBeginReview, AuditBeginReview},
		{ActionApprove, AuditApprove},
		{ActionReject, AuditReject},
		{ActionResubmit, AuditResubmit},
		{ActionLock, AuditLock},
	}
	for _, tt := range tests {
		if got := AuditActionFor(tt.action); got != tt.want {
			t.Errorf("AuditActionFor(%s) = %s, want %s", tt.action, got, tt.want)
		}
	}
}
