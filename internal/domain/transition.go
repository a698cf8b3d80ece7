package domain

// transitionTable is the single authority on legal status edges. An action is
// legal only if its current status appears here; everything else fails with
// ErrInvalidTransition. Unlock grants move locked→draft through the unlock
// workflow, not through this table.
var transitionTable = map[TransitionAction]map[LogbookStatus]LogbookStatus{
	ActionSubmit: {
		StatusDraft: StatusSubmitted,
	},
	ActionBeginReview: {
		StatusSubmitted: StatusUnderReview,
	},
	ActionApprove: {
		StatusUnderReview: StatusApproved,
	},
	ActionReject: {
		StatusUnderReview: StatusChangesRequested,
	},
	ActionResubmit: {
		StatusChangesRequested: StatusSubmitted,
	},
	ActionLock: {
		StatusApproved: StatusLocked,
	},
}

// NextStatus returns the status the action leads to from the given status.
// ok is false when the edge does not exist.
func NextStatus(from LogbookStatus, action TransitionAction) (LogbookStatus, bool) {
	to, ok := transitionTable[action][from]
	return to, ok
}

// CanTransition reports whether the action is legal from the given status.
func CanTransition(from LogbookStatus, action TransitionAction) bool {
	_, ok := NextStatus(from, action)
	return ok
}

// ActionsFrom returns every action legal from the given status. Used by
// read paths to advertise available affordances.
func ActionsFrom(from LogbookStatus) []TransitionAction {
	var actions []TransitionAction
	for _, a := range []TransitionAction{
		ActionSubmit, ActionBeginReview, ActionApprove,
		ActionReject, ActionResubmit, ActionLock,
	} {
		if CanTransition(from, a) {
			actions = append(actions, a)
		}
	}
	return actions
}

// AuditActionFor maps a transition action to its audit trail action.
func AuditActionFor(action TransitionAction) AuditAction {
	switch action {
	case ActionSubmit:
		return AuditSubmit
	case ActionBeginReview:
		return AuditBeginReview
	case ActionApprove:
		return AuditApprove
	case ActionReject:
		return AuditReject
	case ActionResubmit:
		return AuditResubmit
	case ActionLock:
		return AuditLock
	default:
		return AuditAction(action)
	}
}
