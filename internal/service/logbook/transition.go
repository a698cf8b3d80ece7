package logbook

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/praxislog/logbook-backend/internal/domain"
	"github.com/praxislog/logbook-backend/internal/notify"
	"github.com/praxislog/logbook-backend/pkg/ctxutil"
)

// Transition executes one lifecycle action on a logbook. The logbook row is
// locked for the duration, the compare-and-set status update catches stale
// attempts, and the audit entry is written in the same transaction: an action
// that cannot be logged has not happened. Nothing here retries; callers get
// the error and must re-fetch.
func (s *Service) Transition(ctx context.Context, in TransitionInput) (domain.Logbook, error) {
	actorID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.Logbook{}, domain.ErrUnauthorized
	}
	viewer := domain.Viewer{ID: actorID, Role: domain.UserRole(ctxutil.UserRoleFromCtx(ctx))}

	if err := in.Validate(); err != nil {
		return domain.Logbook{}, err
	}

	now := s.now()
	var updated domain.Logbook
	var from domain.LogbookStatus

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		lb, err := s.logbooks.GetByIDForUpdate(txCtx, in.LogbookID)
		if err != nil {
			return fmt.Errorf("get logbook: %w", err)
		}
		from = lb.Status

		active, err := s.activeUnlock(txCtx, lb.ID)
		if err != nil {
			return fmt.Errorf("get active unlock: %w", err)
		}

		if err := authorizeTransition(txCtx, &lb, active, viewer, in.Action, now); err != nil {
			return err
		}

		to, err := s.applyStatusChange(txCtx, &lb, in.Action, now)
		if err != nil {
			return err
		}

		diff := map[string]any{"from": string(from), "to": string(to)}
		if in.Comment != "" {
			diff["comment"] = in.Comment
		}
		_, err = s.audit.Append(txCtx, domain.AuditEntry{
			ID:          uuid.New(),
			LogbookID:   lb.ID,
			ActorID:     &actorID,
			Action:      domain.AuditActionFor(in.Action),
			Description: fmt.Sprintf("status changed from %s to %s", from, to),
			Diff:        diff,
			CreatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("append audit entry: %w", err)
		}

		updated, err = s.logbooks.GetByID(txCtx, lb.ID)
		if err != nil {
			return fmt.Errorf("reload logbook: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Logbook{}, err
	}

	kind := notify.EventLogbookStatusUpdated
	if in.Action == domain.ActionSubmit {
		kind = notify.EventLogbookSubmitted
	}
	s.notifier.Publish(ctx, notify.Event{
		Kind:       kind,
		LogbookID:  updated.ID,
		ActorID:    &actorID,
		OccurredAt: now,
		Payload: map[string]any{
			"action": string(in.Action),
			"from":   string(from),
			"to":     string(updated.Status),
		},
	})

	s.log.InfoContext(ctx, "logbook transition",
		"logbook_id", updated.ID,
		"action", in.Action,
		"from", from,
		"to", updated.Status,
	)
	return updated, nil
}

// applyStatusChange moves the logbook through the transition table, taking
// the implicit submitted to under_review hop when a supervisor approves or
// rejects a logbook that has not been opened for review yet. The hop does
// not get its own audit entry; the reviewer's action does.
func (s *Service) applyStatusChange(ctx context.Context, lb *domain.Logbook, action domain.TransitionAction, at time.Time) (domain.LogbookStatus, error) {
	from := lb.Status

	reviewing := action == domain.ActionApprove || action == domain.ActionReject
	if reviewing && from == domain.StatusSubmitted {
		if err := s.logbooks.UpdateStatus(ctx, lb.ID, from, domain.StatusUnderReview, at); err != nil {
			return "", fmt.Errorf("begin review: %w", err)
		}
		from = domain.StatusUnderReview
	}

	to, ok := domain.NextStatus(from, action)
	if !ok {
		return "", &domain.TransitionError{Status: lb.Status, Action: action}
	}
	if err := s.logbooks.UpdateStatus(ctx, lb.ID, from, to, at); err != nil {
		return "", fmt.Errorf("update status: %w", err)
	}

	if to.IsTerminal() {
		if err := s.logbooks.SetSectionsLocked(ctx, lb.ID, true); err != nil {
			return "", fmt.Errorf("lock sections: %w", err)
		}
	}
	return to, nil
}

// authorizeTransition maps the attempted action to the capability that
// permits it. The same resolver output drives UI affordances, so the two
// can never disagree.
func authorizeTransition(ctx context.Context, lb *domain.Logbook, active *domain.UnlockRequest, viewer domain.Viewer, action domain.TransitionAction, now time.Time) error {
	// A wrong state is InvalidTransition regardless of who asks. The
	// implicit review hop makes approve/reject legal from submitted too.
	stateAllows := domain.CanTransition(lb.Status, action)
	if (action == domain.ActionApprove || action == domain.ActionReject) && lb.Status == domain.StatusSubmitted {
		stateAllows = true
	}
	if !stateAllows {
		return &domain.TransitionError{Status: lb.Status, Action: action}
	}

	caps := domain.ResolvePermissions(lb, active, viewer, now)
	allowed := false
	switch action {
	case domain.ActionSubmit, domain.ActionResubmit:
		allowed = caps.CanSubmit
	case domain.ActionBeginReview, domain.ActionApprove:
		allowed = caps.CanApprove
	case domain.ActionReject:
		allowed = caps.CanReject
	case domain.ActionLock:
		// Locking an approved logbook is administrative, not actor-driven.
		allowed = ctxutil.IsAdminCtx(ctx)
	}
	if !allowed {
		return fmt.Errorf("%s on logbook %s: %w", action, lb.ID, domain.ErrForbidden)
	}
	return nil
}
