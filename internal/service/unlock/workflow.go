package unlock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/praxislog/logbook-backend/internal/domain"
	"github.com/praxislog/logbook-backend/internal/notify"
	"github.com/praxislog/logbook-backend/pkg/ctxutil"
)

// RequestInput asks to reopen a terminal logbook.
type RequestInput struct {
	LogbookID uuid.UUID
	Reason    string
}

// Validate checks the request before storage access.
func (in RequestInput) Validate() error {
	var errs []domain.FieldError
	if in.LogbookID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "logbook_id", Message: "is required"})
	}
	if strings.TrimSpace(in.Reason) == "" {
		errs = append(errs, domain.FieldError{Field: "reason", Message: "is required"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// Request creates a pending unlock request for an approved or locked
// logbook. A second active request for the same logbook is a Conflict.
func (s *Service) Request(ctx context.Context, in RequestInput) (domain.UnlockRequest, error) {
	actorID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.UnlockRequest{}, domain.ErrUnauthorized
	}
	viewer := domain.Viewer{ID: actorID, Role: domain.UserRole(ctxutil.UserRoleFromCtx(ctx))}

	if err := in.Validate(); err != nil {
		return domain.UnlockRequest{}, err
	}

	now := s.now()
	var created domain.UnlockRequest

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		lb, err := s.logbooks.GetByIDForUpdate(txCtx, in.LogbookID)
		if err != nil {
			return fmt.Errorf("get logbook: %w", err)
		}

		active, err := s.openRequest(txCtx, lb.ID)
		if err != nil {
			return err
		}
		if active != nil {
			if active.Active(now) {
				return fmt.Errorf("logbook %s already has an active unlock request: %w", lb.ID, domain.ErrConflict)
			}
			// A stale grant still holds the one-open-request slot. Expire it
			// now, exactly as the sweep would, so the new request can exist.
			if _, err := s.expireGrant(txCtx, *active, &lb, now); err != nil {
				return err
			}
			active = nil
		}

		caps := domain.ResolvePermissions(&lb, active, viewer, now)
		if !caps.CanRequestUnlock {
			return fmt.Errorf("request unlock on logbook %s: %w", lb.ID, domain.ErrForbidden)
		}

		created, err = s.unlocks.Create(txCtx, domain.UnlockRequest{
			ID:          uuid.New(),
			LogbookID:   lb.ID,
			RequestedBy: actorID,
			Reason:      in.Reason,
			Status:      domain.UnlockPending,
			RequestedAt: now,
		})
		if err != nil {
			return fmt.Errorf("create unlock request: %w", err)
		}

		_, err = s.audit.Append(txCtx, domain.AuditEntry{
			ID:          uuid.New(),
			LogbookID:   lb.ID,
			ActorID:     &actorID,
			Action:      domain.AuditUnlockRequest,
			Description: "unlock requested",
			Diff:        map[string]any{"request_id": created.ID.String(), "reason": in.Reason},
			CreatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("append audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.UnlockRequest{}, err
	}

	s.notifier.Publish(ctx, notify.Event{
		Kind:       notify.EventUnlockRequested,
		LogbookID:  created.LogbookID,
		ActorID:    &actorID,
		OccurredAt: now,
		Payload:    map[string]any{"request_id": created.ID.String(), "reason": in.Reason},
	})

	s.log.InfoContext(ctx, "unlock requested", "logbook_id", created.LogbookID, "request_id", created.ID)
	return created, nil
}

// Grant resolves a pending request, reopening the logbook as an editable
// draft until the window ends. Only the assigned supervisor may grant.
// durationMinutes of zero takes the configured default.
func (s *Service) Grant(ctx context.Context, requestID uuid.UUID, durationMinutes int) (domain.UnlockRequest, error) {
	actorID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.UnlockRequest{}, domain.ErrUnauthorized
	}
	viewer := domain.Viewer{ID: actorID, Role: domain.UserRole(ctxutil.UserRoleFromCtx(ctx))}

	if durationMinutes == 0 {
		durationMinutes = s.cfg.DefaultDurationMinutes
	}
	if durationMinutes < 0 || durationMinutes > s.cfg.MaxDurationMinutes {
		return domain.UnlockRequest{}, domain.NewValidationError("duration_minutes",
			fmt.Sprintf("must be between 1 and %d", s.cfg.MaxDurationMinutes))
	}

	now := s.now()
	expiresAt := now.Add(time.Duration(durationMinutes) * time.Minute)
	var granted domain.UnlockRequest

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		req, err := s.unlocks.GetByIDForUpdate(txCtx, requestID)
		if err != nil {
			return fmt.Errorf("get unlock request: %w", err)
		}
		if req.Status != domain.UnlockPending {
			return fmt.Errorf("unlock request %s is %s: %w", req.ID, req.Status, domain.ErrConflict)
		}

		lb, err := s.logbooks.GetByIDForUpdate(txCtx, req.LogbookID)
		if err != nil {
			return fmt.Errorf("get logbook: %w", err)
		}

		caps := domain.ResolvePermissions(&lb, &req, viewer, now)
		if !caps.CanGrantUnlock {
			return fmt.Errorf("grant unlock on logbook %s: %w", lb.ID, domain.ErrForbidden)
		}

		if err := s.unlocks.Grant(txCtx, req.ID, actorID, now, expiresAt, durationMinutes); err != nil {
			return fmt.Errorf("grant unlock request: %w", err)
		}

		// Reopen the logbook for the window.
		if err := s.logbooks.UpdateStatus(txCtx, lb.ID, lb.Status, domain.StatusDraft, now); err != nil {
			return fmt.Errorf("reopen logbook: %w", err)
		}
		if err := s.logbooks.SetSectionsLocked(txCtx, lb.ID, false); err != nil {
			return fmt.Errorf("unlock sections: %w", err)
		}

		_, err = s.audit.Append(txCtx, domain.AuditEntry{
			ID:          uuid.New(),
			LogbookID:   lb.ID,
			ActorID:     &actorID,
			Action:      domain.AuditUnlockGrant,
			Description: fmt.Sprintf("unlock granted for %d minutes", durationMinutes),
			Diff: map[string]any{
				"request_id":        req.ID.String(),
				"duration_minutes":  durationMinutes,
				"unlock_expires_at": expiresAt,
			},
			CreatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("append audit entry: %w", err)
		}

		granted = req
		granted.Status = domain.UnlockGranted
		granted.ResolvedBy = &actorID
		granted.GrantedAt = &now
		granted.UnlockExpiresAt = &expiresAt
		granted.DurationMinutes = durationMinutes
		return nil
	})
	if err != nil {
		return domain.UnlockRequest{}, err
	}

	s.notifier.Publish(ctx, notify.Event{
		Kind:       notify.EventUnlockApproved,
		LogbookID:  granted.LogbookID,
		ActorID:    &actorID,
		OccurredAt: now,
		Payload:    map[string]any{"request_id": granted.ID.String(), "unlock_expires_at": expiresAt},
	})

	s.log.InfoContext(ctx, "unlock granted",
		"logbook_id", granted.LogbookID,
		"request_id", granted.ID,
		"expires_at", expiresAt,
	)
	return granted, nil
}

// Deny resolves a pending request without reopening anything.
func (s *Service) Deny(ctx context.Context, requestID uuid.UUID, reason string) (domain.UnlockRequest, error) {
	actorID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.UnlockRequest{}, domain.ErrUnauthorized
	}
	viewer := domain.Viewer{ID: actorID, Role: domain.UserRole(ctxutil.UserRoleFromCtx(ctx))}

	now := s.now()
	var denied domain.UnlockRequest

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		req, err := s.unlocks.GetByIDForUpdate(txCtx, requestID)
		if err != nil {
			return fmt.Errorf("get unlock request: %w", err)
		}
		if req.Status != domain.UnlockPending {
			return fmt.Errorf("unlock request %s is %s: %w", req.ID, req.Status, domain.ErrConflict)
		}

		lb, err := s.logbooks.GetByIDForUpdate(txCtx, req.LogbookID)
		if err != nil {
			return fmt.Errorf("get logbook: %w", err)
		}

		caps := domain.ResolvePermissions(&lb, &req, viewer, now)
		if !caps.CanGrantUnlock {
			return fmt.Errorf("deny unlock on logbook %s: %w", lb.ID, domain.ErrForbidden)
		}

		if err := s.unlocks.Deny(txCtx, req.ID, actorID); err != nil {
			return fmt.Errorf("deny unlock request: %w", err)
		}

		diff := map[string]any{"request_id": req.ID.String()}
		if reason != "" {
			diff["reason"] = reason
		}
		_, err = s.audit.Append(txCtx, domain.AuditEntry{
			ID:          uuid.New(),
			LogbookID:   lb.ID,
			ActorID:     &actorID,
			Action:      domain.AuditUnlockDeny,
			Description: "unlock denied",
			Diff:        diff,
			CreatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("append audit entry: %w", err)
		}

		denied = req
		denied.Status = domain.UnlockDenied
		denied.ResolvedBy = &actorID
		return nil
	})
	if err != nil {
		return domain.UnlockRequest{}, err
	}

	s.notifier.Publish(ctx, notify.Event{
		Kind:       notify.EventUnlockDenied,
		LogbookID:  denied.LogbookID,
		ActorID:    &actorID,
		OccurredAt: now,
		Payload:    map[string]any{"request_id": denied.ID.String()},
	})

	s.log.InfoContext(ctx, "unlock denied", "logbook_id", denied.LogbookID, "request_id", denied.ID)
	return denied, nil
}

// History returns the logbook's unlock request history, newest first.
func (s *Service) History(ctx context.Context, logbookID uuid.UUID) ([]domain.UnlockRequest, error) {
	if _, ok := ctxutil.UserIDFromCtx(ctx); !ok {
		return nil, domain.ErrUnauthorized
	}
	out, err := s.unlocks.ListByLogbook(ctx, logbookID)
	if err != nil {
		return nil, fmt.Errorf("list unlock requests: %w", err)
	}
	return out, nil
}

// openRequest returns the logbook's open request, nil when there is none.
func (s *Service) openRequest(ctx context.Context, logbookID uuid.UUID) (*domain.UnlockRequest, error) {
	req, err := s.unlocks.GetOpenByLogbook(ctx, logbookID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get open unlock request: %w", err)
	}
	return &req, nil
}
