package logbook

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/praxislog/logbook-backend/internal/domain"
	"github.com/praxislog/logbook-backend/pkg/ctxutil"
)

// LogbookView is a logbook together with the viewer's capabilities and the
// actions legal from its current status.
type LogbookView struct {
	Logbook      domain.Logbook
	Capabilities domain.Capabilities
	Actions      []domain.TransitionAction
}

// CreateWeek creates the caller's logbook for one week, with its three empty
// sections, in draft.
func (s *Service) CreateWeek(ctx context.Context, in CreateWeekInput) (domain.Logbook, error) {
	ownerID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.Logbook{}, domain.ErrUnauthorized
	}
	if err := in.Validate(); err != nil {
		return domain.Logbook{}, err
	}

	now := s.now()
	lb := domain.Logbook{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		SupervisorID: in.SupervisorID,
		WeekStart:    in.WeekStart,
		Status:       domain.StatusDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.logbooks.Create(ctx, lb)
	if err != nil {
		return domain.Logbook{}, fmt.Errorf("create logbook: %w", err)
	}

	s.log.InfoContext(ctx, "logbook created", "logbook_id", created.ID, "week_start", in.WeekStart)
	return created, nil
}

// Get returns a logbook with the caller's capabilities resolved against the
// current unlock state. Owner, assigned supervisor, and admins may read it.
func (s *Service) Get(ctx context.Context, logbookID uuid.UUID) (LogbookView, error) {
	viewerID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return LogbookView{}, domain.ErrUnauthorized
	}
	viewer := domain.Viewer{ID: viewerID, Role: domain.UserRole(ctxutil.UserRoleFromCtx(ctx))}

	lb, err := s.logbooks.GetByID(ctx, logbookID)
	if err != nil {
		return LogbookView{}, fmt.Errorf("get logbook: %w", err)
	}

	if viewerID != lb.OwnerID && !lb.IsSupervisor(viewerID) && !ctxutil.IsAdminCtx(ctx) {
		return LogbookView{}, fmt.Errorf("logbook %s: %w", logbookID, domain.ErrForbidden)
	}

	active, err := s.activeUnlock(ctx, lb.ID)
	if err != nil {
		return LogbookView{}, fmt.Errorf("get active unlock: %w", err)
	}

	now := s.now()
	return LogbookView{
		Logbook:      lb,
		Capabilities: domain.ResolvePermissions(&lb, active, viewer, now),
		Actions:      domain.ActionsFrom(domain.EffectiveStatus(&lb, active, now)),
	}, nil
}

// ListMine returns the caller's logbooks, newest week first.
func (s *Service) ListMine(ctx context.Context, limit, offset int) ([]domain.Logbook, error) {
	ownerID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	limit, offset = clampPage(limit, offset)

	out, err := s.logbooks.ListByOwner(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list logbooks: %w", err)
	}
	return out, nil
}

// ReviewQueue returns logbooks assigned to the calling supervisor, optionally
// filtered by status.
func (s *Service) ReviewQueue(ctx context.Context, status *domain.LogbookStatus, limit, offset int) ([]domain.Logbook, error) {
	supervisorID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if status != nil && !status.IsValid() {
		return nil, domain.NewValidationError("status", "unknown status")
	}
	limit, offset = clampPage(limit, offset)

	out, err := s.logbooks.ListBySupervisor(ctx, supervisorID, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list review queue: %w", err)
	}
	return out, nil
}

// UpdateSection replaces a section's payload, gated on the logbook being
// editable for the caller right now. Edits made inside a granted unlock
// window stay valid after the window closes.
func (s *Service) UpdateSection(ctx context.Context, in UpdateSectionInput) error {
	actorID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}
	viewer := domain.Viewer{ID: actorID, Role: domain.UserRole(ctxutil.UserRoleFromCtx(ctx))}

	if err := in.Validate(); err != nil {
		return err
	}

	now := s.now()
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		lb, err := s.logbooks.GetByIDForUpdate(txCtx, in.LogbookID)
		if err != nil {
			return fmt.Errorf("get logbook: %w", err)
		}

		var section *domain.LogbookSection
		for i := range lb.Sections {
			if lb.Sections[i].ID == in.SectionID {
				section = &lb.Sections[i]
				break
			}
		}
		if section == nil {
			return fmt.Errorf("section %s: %w", in.SectionID, domain.ErrNotFound)
		}

		active, err := s.activeUnlock(txCtx, lb.ID)
		if err != nil {
			return fmt.Errorf("get active unlock: %w", err)
		}

		caps := domain.ResolvePermissions(&lb, active, viewer, now)
		if !caps.CanEdit {
			return fmt.Errorf("logbook %s: %w", lb.ID, domain.ErrForbidden)
		}
		// A granted unlock clears section locks; a still-locked section here
		// means an administrative lock that editing must respect.
		if section.IsLocked {
			return fmt.Errorf("section %s is locked: %w", section.ID, domain.ErrForbidden)
		}

		if err := s.logbooks.UpdateSectionContent(txCtx, section.ID, in.Content); err != nil {
			return fmt.Errorf("update section: %w", err)
		}

		_, err = s.audit.Append(txCtx, domain.AuditEntry{
			ID:          uuid.New(),
			LogbookID:   lb.ID,
			ActorID:     &actorID,
			Action:      domain.AuditSectionEdited,
			Description: fmt.Sprintf("section %s edited", section.Type),
			Diff:        map[string]any{"section_id": section.ID.String(), "content": in.Content},
			CreatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("append audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "section updated", "logbook_id", in.LogbookID, "section_id", in.SectionID)
	return nil
}

// clampPage normalizes pagination arguments.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
