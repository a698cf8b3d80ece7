// Package audit exposes read access to a logbook's audit trail. Entries are
// written by the other services; this one only lists them, behind the same
// read gate the logbook itself has.
package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/praxislog/logbook-backend/internal/domain"
	"github.com/praxislog/logbook-backend/pkg/ctxutil"
)

type logbookRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Logbook, error)
}

type auditRepo interface {
	ListByLogbook(ctx context.Context, logbookID uuid.UUID, limit, offset int) ([]domain.AuditEntry, error)
	CountByLogbook(ctx context.Context, logbookID uuid.UUID) (int, error)
}

// Service lists audit trail entries.
type Service struct {
	logbooks logbookRepo
	audit    auditRepo
	log      *slog.Logger
}

// NewService creates a new audit service.
func NewService(log *slog.Logger, logbooks logbookRepo, audit auditRepo) *Service {
	return &Service{
		logbooks: logbooks,
		audit:    audit,
		log:      log.With("service", "audit"),
	}
}

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// List returns one page of a logbook's audit trail, newest first, plus the
// total entry count. Visible to the owner, the assigned supervisor, and
// admins.
func (s *Service) List(ctx context.Context, logbookID uuid.UUID, limit, offset int) ([]domain.AuditEntry, int, error) {
	viewerID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, 0, domain.ErrUnauthorized
	}

	lb, err := s.logbooks.GetByID(ctx, logbookID)
	if err != nil {
		return nil, 0, fmt.Errorf("get logbook: %w", err)
	}
	if viewerID != lb.OwnerID && !lb.IsSupervisor(viewerID) && !ctxutil.IsAdminCtx(ctx) {
		return nil, 0, fmt.Errorf("logbook %s: %w", logbookID, domain.ErrForbidden)
	}

	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := s.audit.ListByLogbook(ctx, logbookID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit trail: %w", err)
	}
	total, err := s.audit.CountByLogbook(ctx, logbookID)
	if err != nil {
		return nil, 0, fmt.Errorf("count audit trail: %w", err)
	}
	return entries, total, nil
}
