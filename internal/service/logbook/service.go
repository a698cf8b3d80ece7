// Package logbook implements the logbook lifecycle: weekly logbook creation,
// section editing, and the status state machine. The transition table in the
// domain package is the single authority on legal edges; this service adds
// authorization, persistence, and the audit trail around it.
package logbook

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/praxislog/logbook-backend/internal/adapter/renderer"
	"github.com/praxislog/logbook-backend/internal/domain"
	"github.com/praxislog/logbook-backend/internal/notify"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type logbookRepo interface {
	Create(ctx context.Context, lb domain.Logbook) (domain.Logbook, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Logbook, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (domain.Logbook, error)
	GetByOwnerAndWeek(ctx context.Context, ownerID uuid.UUID, weekStart time.Time) (domain.Logbook, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.LogbookStatus, at time.Time) error
	UpdateSectionContent(ctx context.Context, sectionID uuid.UUID, content map[string]any) error
	SetSectionsLocked(ctx context.Context, logbookID uuid.UUID, locked bool) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]domain.Logbook, error)
	ListBySupervisor(ctx context.Context, supervisorID uuid.UUID, status *domain.LogbookStatus, limit, offset int) ([]domain.Logbook, error)
}

type unlockRepo interface {
	GetOpenByLogbook(ctx context.Context, logbookID uuid.UUID) (domain.UnlockRequest, error)
}

type auditRepo interface {
	Append(ctx context.Context, entry domain.AuditEntry) (domain.AuditEntry, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// docRenderer requests rendered documents from the external PDF service.
type docRenderer interface {
	RequestDocument(ctx context.Context, req renderer.DocumentRequest) (renderer.DocumentResult, error)
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the logbook lifecycle business logic.
type Service struct {
	logbooks logbookRepo
	unlocks  unlockRepo
	audit    auditRepo
	tx       txManager
	notifier notify.Notifier
	renderer docRenderer
	log      *slog.Logger
	now      func() time.Time
}

// NewService creates a new logbook lifecycle service.
func NewService(
	log *slog.Logger,
	logbooks logbookRepo,
	unlocks unlockRepo,
	audit auditRepo,
	tx txManager,
	notifier notify.Notifier,
	renderer docRenderer,
) *Service {
	return &Service{
		logbooks: logbooks,
		unlocks:  unlocks,
		audit:    audit,
		tx:       tx,
		notifier: notifier,
		renderer: renderer,
		log:      log.With("service", "logbook"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// activeUnlock returns the logbook's open unlock request, or nil when there
// is none. Only storage failures surface as errors.
func (s *Service) activeUnlock(ctx context.Context, logbookID uuid.UUID) (*domain.UnlockRequest, error) {
	req, err := s.unlocks.GetOpenByLogbook(ctx, logbookID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
