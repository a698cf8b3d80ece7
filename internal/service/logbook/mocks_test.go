package logbook

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/praxislog/logbook-backend/internal/domain"
)

// Hand-rolled mocks for the private repository interfaces. A nil func means
// the test does not expect that call; invoking it panics and fails the test.

type logbookRepoMock struct {
	CreateFunc               func(ctx context.Context, lb domain.Logbook) (domain.Logbook, error)
	GetByIDFunc              func(ctx context.Context, id uuid.UUID) (domain.Logbook, error)
	GetByIDForUpdateFunc     func(ctx context.Context, id uuid.UUID) (domain.Logbook, error)
	GetByOwnerAndWeekFunc    func(ctx context.Context, ownerID uuid.UUID, weekStart time.Time) (domain.Logbook, error)
	UpdateStatusFunc         func(ctx context.Context, id uuid.UUID, from, to domain.LogbookStatus, at time.Time) error
	UpdateSectionContentFunc func(ctx context.Context, sectionID uuid.UUID, content map[string]any) error
	SetSectionsLockedFunc    func(ctx context.Context, logbookID uuid.UUID, locked bool) error
	ListByOwnerFunc          func(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]domain.Logbook, error)
	ListBySupervisorFunc     func(ctx context.Context, supervisorID uuid.UUID, status *domain.LogbookStatus, limit, offset int) ([]domain.Logbook, error)
}

func (m *logbookRepoMock) Create(ctx context.Context, lb domain.Logbook) (domain.Logbook, error) {
	return m.CreateFunc(ctx, lb)
}

func (m *logbookRepoMock) GetByID(ctx context.Context, id uuid.UUID) (domain.Logbook, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *logbookRepoMock) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (domain.Logbook, error) {
	return m.GetByIDForUpdateFunc(ctx, id)
}

func (m *logbookRepoMock) GetByOwnerAndWeek(ctx context.Context, ownerID uuid.UUID, weekStart time.Time) (domain.Logbook, error) {
	return m.GetByOwnerAndWeekFunc(ctx, ownerID, weekStart)
}

func (m *logbookRepoMock) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.LogbookStatus, at time.Time) error {
	return m.UpdateStatusFunc(ctx, id, from, to, at)
}

func (m *logbookRepoMock) UpdateSectionContent(ctx context.Context, sectionID uuid.UUID, content map[string]any) error {
	return m.UpdateSectionContentFunc(ctx, sectionID, content)
}

func (m *logbookRepoMock) SetSectionsLocked(ctx context.Context, logbookID uuid.UUID, locked bool) error {
	return m.SetSectionsLockedFunc(ctx, logbookID, locked)
}

func (m *logbookRepoMock) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]domain.Logbook, error) {
	return m.ListByOwnerFunc(ctx, ownerID, limit, offset)
}

func (m *logbookRepoMock) ListBySupervisor(ctx context.Context, supervisorID uuid.UUID, status *domain.LogbookStatus, limit, offset int) ([]domain.Logbook, error) {
	return m.ListBySupervisorFunc(ctx, supervisorID, status, limit, offset)
}

type unlockRepoMock struct {
	GetOpenByLogbookFunc func(ctx context.Context, logbookID uuid.UUID) (domain.UnlockRequest, error)
}

func (m *unlockRepoMock) GetOpenByLogbook(ctx context.Context, logbookID uuid.UUID) (domain.UnlockRequest, error) {
	if m.GetOpenByLogbookFunc == nil {
		return domain.UnlockRequest{}, domain.ErrNotFound
	}
	return m.GetOpenByLogbookFunc(ctx, logbookID)
}

type auditRepoMock struct {
	AppendFunc func(ctx context.Context, entry domain.AuditEntry) (domain.AuditEntry, error)

	entries []domain.AuditEntry
}

func (m *auditRepoMock) Append(ctx context.Context, entry domain.AuditEntry) (domain.AuditEntry, error) {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, entry)
	}
	m.entries = append(m.entries, entry)
	return entry, nil
}

// txPassthrough runs the function on the same context. Rollback semantics
// are covered by the repository integration tests.
type txPassthrough struct{}

func (txPassthrough) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
