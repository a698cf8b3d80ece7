package unlock

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/praxislog/logbook-backend/internal/domain"
)

// Hand-rolled mocks for the private repository interfaces. A nil func means
// the test does not expect that call; invoking it panics and fails the test.

type unlockRepoMock struct {
	CreateFunc                    func(ctx context.Context, req domain.UnlockRequest) (domain.UnlockRequest, error)
	GetByIDForUpdateFunc          func(ctx context.Context, id uuid.UUID) (domain.UnlockRequest, error)
	GetOpenByLogbookFunc          func(ctx context.Context, logbookID uuid.UUID) (domain.UnlockRequest, error)
	GrantFunc                     func(ctx context.Context, id, resolvedBy uuid.UUID, grantedAt, expiresAt time.Time, durationMinutes int) error
	DenyFunc                      func(ctx context.Context, id, resolvedBy uuid.UUID) error
	ListExpiredGrantsFunc         func(ctx context.Context, now time.Time, limit int) ([]domain.UnlockRequest, error)
	ListGrantsExpiringBetweenFunc func(ctx context.Context, from, until time.Time) ([]domain.UnlockRequest, error)
	MarkExpiredFunc               func(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	ListByLogbookFunc             func(ctx context.Context, logbookID uuid.UUID) ([]domain.UnlockRequest, error)
}

func (m *unlockRepoMock) Create(ctx context.Context, req domain.UnlockRequest) (domain.UnlockRequest, error) {
	return m.CreateFunc(ctx, req)
}

func (m *unlockRepoMock) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (domain.UnlockRequest, error) {
	return m.GetByIDForUpdateFunc(ctx, id)
}

func (m *unlockRepoMock) GetOpenByLogbook(ctx context.Context, logbookID uuid.UUID) (domain.UnlockRequest, error) {
	if m.GetOpenByLogbookFunc == nil {
		return domain.UnlockRequest{}, domain.ErrNotFound
	}
	return m.GetOpenByLogbookFunc(ctx, logbookID)
}

func (m *unlockRepoMock) Grant(ctx context.Context, id, resolvedBy uuid.UUID, grantedAt, expiresAt time.Time, durationMinutes int) error {
	return m.GrantFunc(ctx, id, resolvedBy, grantedAt, expiresAt, durationMinutes)
}

func (m *unlockRepoMock) Deny(ctx context.Context, id, resolvedBy uuid.UUID) error {
	return m.DenyFunc(ctx, id, resolvedBy)
}

func (m *unlockRepoMock) ListExpiredGrants(ctx context.Context, now time.Time, limit int) ([]domain.UnlockRequest, error) {
	return m.ListExpiredGrantsFunc(ctx, now, limit)
}

func (m *unlockRepoMock) ListGrantsExpiringBetween(ctx context.Context, from, until time.Time) ([]domain.UnlockRequest, error) {
	return m.ListGrantsExpiringBetweenFunc(ctx, from, until)
}

func (m *unlockRepoMock) MarkExpired(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	return m.MarkExpiredFunc(ctx, id, now)
}

func (m *unlockRepoMock) ListByLogbook(ctx context.Context, logbookID uuid.UUID) ([]domain.UnlockRequest, error) {
	return m.ListByLogbookFunc(ctx, logbookID)
}

type logbookRepoMock struct {
	GetByIDForUpdateFunc  func(ctx context.Context, id uuid.UUID) (domain.Logbook, error)
	UpdateStatusFunc      func(ctx context.Context, id uuid.UUID, from, to domain.LogbookStatus, at time.Time) error
	SetSectionsLockedFunc func(ctx context.Context, logbookID uuid.UUID, locked bool) error
}

func (m *logbookRepoMock) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (domain.Logbook, error) {
	return m.GetByIDForUpdateFunc(ctx, id)
}

func (m *logbookRepoMock) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.LogbookStatus, at time.Time) error {
	return m.UpdateStatusFunc(ctx, id, from, to, at)
}

func (m *logbookRepoMock) SetSectionsLocked(ctx context.Context, logbookID uuid.UUID, locked bool) error {
	return m.SetSectionsLockedFunc(ctx, logbookID, locked)
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

type txPassthrough struct{}

func (txPassthrough) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
