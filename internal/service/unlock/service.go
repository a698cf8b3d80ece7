// Package unlock implements the unlock workflow: time-boxed exceptions to
// the immutability of approved and locked logbooks. A grant reopens the
// logbook as a draft for a bounded window; expiry is lazy on reads and made
// durable by an idempotent sweep.
package unlock

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/praxislog/logbook-backend/internal/config"
	"github.com/praxislog/logbook-backend/internal/domain"
	"github.com/praxislog/logbook-backend/internal/notify"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type unlockRepo interface {
	Create(ctx context.Context, req domain.UnlockRequest) (domain.UnlockRequest, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (domain.UnlockRequest, error)
	GetOpenByLogbook(ctx context.Context, logbookID uuid.UUID) (domain.UnlockRequest, error)
	Grant(ctx context.Context, id, resolvedBy uuid.UUID, grantedAt, expiresAt time.Time, durationMinutes int) error
	Deny(ctx context.Context, id, resolvedBy uuid.UUID) error
	ListExpiredGrants(ctx context.Context, now time.Time, limit int) ([]domain.UnlockRequest, error)
	ListGrantsExpiringBetween(ctx context.Context, from, until time.Time) ([]domain.UnlockRequest, error)
	MarkExpired(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	ListByLogbook(ctx context.Context, logbookID uuid.UUID) ([]domain.UnlockRequest, error)
}

type logbookRepo interface {
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (domain.Logbook, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.LogbookStatus, at time.Time) error
	SetSectionsLocked(ctx context.Context, logbookID uuid.UUID, locked bool) error
}

type auditRepo interface {
	Append(ctx context.Context, entry domain.AuditEntry) (domain.AuditEntry, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the unlock workflow business logic.
type Service struct {
	unlocks  unlockRepo
	logbooks logbookRepo
	audit    auditRepo
	tx       txManager
	notifier notify.Notifier
	cfg      config.UnlockConfig
	log      *slog.Logger
	now      func() time.Time

	// warned tracks requests already given an expiry warning in this process.
	warned sync.Map
}

// NewService creates a new unlock workflow service.
func NewService(
	log *slog.Logger,
	unlocks unlockRepo,
	logbooks logbookRepo,
	audit auditRepo,
	tx txManager,
	notifier notify.Notifier,
	cfg config.UnlockConfig,
) *Service {
	return &Service{
		unlocks:  unlocks,
		logbooks: logbooks,
		audit:    audit,
		tx:       tx,
		notifier: notifier,
		cfg:      cfg,
		log:      log.With("service", "unlock"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
