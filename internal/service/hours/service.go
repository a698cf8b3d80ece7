// Package hours implements the hour record entry feed. Every mutation
// refreshes the cached week totals on the logbook and the cumulative totals
// on the trainee's program in the same transaction, then drops the trainee's
// compliance snapshot from cache.
package hours

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/praxislog/logbook-backend/internal/domain"
	"github.com/praxislog/logbook-backend/internal/service/compliance"
	"github.com/praxislog/logbook-backend/pkg/ctxutil"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type hourRecordRepo interface {
	Create(ctx context.Context, rec domain.HourRecord) (domain.HourRecord, error)
	Update(ctx context.Context, rec domain.HourRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.HourRecord, error)
	ListByLogbook(ctx context.Context, logbookID uuid.UUID) ([]domain.HourRecord, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.HourRecord, error)
}

type logbookRepo interface {
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (domain.Logbook, error)
	UpdateTotals(ctx context.Context, id uuid.UUID, totals domain.HourTotals) error
}

type programRepo interface {
	GetByTrainee(ctx context.Context, traineeID uuid.UUID) (domain.RegistrarProgram, error)
	UpdateTotals(ctx context.Context, id uuid.UUID, totals domain.ProgramTotals) error
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

// snapshotCache invalidates cached compliance snapshots.
type snapshotCache interface {
	Invalidate(programID uuid.UUID)
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements hour record business logic.
type Service struct {
	records  hourRecordRepo
	logbooks logbookRepo
	programs programRepo
	unlocks  unlockRepo
	audit    auditRepo
	tx       txManager
	cache    snapshotCache
	log      *slog.Logger
	now      func() time.Time
}

// NewService creates a new hours service.
func NewService(
	log *slog.Logger,
	records hourRecordRepo,
	logbooks logbookRepo,
	programs programRepo,
	unlocks unlockRepo,
	audit auditRepo,
	tx txManager,
	cache snapshotCache,
) *Service {
	return &Service{
		records:  records,
		logbooks: logbooks,
		programs: programs,
		unlocks:  unlocks,
		audit:    audit,
		tx:       tx,
		cache:    cache,
		log:      log.With("service", "hours"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput describes one new hour record.
type CreateInput struct {
	LogbookID           uuid.UUID
	Category            domain.HourCategory
	DurationMinutes     int
	Date                time.Time
	Description         string
	SupervisionMode     *domain.SupervisionMode
	PrincipalSupervisor bool
	ActiveDevelopment   bool
}

// Create adds an hour record to an editable logbook.
func (s *Service) Create(ctx context.Context, in CreateInput) (domain.HourRecord, error) {
	actorID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.HourRecord{}, domain.ErrUnauthorized
	}

	now := s.now()
	var created domain.HourRecord
	var programID *uuid.UUID

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		lb, err := s.lockEditable(txCtx, in.LogbookID, actorID, now)
		if err != nil {
			return err
		}

		rec := domain.HourRecord{
			ID:                  uuid.New(),
			OwnerID:             lb.OwnerID,
			LogbookID:           lb.ID,
			Category:            in.Category,
			DurationMinutes:     in.DurationMinutes,
			Date:                in.Date,
			Description:         in.Description,
			SupervisionMode:     in.SupervisionMode,
			PrincipalSupervisor: in.PrincipalSupervisor,
			ActiveDevelopment:   in.ActiveDevelopment,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if err := rec.Validate(); err != nil {
			return err
		}

		created, err = s.records.Create(txCtx, rec)
		if err != nil {
			return fmt.Errorf("create hour record: %w", err)
		}

		programID, err = s.refreshTotals(txCtx, lb, now)
		if err != nil {
			return err
		}
		return s.appendAudit(txCtx, lb.ID, actorID, created.ID, "hour record added", now)
	})
	if err != nil {
		return domain.HourRecord{}, err
	}

	s.invalidate(programID)
	s.log.InfoContext(ctx, "hour record created", "logbook_id", created.LogbookID, "record_id", created.ID)
	return created, nil
}

// UpdateInput carries the mutable fields of an existing record.
type UpdateInput struct {
	RecordID            uuid.UUID
	Category            domain.HourCategory
	DurationMinutes     int
	Date                time.Time
	Description         string
	SupervisionMode     *domain.SupervisionMode
	PrincipalSupervisor bool
	ActiveDevelopment   bool
}

// Update rewrites an hour record in an editable logbook.
func (s *Service) Update(ctx context.Context, in UpdateInput) (domain.HourRecord, error) {
	actorID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.HourRecord{}, domain.ErrUnauthorized
	}

	now := s.now()
	var updated domain.HourRecord
	var programID *uuid.UUID

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		rec, err := s.records.GetByID(txCtx, in.RecordID)
		if err != nil {
			return fmt.Errorf("get hour record: %w", err)
		}

		lb, err := s.lockEditable(txCtx, rec.LogbookID, actorID, now)
		if err != nil {
			return err
		}

		rec.Category = in.Category
		rec.DurationMinutes = in.DurationMinutes
		rec.Date = in.Date
		rec.Description = in.Description
		rec.SupervisionMode = in.SupervisionMode
		rec.PrincipalSupervisor = in.PrincipalSupervisor
		rec.ActiveDevelopment = in.ActiveDevelopment
		rec.UpdatedAt = now
		if err := rec.Validate(); err != nil {
			return err
		}

		if err := s.records.Update(txCtx, rec); err != nil {
			return fmt.Errorf("update hour record: %w", err)
		}
		updated = rec

		programID, err = s.refreshTotals(txCtx, lb, now)
		if err != nil {
			return err
		}
		return s.appendAudit(txCtx, lb.ID, actorID, rec.ID, "hour record updated", now)
	})
	if err != nil {
		return domain.HourRecord{}, err
	}

	s.invalidate(programID)
	s.log.InfoContext(ctx, "hour record updated", "logbook_id", updated.LogbookID, "record_id", updated.ID)
	return updated, nil
}

// Delete removes an hour record from an editable logbook.
func (s *Service) Delete(ctx context.Context, recordID uuid.UUID) error {
	actorID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}

	now := s.now()
	var logbookID uuid.UUID
	var programID *uuid.UUID

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		rec, err := s.records.GetByID(txCtx, recordID)
		if err != nil {
			return fmt.Errorf("get hour record: %w", err)
		}

		lb, err := s.lockEditable(txCtx, rec.LogbookID, actorID, now)
		if err != nil {
			return err
		}
		logbookID = lb.ID

		if err := s.records.Delete(txCtx, recordID); err != nil {
			return fmt.Errorf("delete hour record: %w", err)
		}

		programID, err = s.refreshTotals(txCtx, lb, now)
		if err != nil {
			return err
		}
		return s.appendAudit(txCtx, lb.ID, actorID, recordID, "hour record removed", now)
	})
	if err != nil {
		return err
	}

	s.invalidate(programID)
	s.log.InfoContext(ctx, "hour record deleted", "logbook_id", logbookID, "record_id", recordID)
	return nil
}

// ListByLogbook returns the records of one logbook, oldest-first.
func (s *Service) ListByLogbook(ctx context.Context, logbookID uuid.UUID) ([]domain.HourRecord, error) {
	if _, ok := ctxutil.UserIDFromCtx(ctx); !ok {
		return nil, domain.ErrUnauthorized
	}
	out, err := s.records.ListByLogbook(ctx, logbookID)
	if err != nil {
		return nil, fmt.Errorf("list hour records: %w", err)
	}
	return out, nil
}

// lockEditable loads the logbook FOR UPDATE and verifies the actor may edit
// its content right now.
func (s *Service) lockEditable(ctx context.Context, logbookID, actorID uuid.UUID, now time.Time) (domain.Logbook, error) {
	lb, err := s.logbooks.GetByIDForUpdate(ctx, logbookID)
	if err != nil {
		return domain.Logbook{}, fmt.Errorf("get logbook: %w", err)
	}

	var active *domain.UnlockRequest
	if req, err := s.unlocks.GetOpenByLogbook(ctx, logbookID); err == nil {
		active = &req
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Logbook{}, fmt.Errorf("get open unlock request: %w", err)
	}

	viewer := domain.Viewer{ID: actorID, Role: domain.UserRole(ctxutil.UserRoleFromCtx(ctx))}
	caps := domain.ResolvePermissions(&lb, active, viewer, now)
	if !caps.CanEdit {
		return domain.Logbook{}, fmt.Errorf("edit hours of logbook %s: %w", lb.ID, domain.ErrForbidden)
	}
	return lb, nil
}

// refreshTotals re-derives the logbook's week totals and the owner's program
// totals from the authoritative record rows. Runs inside the mutation
// transaction so readers never see totals drift from the records.
func (s *Service) refreshTotals(ctx context.Context, lb domain.Logbook, now time.Time) (*uuid.UUID, error) {
	weekRecords, err := s.records.ListByLogbook(ctx, lb.ID)
	if err != nil {
		return nil, fmt.Errorf("list logbook records: %w", err)
	}
	if err := s.logbooks.UpdateTotals(ctx, lb.ID, sumWeek(weekRecords)); err != nil {
		return nil, fmt.Errorf("update logbook totals: %w", err)
	}

	prog, err := s.programs.GetByTrainee(ctx, lb.OwnerID)
	if err != nil {
		// Records can predate program configuration; the program totals
		// catch up on the first mutation after setup.
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get program: %w", err)
	}

	allRecords, err := s.records.ListByOwner(ctx, lb.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("list owner records: %w", err)
	}
	if err := s.programs.UpdateTotals(ctx, prog.ID, compliance.Aggregate(allRecords)); err != nil {
		return nil, fmt.Errorf("update program totals: %w", err)
	}
	return &prog.ID, nil
}

func (s *Service) appendAudit(ctx context.Context, logbookID, actorID, recordID uuid.UUID, desc string, now time.Time) error {
	_, err := s.audit.Append(ctx, domain.AuditEntry{
		ID:          uuid.New(),
		LogbookID:   logbookID,
		ActorID:     &actorID,
		Action:      domain.AuditEntryEdited,
		Description: desc,
		Diff:        map[string]any{"record_id": recordID.String()},
		CreatedAt:   now,
	})
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *Service) invalidate(programID *uuid.UUID) {
	if programID != nil {
		s.cache.Invalidate(*programID)
	}
}

// sumWeek projects the week's records onto the cached logbook totals.
func sumWeek(records []domain.HourRecord) domain.HourTotals {
	var t domain.HourTotals
	for i := range records {
		h := records[i].Hours()
		switch records[i].Category {
		case domain.HourCategoryDCC:
			t.DCC += h
		case domain.HourCategoryCRA:
			t.CRA += h
		case domain.HourCategoryDevelopment:
			t.Development += h
		case domain.HourCategorySupervision:
			t.Supervision += h
		}
	}
	return t
}
