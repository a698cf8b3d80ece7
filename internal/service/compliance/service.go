// Package compliance implements the compliance engine: pure aggregation of a
// trainee's hour records against program targets, producing dashboard
// figures. The calculator itself is side-effect-free; this service adds
// record fetching and a bounded snapshot cache with explicit invalidation.
package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/praxislog/logbook-backend/internal/config"
	"github.com/praxislog/logbook-backend/internal/domain"
	"github.com/praxislog/logbook-backend/pkg/ctxutil"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type programRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.RegistrarProgram, error)
	GetByTrainee(ctx context.Context, traineeID uuid.UUID) (domain.RegistrarProgram, error)
}

type hourRecordRepo interface {
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.HourRecord, error)
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service computes and caches compliance snapshots.
type Service struct {
	programs programRepo
	records  hourRecordRepo
	cache    *lru.Cache[uuid.UUID, Snapshot]
	cfg      config.ComplianceConfig
	log      *slog.Logger
	now      func() time.Time
}

// NewService creates a new compliance service.
func NewService(
	log *slog.Logger,
	programs programRepo,
	records hourRecordRepo,
	cfg config.ComplianceConfig,
) (*Service, error) {
	cache, err := lru.New[uuid.UUID, Snapshot](cfg.SnapshotCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create snapshot cache: %w", err)
	}
	return &Service{
		programs: programs,
		records:  records,
		cache:    cache,
		cfg:      cfg,
		log:      log.With("service", "compliance"),
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// ComputeForProgram returns the program's compliance snapshot, from cache
// when the hour records have not changed since the last computation. Reads
// are lock-free and may see a slightly stale snapshot; that is acceptable
// for dashboards.
func (s *Service) ComputeForProgram(ctx context.Context, programID uuid.UUID) (Snapshot, error) {
	viewerID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return Snapshot{}, domain.ErrUnauthorized
	}

	prog, err := s.programs.GetByID(ctx, programID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("get program: %w", err)
	}
	if prog.TraineeID != viewerID && !ctxutil.IsAdminCtx(ctx) &&
		domain.UserRole(ctxutil.UserRoleFromCtx(ctx)) != domain.UserRoleSupervisor {
		return Snapshot{}, fmt.Errorf("program %s: %w", programID, domain.ErrForbidden)
	}

	if snap, ok := s.cache.Get(programID); ok {
		return snap, nil
	}
	return s.compute(ctx, prog)
}

// ComputeForTrainee resolves the trainee's program and computes from there.
func (s *Service) ComputeForTrainee(ctx context.Context, traineeID uuid.UUID) (Snapshot, error) {
	viewerID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return Snapshot{}, domain.ErrUnauthorized
	}
	if viewerID != traineeID && !ctxutil.IsAdminCtx(ctx) &&
		domain.UserRole(ctxutil.UserRoleFromCtx(ctx)) != domain.UserRoleSupervisor {
		return Snapshot{}, fmt.Errorf("trainee %s: %w", traineeID, domain.ErrForbidden)
	}

	prog, err := s.programs.GetByTrainee(ctx, traineeID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("get program: %w", err)
	}
	if snap, ok := s.cache.Get(prog.ID); ok {
		return snap, nil
	}
	return s.compute(ctx, prog)
}

func (s *Service) compute(ctx context.Context, prog domain.RegistrarProgram) (Snapshot, error) {
	records, err := s.records.ListByOwner(ctx, prog.TraineeID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list hour records: %w", err)
	}

	snap := Compute(Input{
		Program:           prog,
		Records:           records,
		Now:               s.now(),
		WarningBandPoints: s.cfg.WarningBandPoints,
		AmberFloorPercent: s.cfg.AmberFloorPercent,
	})
	s.cache.Add(prog.ID, snap)

	s.log.DebugContext(ctx, "compliance snapshot computed",
		"program_id", prog.ID,
		"records", len(records),
		"status", snap.SupervisionComposition.Status,
	)
	return snap, nil
}

// Invalidate drops the cached snapshot for a program. The hours service
// calls this on every record mutation.
func (s *Service) Invalidate(programID uuid.UUID) {
	s.cache.Remove(programID)
}
