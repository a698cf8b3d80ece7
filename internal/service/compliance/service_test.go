package compliance

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/praxislog/logbook-backend/internal/config"
	"github.com/praxislog/logbook-backend/internal/domain"
	"github.com/praxislog/logbook-backend/pkg/ctxutil"
)

type programRepoMock struct {
	GetByIDFunc      func(ctx context.Context, id uuid.UUID) (domain.RegistrarProgram, error)
	GetByTraineeFunc func(ctx context.Context, traineeID uuid.UUID) (domain.RegistrarProgram, error)
}

func (m *programRepoMock) GetByID(ctx context.Context, id uuid.UUID) (domain.RegistrarProgram, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *programRepoMock) GetByTrainee(ctx context.Context, traineeID uuid.UUID) (domain.RegistrarProgram, error) {
	return m.GetByTraineeFunc(ctx, traineeID)
}

type hourRecordRepoMock struct {
	ListByOwnerFunc func(ctx context.Context, ownerID uuid.UUID) ([]domain.HourRecord, error)

	calls int
}

func (m *hourRecordRepoMock) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.HourRecord, error) {
	m.calls++
	return m.ListByOwnerFunc(ctx, ownerID)
}

func traineeCtx(id uuid.UUID) context.Context {
	ctx := ctxutil.WithUserID(context.Background(), id)
	return ctxutil.WithUserRole(ctx, string(domain.UserRoleTrainee))
}

func newCachedService(programs *programRepoMock, records *hourRecordRepoMock) *Service {
	cache, _ := lru.New[uuid.UUID, Snapshot](8)
	return &Service{
		programs: programs,
		records:  records,
		cache:    cache,
		cfg: config.ComplianceConfig{
			WarningBandPoints: testBand,
			AmberFloorPercent: testAmberFloor,
			SnapshotCacheSize: 8,
		},
		log: slog.Default(),
		now: func() time.Time { return calcNow },
	}
}

func TestService_ComputeForProgram_CachesUntilInvalidated(t *testing.T) {
	t.Parallel()

	prog := testProgram(domain.TierMasters, 1.0)
	mockPrograms := &programRepoMock{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (domain.RegistrarProgram, error) {
			return prog, nil
		},
	}
	mockRecords := &hourRecordRepoMock{
		ListByOwnerFunc: func(ctx context.Context, ownerID uuid.UUID) ([]domain.HourRecord, error) {
			return []domain.HourRecord{
				hourRecord(domain.HourCategoryDCC, 120, calcNow.AddDate(0, -1, 0)),
			}, nil
		},
	}
	s := newCachedService(mockPrograms, mockRecords)
	ctx := traineeCtx(prog.TraineeID)

	first, err := s.ComputeForProgram(ctx, prog.ID)
	if err != nil {
		t.Fatalf("ComputeForProgram() error = %v", err)
	}
	second, err := s.ComputeForProgram(ctx, prog.ID)
	if err != nil {
		t.Fatalf("second ComputeForProgram() error = %v", err)
	}
	if mockRecords.calls != 1 {
		t.Errorf("record fetches = %d, want 1 (second read from cache)", mockRecords.calls)
	}
	if first.GeneratedAt != second.GeneratedAt {
		t.Error("cached snapshot differs from the computed one")
	}

	s.Invalidate(prog.ID)
	if _, err := s.ComputeForProgram(ctx, prog.ID); err != nil {
		t.Fatalf("ComputeForProgram() after invalidate error = %v", err)
	}
	if mockRecords.calls != 2 {
		t.Errorf("record fetches = %d, want 2 after invalidation", mockRecords.calls)
	}
}

func TestService_ComputeForProgram_StrangerForbidden(t *testing.T) {
	t.Parallel()

	prog := testProgram(domain.TierMasters, 1.0)
	mockPrograms := &programRepoMock{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (domain.RegistrarProgram, error) {
			return prog, nil
		},
	}
	mockRecords := &hourRecordRepoMock{
		ListByOwnerFunc: func(ctx context.Context, ownerID uuid.UUID) ([]domain.HourRecord, error) {
			return nil, nil
		},
	}
	s := newCachedService(mockPrograms, mockRecords)

	// Warm the cache as the trainee, then read as a stranger. The cache must
	// not bypass authorization.
	if _, err := s.ComputeForProgram(traineeCtx(prog.TraineeID), prog.ID); err != nil {
		t.Fatalf("warmup error = %v", err)
	}
	_, err := s.ComputeForProgram(traineeCtx(uuid.New()), prog.ID)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("ComputeForProgram() error = %v, want forbidden", err)
	}
}

func TestService_ComputeForTrainee_StrangerForbidden(t *testing.T) {
	t.Parallel()

	s := newCachedService(&programRepoMock{}, &hourRecordRepoMock{})

	_, err := s.ComputeForTrainee(traineeCtx(uuid.New()), uuid.New())
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("ComputeForTrainee() error = %v, want forbidden", err)
	}
}

func TestService_ComputeForTrainee_Unauthorized(t *testing.T) {
	t.Parallel()

	s := newCachedService(&programRepoMock{}, &hourRecordRepoMock{})

	_, err := s.ComputeForTrainee(context.Background(), uuid.New())
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("ComputeForTrainee() error = %v, want unauthorized", err)
	}
}
