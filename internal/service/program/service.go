// Package program manages registrar program configuration.
package program

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/praxislog/logbook-backend/internal/domain"
	"github.com/praxislog/logbook-backend/pkg/ctxutil"
)

type programRepo interface {
	Create(ctx context.Context, p domain.RegistrarProgram) (domain.RegistrarProgram, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.RegistrarProgram, error)
	GetByTrainee(ctx context.Context, traineeID uuid.UUID) (domain.RegistrarProgram, error)
}

// Service implements program configuration business logic.
type Service struct {
	programs programRepo
	log      *slog.Logger
	now      func() time.Time
}

// NewService creates a new program service.
func NewService(log *slog.Logger, programs programRepo) *Service {
	return &Service{
		programs: programs,
		log:      log.With("service", "program"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput configures one trainee's program.
type CreateInput struct {
	TraineeID        uuid.UUID
	AoPE             string
	Tier             domain.QualificationTier
	FTEFraction      float64
	StartDate        time.Time
	ExpectedEndDate  time.Time
	WeeklyCommitment float64
}

// Create registers a program configuration. One program per trainee; program
// setup is an administrative action.
func (s *Service) Create(ctx context.Context, in CreateInput) (domain.RegistrarProgram, error) {
	if _, ok := ctxutil.UserIDFromCtx(ctx); !ok {
		return domain.RegistrarProgram{}, domain.ErrUnauthorized
	}
	if !ctxutil.IsAdminCtx(ctx) {
		return domain.RegistrarProgram{}, fmt.Errorf("create program: %w", domain.ErrForbidden)
	}

	now := s.now()
	prog := domain.RegistrarProgram{
		ID:               uuid.New(),
		TraineeID:        in.TraineeID,
		AoPE:             in.AoPE,
		Tier:             in.Tier,
		FTEFraction:      in.FTEFraction,
		StartDate:        in.StartDate,
		ExpectedEndDate:  in.ExpectedEndDate,
		WeeklyCommitment: in.WeeklyCommitment,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := prog.Validate(); err != nil {
		return domain.RegistrarProgram{}, err
	}

	created, err := s.programs.Create(ctx, prog)
	if err != nil {
		return domain.RegistrarProgram{}, fmt.Errorf("create program: %w", err)
	}

	s.log.InfoContext(ctx, "program created", "program_id", created.ID, "trainee_id", created.TraineeID)
	return created, nil
}

// Get returns a program by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.RegistrarProgram, error) {
	prog, err := s.programs.GetByID(ctx, id)
	if err != nil {
		return domain.RegistrarProgram{}, fmt.Errorf("get program: %w", err)
	}
	if err := s.authorizeRead(ctx, prog); err != nil {
		return domain.RegistrarProgram{}, err
	}
	return prog, nil
}

// GetByTrainee returns the trainee's program.
func (s *Service) GetByTrainee(ctx context.Context, traineeID uuid.UUID) (domain.RegistrarProgram, error) {
	prog, err := s.programs.GetByTrainee(ctx, traineeID)
	if err != nil {
		return domain.RegistrarProgram{}, fmt.Errorf("get program by trainee: %w", err)
	}
	if err := s.authorizeRead(ctx, prog); err != nil {
		return domain.RegistrarProgram{}, err
	}
	return prog, nil
}

func (s *Service) authorizeRead(ctx context.Context, prog domain.RegistrarProgram) error {
	viewerID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}
	if viewerID == prog.TraineeID || ctxutil.IsAdminCtx(ctx) {
		return nil
	}
	if domain.UserRole(ctxutil.UserRoleFromCtx(ctx)) == domain.UserRoleSupervisor {
		return nil
	}
	return fmt.Errorf("program %s: %w", prog.ID, domain.ErrForbidden)
}
