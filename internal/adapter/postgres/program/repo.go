// Package program implements the registrar program repository using
// PostgreSQL. Running totals live on the program row and are only ever
// replaced wholesale from a fresh aggregation.
package program

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/praxislog/logbook-backend/internal/adapter/postgres"
	"github.com/praxislog/logbook-backend/internal/domain"
)

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var columns = []string{
	"id", "trainee_id", "aope", "tier", "fte_fraction",
	"start_date", "expected_end_date", "weekly_commitment",
	"total_practice", "total_dcc", "total_cra", "total_development",
	"total_supervision", "total_supervision_principal", "total_supervision_individual",
	"total_supervision_group", "total_supervision_short", "total_active_development",
	"created_at", "updated_at",
}

// Repo provides registrar program persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new program repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create inserts a program. A trainee can hold only one; duplicates come
// back as domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, p domain.RegistrarProgram) (domain.RegistrarProgram, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := builder.
		Insert("registrar_programs").
		Columns("id", "trainee_id", "aope", "tier", "fte_fraction",
			"start_date", "expected_end_date", "weekly_commitment", "created_at", "updated_at").
		Values(p.ID, p.TraineeID, p.AoPE, string(p.Tier), p.FTEFraction,
			p.StartDate, p.ExpectedEndDate, p.WeeklyCommitment, p.CreatedAt, p.UpdatedAt).
		ToSql()
	if err != nil {
		return domain.RegistrarProgram{}, fmt.Errorf("build insert program: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return domain.RegistrarProgram{}, postgres.MapError(err, "registrar_program", p.ID)
	}
	return p, nil
}

// GetByID returns one program.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.RegistrarProgram, error) {
	return r.getOne(ctx, sq.Eq{"id": id}, id)
}

// GetByTrainee returns the trainee's program.
func (r *Repo) GetByTrainee(ctx context.Context, traineeID uuid.UUID) (domain.RegistrarProgram, error) {
	return r.getOne(ctx, sq.Eq{"trainee_id": traineeID}, traineeID)
}

func (r *Repo) getOne(ctx context.Context, where sq.Eq, id uuid.UUID) (domain.RegistrarProgram, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := builder.Select(columns...).From("registrar_programs").Where(where).ToSql()
	if err != nil {
		return domain.RegistrarProgram{}, fmt.Errorf("build select program: %w", err)
	}

	p, err := scanProgram(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return domain.RegistrarProgram{}, postgres.MapError(err, "registrar_program", id)
	}
	return p, nil
}

// UpdateTotals replaces the running totals for a program.
func (r *Repo) UpdateTotals(ctx context.Context, id uuid.UUID, totals domain.ProgramTotals) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := builder.
		Update("registrar_programs").
		Set("total_practice", totals.Practice).
		Set("total_dcc", totals.DCC).
		Set("total_cra", totals.CRA).
		Set("total_development", totals.Development).
		Set("total_supervision", totals.Supervision).
		Set("total_supervision_principal", totals.SupervisionPrincipal).
		Set("total_supervision_individual", totals.SupervisionIndividual).
		Set("total_supervision_group", totals.SupervisionGroup).
		Set("total_supervision_short", totals.SupervisionShort).
		Set("total_active_development", totals.ActiveDevelopment).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update program totals: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "registrar_program", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("registrar_program %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanProgram(row pgx.Row) (domain.RegistrarProgram, error) {
	var p domain.RegistrarProgram
	var tier string
	err := row.Scan(
		&p.ID, &p.TraineeID, &p.AoPE, &tier, &p.FTEFraction,
		&p.StartDate, &p.ExpectedEndDate, &p.WeeklyCommitment,
		&p.Totals.Practice, &p.Totals.DCC, &p.Totals.CRA, &p.Totals.Development,
		&p.Totals.Supervision, &p.Totals.SupervisionPrincipal, &p.Totals.SupervisionIndividual,
		&p.Totals.SupervisionGroup, &p.Totals.SupervisionShort, &p.Totals.ActiveDevelopment,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.RegistrarProgram{}, err
	}
	p.Tier = domain.QualificationTier(tier)
	return p, nil
}
