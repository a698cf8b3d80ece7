// Package hourrecord implements the hour record repository using PostgreSQL.
package hourrecord

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
	"id", "owner_id", "logbook_id", "category", "duration_minutes", "date", "description",
	"supervision_mode", "principal_supervisor", "active_development",
	"created_at", "updated_at",
}

// Repo provides hour record persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new hour record repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create inserts one record.
func (r *Repo) Create(ctx context.Context, rec domain.HourRecord) (domain.HourRecord, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := builder.
		Insert("hour_records").
		Columns(columns...).
		Values(rec.ID, rec.OwnerID, rec.LogbookID, string(rec.Category), rec.DurationMinutes,
			rec.Date, rec.Description, supervisionModeArg(rec.SupervisionMode),
			rec.PrincipalSupervisor, rec.ActiveDevelopment, rec.CreatedAt, rec.UpdatedAt).
		ToSql()
	if err != nil {
		return domain.HourRecord{}, fmt.Errorf("build insert hour record: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return domain.HourRecord{}, postgres.MapError(err, "hour_record", rec.ID)
	}
	return rec, nil
}

// Update replaces the editable fields of a record.
func (r *Repo) Update(ctx context.Context, rec domain.HourRecord) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := builder.
		Update("hour_records").
		Set("category", string(rec.Category)).
		Set("duration_minutes", rec.DurationMinutes).
		Set("date", rec.Date).
		Set("description", rec.Description).
		Set("supervision_mode", supervisionModeArg(rec.SupervisionMode)).
		Set("principal_supervisor", rec.PrincipalSupervisor).
		Set("active_development", rec.ActiveDevelopment).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": rec.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update hour record: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "hour_record", rec.ID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("hour_record %s: %w", rec.ID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes one record.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := builder.Delete("hour_records").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete hour record: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "hour_record", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("hour_record %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// GetByID returns one record.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.HourRecord, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := builder.Select(columns...).From("hour_records").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.HourRecord{}, fmt.Errorf("build select hour record: %w", err)
	}

	rec, err := scanRecord(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return domain.HourRecord{}, postgres.MapError(err, "hour_record", id)
	}
	return rec, nil
}

// ListByLogbook returns a logbook's records in date order.
func (r *Repo) ListByLogbook(ctx context.Context, logbookID uuid.UUID) ([]domain.HourRecord, error) {
	return r.list(ctx, sq.Eq{"logbook_id": logbookID}, logbookID)
}

// ListByOwner returns all records for a trainee in date order. The
// compliance engine aggregates over this full history.
func (r *Repo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.HourRecord, error) {
	return r.list(ctx, sq.Eq{"owner_id": ownerID}, ownerID)
}

func (r *Repo) list(ctx context.Context, where sq.Eq, id uuid.UUID) ([]domain.HourRecord, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := builder.
		Select(columns...).
		From("hour_records").
		Where(where).
		OrderBy("date ASC", "created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list hour records: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, "hour_record", id)
	}
	defer rows.Close()

	var out []domain.HourRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan hour_record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRecord(row pgx.Row) (domain.HourRecord, error) {
	var rec domain.HourRecord
	var category string
	var mode *string
	err := row.Scan(
		&rec.ID, &rec.OwnerID, &rec.LogbookID, &category, &rec.DurationMinutes,
		&rec.Date, &rec.Description, &mode, &rec.PrincipalSupervisor, &rec.ActiveDevelopment,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return domain.HourRecord{}, err
	}
	rec.Category = domain.HourCategory(category)
	if mode != nil {
		m := domain.SupervisionMode(*mode)
		rec.SupervisionMode = &m
	}
	return rec, nil
}

func supervisionModeArg(m *domain.SupervisionMode) *string {
	if m == nil {
		return nil
	}
	s := string(*m)
	return &s
}
