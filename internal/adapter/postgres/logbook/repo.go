// Package logbook implements the logbook repository using PostgreSQL.
// Status updates are compare-and-set on the expected current status so that
// concurrent transitions cannot both win.
package logbook

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

var logbookColumns = []string{
	"id", "owner_id", "supervisor_id", "week_start", "status",
	"total_dcc", "total_cra", "total_development", "total_supervision",
	"created_at", "updated_at", "submitted_at", "approved_at",
}

var sectionColumns = []string{
	"id", "logbook_id", "section_type", "content", "is_locked", "created_at", "updated_at",
}

// Repo provides logbook and section persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new logbook repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create inserts a logbook together with its three empty sections.
func (r *Repo) Create(ctx context.Context, lb domain.Logbook) (domain.Logbook, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := builder.
		Insert("logbooks").
		Columns("id", "owner_id", "supervisor_id", "week_start", "status", "created_at", "updated_at").
		Values(lb.ID, lb.OwnerID, lb.SupervisorID, lb.WeekStart, string(lb.Status), lb.CreatedAt, lb.UpdatedAt).
		ToSql()
	if err != nil {
		return domain.Logbook{}, fmt.Errorf("build insert logbook: %w", err)
	}
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return domain.Logbook{}, postgres.MapError(err, "logbook", lb.ID)
	}

	lb.Sections = make([]domain.LogbookSection, 0, 3)
	for _, st := range []domain.SectionType{domain.SectionPractice, domain.SectionDevelopment, domain.SectionSupervision} {
		sec := domain.LogbookSection{
			ID:        uuid.New(),
			LogbookID: lb.ID,
			Type:      st,
			Content:   map[string]any{},
			CreatedAt: lb.CreatedAt,
			UpdatedAt: lb.CreatedAt,
		}
		sql, args, err := builder.
			Insert("logbook_sections").
			Columns("id", "logbook_id", "section_type", "content", "is_locked", "created_at", "updated_at").
			Values(sec.ID, sec.LogbookID, string(sec.Type), sec.Content, sec.IsLocked, sec.CreatedAt, sec.UpdatedAt).
			ToSql()
		if err != nil {
			return domain.Logbook{}, fmt.Errorf("build insert section: %w", err)
		}
		if _, err := q.Exec(ctx, sql, args...); err != nil {
			return domain.Logbook{}, postgres.MapError(err, "logbook_section", sec.ID)
		}
		lb.Sections = append(lb.Sections, sec)
	}

	return lb, nil
}

// GetByID returns a logbook with its sections.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.Logbook, error) {
	return r.get(ctx, id, false)
}

// GetByIDForUpdate returns a logbook with its sections, locking the logbook
// row. Only meaningful inside a transaction.
func (r *Repo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (domain.Logbook, error) {
	return r.get(ctx, id, true)
}

func (r *Repo) get(ctx context.Context, id uuid.UUID, forUpdate bool) (domain.Logbook, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sel := builder.
		Select(logbookColumns...).
		From("logbooks").
		Where(sq.Eq{"id": id})
	if forUpdate {
		sel = sel.Suffix("FOR UPDATE")
	}

	sql, args, err := sel.ToSql()
	if err != nil {
		return domain.Logbook{}, fmt.Errorf("build select logbook: %w", err)
	}

	lb, err := scanLogbook(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return domain.Logbook{}, postgres.MapError(err, "logbook", id)
	}

	sections, err := r.sectionsByLogbook(ctx, q, id)
	if err != nil {
		return domain.Logbook{}, err
	}
	lb.Sections = sections

	return lb, nil
}

// GetByOwnerAndWeek returns the owner's logbook for a given week start.
func (r *Repo) GetByOwnerAndWeek(ctx context.Context, ownerID uuid.UUID, weekStart time.Time) (domain.Logbook, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := builder.
		Select(logbookColumns...).
		From("logbooks").
		Where(sq.Eq{"owner_id": ownerID, "week_start": weekStart}).
		ToSql()
	if err != nil {
		return domain.Logbook{}, fmt.Errorf("build select logbook by week: %w", err)
	}

	lb, err := scanLogbook(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return domain.Logbook{}, postgres.MapError(err, "logbook", ownerID)
	}

	sections, err := r.sectionsByLogbook(ctx, q, lb.ID)
	if err != nil {
		return domain.Logbook{}, err
	}
	lb.Sections = sections

	return lb, nil
}

// UpdateStatus moves a logbook from one status to another. The update only
// applies when the row still holds the expected status; losing the race
// returns domain.ErrConflict.
func (r *Repo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.LogbookStatus, at time.Time) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	upd := builder.
		Update("logbooks").
		Set("status", string(to)).
		Set("updated_at", at).
		Where(sq.Eq{"id": id, "status": string(from)})

	switch to {
	case domain.StatusSubmitted:
		upd = upd.Set("submitted_at", at)
	case domain.StatusApproved:
		upd = upd.Set("approved_at", at)
	}

	sql, args, err := upd.ToSql()
	if err != nil {
		return fmt.Errorf("build update logbook status: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "logbook", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("logbook %s: status is no longer %s: %w", id, from, domain.ErrConflict)
	}
	return nil
}

// UpdateTotals replaces the cached weekly hour totals.
func (r *Repo) UpdateTotals(ctx context.Context, id uuid.UUID, totals domain.HourTotals) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := builder.
		Update("logbooks").
		Set("total_dcc", totals.DCC).
		Set("total_cra", totals.CRA).
		Set("total_development", totals.Development).
		Set("total_supervision", totals.Supervision).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update logbook totals: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "logbook", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("logbook %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// SetSectionsLocked sets the lock flag on every section of a logbook.
func (r *Repo) SetSectionsLocked(ctx context.Context, logbookID uuid.UUID, locked bool) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := builder.
		Update("logbook_sections").
		Set("is_locked", locked).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"logbook_id": logbookID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update sections lock: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "logbook_section", logbookID)
	}
	return nil
}

// UpdateSectionContent replaces a section's payload.
func (r *Repo) UpdateSectionContent(ctx context.Context, sectionID uuid.UUID, content map[string]any) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := builder.
		Update("logbook_sections").
		Set("content", content).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": sectionID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update section content: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "logbook_section", sectionID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("logbook_section %s: %w", sectionID, domain.ErrNotFound)
	}
	return nil
}

// ListByOwner returns the owner's logbooks, newest week first. Sections are
// not loaded.
func (r *Repo) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]domain.Logbook, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := builder.
		Select(logbookColumns...).
		From("logbooks").
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("week_start DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list logbooks: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, "logbook", ownerID)
	}
	defer rows.Close()

	return collectLogbooks(rows)
}

// ListBySupervisor returns logbooks assigned to a supervisor, optionally
// filtered to one status. Used for the review queue.
func (r *Repo) ListBySupervisor(ctx context.Context, supervisorID uuid.UUID, status *domain.LogbookStatus, limit, offset int) ([]domain.Logbook, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sel := builder.
		Select(logbookColumns...).
		From("logbooks").
		Where(sq.Eq{"supervisor_id": supervisorID}).
		OrderBy("submitted_at ASC NULLS LAST, week_start DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))
	if status != nil {
		sel = sel.Where(sq.Eq{"status": string(*status)})
	}

	sql, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list logbooks by supervisor: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, "logbook", supervisorID)
	}
	defer rows.Close()

	return collectLogbooks(rows)
}

func (r *Repo) sectionsByLogbook(ctx context.Context, q postgres.Querier, logbookID uuid.UUID) ([]domain.LogbookSection, error) {
	sql, args, err := builder.
		Select(sectionColumns...).
		From("logbook_sections").
		Where(sq.Eq{"logbook_id": logbookID}).
		OrderBy("section_type ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select sections: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, "logbook_section", logbookID)
	}
	defer rows.Close()

	var sections []domain.LogbookSection
	for rows.Next() {
		var sec domain.LogbookSection
		var st string
		if err := rows.Scan(&sec.ID, &sec.LogbookID, &st, &sec.Content, &sec.IsLocked, &sec.CreatedAt, &sec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan logbook_section: %w", err)
		}
		sec.Type = domain.SectionType(st)
		sections = append(sections, sec)
	}
	return sections, rows.Err()
}

func scanLogbook(row pgx.Row) (domain.Logbook, error) {
	var lb domain.Logbook
	var status string
	err := row.Scan(
		&lb.ID, &lb.OwnerID, &lb.SupervisorID, &lb.WeekStart, &status,
		&lb.Totals.DCC, &lb.Totals.CRA, &lb.Totals.Development, &lb.Totals.Supervision,
		&lb.CreatedAt, &lb.UpdatedAt, &lb.SubmittedAt, &lb.ApprovedAt,
	)
	if err != nil {
		return domain.Logbook{}, err
	}
	lb.Status = domain.LogbookStatus(status)
	return lb, nil
}

func collectLogbooks(rows pgx.Rows) ([]domain.Logbook, error) {
	var out []domain.Logbook
	for rows.Next() {
		lb, err := scanLogbook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan logbook: %w", err)
		}
		out = append(out, lb)
	}
	return out, rows.Err()
}
