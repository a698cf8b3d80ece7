// Package auditlog implements the append-only audit trail repository.
// There is no update or delete here on purpose.
package auditlog

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/praxislog/logbook-backend/internal/adapter/postgres"
	"github.com/praxislog/logbook-backend/internal/domain"
)

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var columns = []string{
	"id", "logbook_id", "actor_id", "action", "description", "diff", "created_at",
}

// Repo provides audit trail persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new audit trail repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Append inserts one audit entry. Callers run this inside the same
// transaction as the state change it records; a failed append must abort
// that transaction.
func (r *Repo) Append(ctx context.Context, entry domain.AuditEntry) (domain.AuditEntry, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := builder.
		Insert("audit_log").
		Columns(columns...).
		Values(entry.ID, entry.LogbookID, entry.ActorID, string(entry.Action), entry.Description, entry.Diff, entry.CreatedAt).
		ToSql()
	if err != nil {
		return domain.AuditEntry{}, fmt.Errorf("build insert audit entry: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return domain.AuditEntry{}, postgres.MapError(err, "audit_entry", entry.ID)
	}
	return entry, nil
}

// ListByLogbook returns the full trail for a logbook in chronological order.
// The id tiebreak keeps same-timestamp entries in a stable order.
func (r *Repo) ListByLogbook(ctx context.Context, logbookID uuid.UUID, limit, offset int) ([]domain.AuditEntry, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := builder.
		Select(columns...).
		From("audit_log").
		Where(sq.Eq{"logbook_id": logbookID}).
		OrderBy("created_at ASC", "id ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list audit entries: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, "audit_entry", logbookID)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var action string
		if err := rows.Scan(&e.ID, &e.LogbookID, &e.ActorID, &action, &e.Description, &e.Diff, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit_entry: %w", err)
		}
		e.Action = domain.AuditAction(action)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountByLogbook returns the number of trail entries for a logbook.
func (r *Repo) CountByLogbook(ctx context.Context, logbookID uuid.UUID) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := builder.
		Select("count(*)").
		From("audit_log").
		Where(sq.Eq{"logbook_id": logbookID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count audit entries: %w", err)
	}

	var n int
	if err := q.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, postgres.MapError(err, "audit_entry", logbookID)
	}
	return n, nil
}
