// Package unlockreq implements the unlock request repository using PostgreSQL.
// A partial unique index keeps at most one open request per logbook; the
// expiry sweep uses a conditional update so only one sweeper wins per row.
package unlockreq

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
	"id", "logbook_id", "requested_by", "reason", "status",
	"requested_at", "resolved_by", "granted_at", "unlock_expires_at", "duration_minutes",
}

// Repo provides unlock request persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new unlock request repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create inserts a pending request. The partial unique index turns a
// concurrent duplicate into domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, req domain.UnlockRequest) (domain.UnlockRequest, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := builder.
		Insert("unlock_requests").
		Columns("id", "logbook_id", "requested_by", "reason", "status", "requested_at", "duration_minutes").
		Values(req.ID, req.LogbookID, req.RequestedBy, req.Reason, string(req.Status), req.RequestedAt, req.DurationMinutes).
		ToSql()
	if err != nil {
		return domain.UnlockRequest{}, fmt.Errorf("build insert unlock request: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return domain.UnlockRequest{}, postgres.MapError(err, "unlock_request", req.ID)
	}
	return req, nil
}

// GetByID returns one request.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.UnlockRequest, error) {
	return r.getOne(ctx, sq.Eq{"id": id}, id, false)
}

// GetByIDForUpdate returns one request, locking its row. Only meaningful
// inside a transaction.
func (r *Repo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (domain.UnlockRequest, error) {
	return r.getOne(ctx, sq.Eq{"id": id}, id, true)
}

// GetOpenByLogbook returns the logbook's open (pending or granted) request,
// or domain.ErrNotFound. Lazy expiry is the caller's concern: a granted row
// past its window is still returned here.
func (r *Repo) GetOpenByLogbook(ctx context.Context, logbookID uuid.UUID) (domain.UnlockRequest, error) {
	return r.getOne(ctx, sq.Eq{
		"logbook_id": logbookID,
		"status":     []string{string(domain.UnlockPending), string(domain.UnlockGranted)},
	}, logbookID, false)
}

func (r *Repo) getOne(ctx context.Context, where sq.Eq, id uuid.UUID, forUpdate bool) (domain.UnlockRequest, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sel := builder.Select(columns...).From("unlock_requests").Where(where)
	if forUpdate {
		sel = sel.Suffix("FOR UPDATE")
	}

	sql, args, err := sel.ToSql()
	if err != nil {
		return domain.UnlockRequest{}, fmt.Errorf("build select unlock request: %w", err)
	}

	req, err := scanRequest(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return domain.UnlockRequest{}, postgres.MapError(err, "unlock_request", id)
	}
	return req, nil
}

// Grant resolves a pending request as granted with an expiry window. Losing
// a race with another resolver returns domain.ErrConflict.
func (r *Repo) Grant(ctx context.Context, id, resolvedBy uuid.UUID, grantedAt, expiresAt time.Time, durationMinutes int) error {
	return r.resolve(ctx, id, builder.
		Update("unlock_requests").
		Set("status", string(domain.UnlockGranted)).
		Set("resolved_by", resolvedBy).
		Set("granted_at", grantedAt).
		Set("unlock_expires_at", expiresAt).
		Set("duration_minutes", durationMinutes).
		Where(sq.Eq{"id": id, "status": string(domain.UnlockPending)}))
}

// Deny resolves a pending request as denied.
func (r *Repo) Deny(ctx context.Context, id, resolvedBy uuid.UUID) error {
	return r.resolve(ctx, id, builder.
		Update("unlock_requests").
		Set("status", string(domain.UnlockDenied)).
		Set("resolved_by", resolvedBy).
		Where(sq.Eq{"id": id, "status": string(domain.UnlockPending)}))
}

func (r *Repo) resolve(ctx context.Context, id uuid.UUID, upd sq.UpdateBuilder) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := upd.ToSql()
	if err != nil {
		return fmt.Errorf("build resolve unlock request: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "unlock_request", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("unlock_request %s: no longer pending: %w", id, domain.ErrConflict)
	}
	return nil
}

// ListExpiredGrants returns granted requests whose window has passed.
func (r *Repo) ListExpiredGrants(ctx context.Context, now time.Time, limit int) ([]domain.UnlockRequest, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := builder.
		Select(columns...).
		From("unlock_requests").
		Where(sq.Eq{"status": string(domain.UnlockGranted)}).
		Where(sq.Lt{"unlock_expires_at": now}).
		OrderBy("unlock_expires_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list expired grants: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list expired grants: %w", err)
	}
	defer rows.Close()

	var out []domain.UnlockRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan unlock_request: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// ListGrantsExpiringBetween returns granted requests whose window ends inside
// (from, until]. The sweeper uses this for expiry warnings.
func (r *Repo) ListGrantsExpiringBetween(ctx context.Context, from, until time.Time) ([]domain.UnlockRequest, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := builder.
		Select(columns...).
		From("unlock_requests").
		Where(sq.Eq{"status": string(domain.UnlockGranted)}).
		Where(sq.Gt{"unlock_expires_at": from}).
		Where(sq.LtOrEq{"unlock_expires_at": until}).
		OrderBy("unlock_expires_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list expiring grants: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list expiring grants: %w", err)
	}
	defer rows.Close()

	var out []domain.UnlockRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan unlock_request: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// MarkExpired flips a granted request to expired, but only if its window has
// actually passed. Reports whether this call did the flip.
func (r *Repo) MarkExpired(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := builder.
		Update("unlock_requests").
		Set("status", string(domain.UnlockExpired)).
		Where(sq.Eq{"id": id, "status": string(domain.UnlockGranted)}).
		Where(sq.Lt{"unlock_expires_at": now}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build mark expired: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return false, postgres.MapError(err, "unlock_request", id)
	}
	return tag.RowsAffected() > 0, nil
}

// ListByLogbook returns the logbook's full request history, newest first.
func (r *Repo) ListByLogbook(ctx context.Context, logbookID uuid.UUID) ([]domain.UnlockRequest, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := builder.
		Select(columns...).
		From("unlock_requests").
		Where(sq.Eq{"logbook_id": logbookID}).
		OrderBy("requested_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list unlock requests: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, "unlock_request", logbookID)
	}
	defer rows.Close()

	var out []domain.UnlockRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan unlock_request: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func scanRequest(row pgx.Row) (domain.UnlockRequest, error) {
	var req domain.UnlockRequest
	var status string
	err := row.Scan(
		&req.ID, &req.LogbookID, &req.RequestedBy, &req.Reason, &status,
		&req.RequestedAt, &req.ResolvedBy, &req.GrantedAt, &req.UnlockExpiresAt, &req.DurationMinutes,
	)
	if err != nil {
		return domain.UnlockRequest{}, err
	}
	req.Status = domain.UnlockStatus(status)
	return req, nil
}
