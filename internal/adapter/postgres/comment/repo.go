// Package comment implements the comment repository using PostgreSQL.
// Comments are immutable once written; threads are assembled on read.
package comment

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/praxislog/logbook-backend/internal/adapter/postgres"
	"github.com/praxislog/logbook-backend/internal/domain"
)

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var columns = []string{
	"id", "logbook_id", "author_id", "scope", "section_id", "record_id", "parent_id", "text", "created_at",
}

// Repo provides comment persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new comment repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create inserts one comment.
func (r *Repo) Create(ctx context.Context, c domain.Comment) (domain.Comment, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := builder.
		Insert("comments").
		Columns(columns...).
		Values(c.ID, c.LogbookID, c.AuthorID, string(c.Scope), c.SectionID, c.RecordID, c.ParentID, c.Text, c.CreatedAt).
		ToSql()
	if err != nil {
		return domain.Comment{}, fmt.Errorf("build insert comment: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return domain.Comment{}, postgres.MapError(err, "comment", c.ID)
	}
	return c, nil
}

// GetByID returns one comment without its replies.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.Comment, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := builder.
		Select(columns...).
		From("comments").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Comment{}, fmt.Errorf("build select comment: %w", err)
	}

	c, err := scanComment(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return domain.Comment{}, postgres.MapError(err, "comment", id)
	}
	return c, nil
}

// ListByLogbook returns the logbook's comments as threads: root comments
// oldest-first, each carrying its replies oldest-first.
func (r *Repo) ListByLogbook(ctx context.Context, logbookID uuid.UUID) ([]domain.Comment, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := builder.
		Select(columns...).
		From("comments").
		Where(sq.Eq{"logbook_id": logbookID}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list comments: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, "comment", logbookID)
	}
	defer rows.Close()

	var flat []domain.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		flat = append(flat, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return assembleThreads(flat), nil
}

// assembleThreads rebuilds shallow threads from a flat chronological list.
// Replies whose root is missing (deleted logbook section cascade) are dropped.
func assembleThreads(flat []domain.Comment) []domain.Comment {
	roots := make([]domain.Comment, 0, len(flat))
	index := make(map[uuid.UUID]int, len(flat))

	for _, c := range flat {
		if c.ParentID == nil {
			roots = append(roots, c)
			index[c.ID] = len(roots) - 1
		}
	}
	for _, c := range flat {
		if c.ParentID == nil {
			continue
		}
		if i, ok := index[*c.ParentID]; ok {
			roots[i].Children = append(roots[i].Children, c)
		}
	}
	return roots
}

func scanComment(row pgx.Row) (domain.Comment, error) {
	var c domain.Comment
	var scope string
	err := row.Scan(&c.ID, &c.LogbookID, &c.AuthorID, &scope, &c.SectionID, &c.RecordID, &c.ParentID, &c.Text, &c.CreatedAt)
	if err != nil {
		return domain.Comment{}, err
	}
	c.Scope = domain.CommentScope(scope)
	return c, nil
}
