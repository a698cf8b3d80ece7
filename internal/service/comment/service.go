// Package comment implements logbook discussion threads. Comments stay
// writable regardless of the logbook's lock state and are immutable once
// posted; corrections are new comments.
package comment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/praxislog/logbook-backend/internal/domain"
	"github.com/praxislog/logbook-backend/internal/notify"
	"github.com/praxislog/logbook-backend/pkg/ctxutil"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type commentRepo interface {
	Create(ctx context.Context, c domain.Comment) (domain.Comment, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Comment, error)
	ListByLogbook(ctx context.Context, logbookID uuid.UUID) ([]domain.Comment, error)
}

type logbookRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Logbook, error)
}

type auditRepo interface {
	Append(ctx context.Context, entry domain.AuditEntry) (domain.AuditEntry, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the comment thread business logic.
type Service struct {
	comments commentRepo
	logbooks logbookRepo
	audit    auditRepo
	tx       txManager
	notifier notify.Notifier
	log      *slog.Logger
	now      func() time.Time
}

// NewService creates a new comment service.
func NewService(
	log *slog.Logger,
	comments commentRepo,
	logbooks logbookRepo,
	audit auditRepo,
	tx txManager,
	notifier notify.Notifier,
) *Service {
	return &Service{
		comments: comments,
		logbooks: logbooks,
		audit:    audit,
		tx:       tx,
		notifier: notifier,
		log:      log.With("service", "comment"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AddInput posts one comment.
type AddInput struct {
	LogbookID uuid.UUID
	Text      string
	Scope     domain.CommentScope
	SectionID *uuid.UUID
	RecordID  *uuid.UUID
	ParentID  *uuid.UUID
}

// Validate checks scope/target consistency: a section comment names a
// section, a record comment names a record, a document comment names
// neither.
func (in AddInput) Validate() error {
	var errs []domain.FieldError
	if in.LogbookID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "logbook_id", Message: "is required"})
	}
	if strings.TrimSpace(in.Text) == "" {
		errs = append(errs, domain.FieldError{Field: "text", Message: "is required"})
	}
	switch in.Scope {
	case domain.ScopeSection:
		if in.SectionID == nil {
			errs = append(errs, domain.FieldError{Field: "section_id", Message: "required for section scope"})
		}
		if in.RecordID != nil {
			errs = append(errs, domain.FieldError{Field: "record_id", Message: "not allowed for section scope"})
		}
	case domain.ScopeRecord:
		if in.RecordID == nil {
			errs = append(errs, domain.FieldError{Field: "record_id", Message: "required for record scope"})
		}
		if in.SectionID != nil {
			errs = append(errs, domain.FieldError{Field: "section_id", Message: "not allowed for record scope"})
		}
	case domain.ScopeDocument:
		if in.SectionID != nil || in.RecordID != nil {
			errs = append(errs, domain.FieldError{Field: "scope", Message: "document scope takes no target"})
		}
	default:
		errs = append(errs, domain.FieldError{Field: "scope", Message: "unknown scope"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// Add posts a comment. The logbook's lock state is deliberately not
// consulted: review discussion must be possible on immutable records.
// Threading is shallow; replying to a reply is refused.
func (s *Service) Add(ctx context.Context, in AddInput) (domain.Comment, error) {
	authorID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.Comment{}, domain.ErrUnauthorized
	}
	if err := in.Validate(); err != nil {
		return domain.Comment{}, err
	}

	now := s.now()
	var created domain.Comment

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		lb, err := s.logbooks.GetByID(txCtx, in.LogbookID)
		if err != nil {
			return fmt.Errorf("get logbook: %w", err)
		}
		if authorID != lb.OwnerID && !lb.IsSupervisor(authorID) && !ctxutil.IsAdminCtx(txCtx) {
			return fmt.Errorf("comment on logbook %s: %w", lb.ID, domain.ErrForbidden)
		}

		if in.ParentID != nil {
			parent, err := s.comments.GetByID(txCtx, *in.ParentID)
			if err != nil {
				return fmt.Errorf("get parent comment: %w", err)
			}
			if parent.LogbookID != lb.ID {
				return domain.NewValidationError("parent_id", "parent belongs to another logbook")
			}
			if parent.IsReply() {
				return domain.NewValidationError("parent_id", "replies cannot be replied to")
			}
		}

		created, err = s.comments.Create(txCtx, domain.Comment{
			ID:        uuid.New(),
			LogbookID: lb.ID,
			AuthorID:  authorID,
			Scope:     in.Scope,
			SectionID: in.SectionID,
			RecordID:  in.RecordID,
			ParentID:  in.ParentID,
			Text:      in.Text,
			CreatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("create comment: %w", err)
		}

		_, err = s.audit.Append(txCtx, domain.AuditEntry{
			ID:          uuid.New(),
			LogbookID:   lb.ID,
			ActorID:     &authorID,
			Action:      domain.AuditCommentAdded,
			Description: fmt.Sprintf("comment added (%s scope)", in.Scope),
			Diff:        map[string]any{"comment_id": created.ID.String()},
			CreatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("append audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Comment{}, err
	}

	s.notifier.Publish(ctx, notify.Event{
		Kind:       notify.EventCommentAdded,
		LogbookID:  created.LogbookID,
		ActorID:    &authorID,
		OccurredAt: now,
		Payload:    map[string]any{"comment_id": created.ID.String(), "scope": string(in.Scope)},
	})

	s.log.InfoContext(ctx, "comment added", "logbook_id", created.LogbookID, "comment_id", created.ID)
	return created, nil
}

// List returns the logbook's threads, roots oldest-first with replies
// oldest-first.
func (s *Service) List(ctx context.Context, logbookID uuid.UUID) ([]domain.Comment, error) {
	viewerID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	lb, err := s.logbooks.GetByID(ctx, logbookID)
	if err != nil {
		return nil, fmt.Errorf("get logbook: %w", err)
	}
	if viewerID != lb.OwnerID && !lb.IsSupervisor(viewerID) && !ctxutil.IsAdminCtx(ctx) {
		return nil, fmt.Errorf("comments on logbook %s: %w", lb.ID, domain.ErrForbidden)
	}

	out, err := s.comments.ListByLogbook(ctx, logbookID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return out, nil
}
