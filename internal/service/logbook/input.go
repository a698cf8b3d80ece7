package logbook

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/praxislog/logbook-backend/internal/domain"
)

// TransitionInput carries one attempted lifecycle action.
type TransitionInput struct {
	LogbookID uuid.UUID
	Action    domain.TransitionAction
	// Comment is required for reject, optional otherwise. It lands in the
	// audit entry, not in a comment thread.
	Comment string
}

// Validate checks the input before any storage access. A rejection without a
// comment is refused here, never after the status has moved.
func (in TransitionInput) Validate() error {
	var errs []domain.FieldError
	if in.LogbookID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "logbook_id", Message: "is required"})
	}
	if !in.Action.IsValid() {
		errs = append(errs, domain.FieldError{Field: "action", Message: "unknown action"})
	}
	if in.Action == domain.ActionReject && strings.TrimSpace(in.Comment) == "" {
		errs = append(errs, domain.FieldError{Field: "comment", Message: "required when rejecting"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// CreateWeekInput creates a logbook for one week.
type CreateWeekInput struct {
	WeekStart    time.Time
	SupervisorID *uuid.UUID
}

// Validate checks that the week start is a Monday with no time-of-day part.
func (in CreateWeekInput) Validate() error {
	var errs []domain.FieldError
	if in.WeekStart.IsZero() {
		errs = append(errs, domain.FieldError{Field: "week_start", Message: "is required"})
	} else {
		if in.WeekStart.Weekday() != time.Monday {
			errs = append(errs, domain.FieldError{Field: "week_start", Message: "must be a Monday"})
		}
		if !in.WeekStart.Equal(in.WeekStart.Truncate(24 * time.Hour)) {
			errs = append(errs, domain.FieldError{Field: "week_start", Message: "must be a date without time"})
		}
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// UpdateSectionInput replaces a section's payload.
type UpdateSectionInput struct {
	LogbookID uuid.UUID
	SectionID uuid.UUID
	Content   map[string]any
}

// Validate rejects empty payloads; clearing a section is not an operation
// the entry screens need.
func (in UpdateSectionInput) Validate() error {
	var errs []domain.FieldError
	if in.LogbookID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "logbook_id", Message: "is required"})
	}
	if in.SectionID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "section_id", Message: "is required"})
	}
	if len(in.Content) == 0 {
		errs = append(errs, domain.FieldError{Field: "content", Message: "must not be empty"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}
