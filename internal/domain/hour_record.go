package domain

import (
	"time"

	"github.com/google/uuid"
)

// ShortSessionMinutes is the threshold under which a supervision session
// counts as a short session for composition purposes.
const ShortSessionMinutes = 60

// HourRecord is one typed hour entry in the input feed. Creation and editing
// of records belongs to the entry screens; this subsystem reads them for
// aggregation and caches per-week totals on the logbook.
type HourRecord struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	LogbookID uuid.UUID

	Category        HourCategory
	DurationMinutes int
	Date            time.Time
	Description     string

	// Supervision attributes. Meaningful only when Category is supervision.
	SupervisionMode *SupervisionMode
	// PrincipalSupervisor marks sessions with the trainee's principal
	// supervisor as opposed to a secondary one.
	PrincipalSupervisor bool

	// ActiveDevelopment marks CPD hours that are active (workshops,
	// case presentations) rather than passive reading.
	ActiveDevelopment bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Hours returns the record duration in fractional hours.
func (r *HourRecord) Hours() float64 {
	return float64(r.DurationMinutes) / 60.0
}

// IsShortSupervision reports whether the record is a supervision session
// under the short-session threshold.
func (r *HourRecord) IsShortSupervision() bool {
	return r.Category == HourCategorySupervision && r.DurationMinutes < ShortSessionMinutes
}

// Validate checks an incoming hour record.
func (r *HourRecord) Validate() error {
	var errs []FieldError
	if r.OwnerID == uuid.Nil {
		errs = append(errs, FieldError{Field: "owner_id", Message: "is required"})
	}
	if !r.Category.IsValid() {
		errs = append(errs, FieldError{Field: "category", Message: "unknown category"})
	}
	if r.DurationMinutes <= 0 {
		errs = append(errs, FieldError{Field: "duration_minutes", Message: "must be positive"})
	}
	if r.Date.IsZero() {
		errs = append(errs, FieldError{Field: "date", Message: "is required"})
	}
	if r.Category == HourCategorySupervision {
		if r.SupervisionMode == nil || !r.SupervisionMode.IsValid() {
			errs = append(errs, FieldError{Field: "supervision_mode", Message: "required for supervision records"})
		}
	} else if r.SupervisionMode != nil {
		errs = append(errs, FieldError{Field: "supervision_mode", Message: "only valid for supervision records"})
	}
	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}
