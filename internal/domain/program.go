package domain

import (
	"time"

	"github.com/google/uuid"
)

// MinDCCPerFTEYear is the minimum acceptable direct client contact rate,
// in hours per full-time-equivalent year, fixed by program rules.
const MinDCCPerFTEYear = 176.0

// RegistrarProgram is one trainee's program configuration plus live running
// totals. Totals are derived from approved hour records and never hand-edited.
type RegistrarProgram struct {
	ID        uuid.UUID
	TraineeID uuid.UUID

	// AoPE is the area of practice endorsement being pursued.
	AoPE string

	Tier        QualificationTier
	FTEFraction float64

	StartDate       time.Time
	ExpectedEndDate time.Time

	// WeeklyCommitment is the trainee's planned practice hours per week,
	// used for pacing projections.
	WeeklyCommitment float64

	Totals ProgramTotals

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProgramTotals holds the running hour totals for a program to date.
type ProgramTotals struct {
	Practice    float64 // DCC + CRA
	DCC         float64
	CRA         float64
	Development float64

	Supervision           float64
	SupervisionPrincipal  float64
	SupervisionIndividual float64
	SupervisionGroup      float64
	SupervisionShort      float64 // sessions under an hour

	ActiveDevelopment float64
}

// ProgramTargets fixes the cumulative hour targets for a qualification tier.
type ProgramTargets struct {
	Practice    float64
	Supervision float64
	Development float64
}

// tierTargets are the full-program hour requirements per qualification tier.
var tierTargets = map[QualificationTier]ProgramTargets{
	TierMasters:   {Practice: 3035, Supervision: 152, Development: 120},
	TierCombined:  {Practice: 2276, Supervision: 114, Development: 90},
	TierDoctorate: {Practice: 1517, Supervision: 76, Development: 60},
}

// TargetsFor returns the hour targets for a tier. Unknown tiers return
// zero targets, which the compliance engine treats as not-applicable.
func TargetsFor(tier QualificationTier) ProgramTargets {
	return tierTargets[tier]
}

// Validate checks the program configuration at creation time. A non-positive
// FTE fraction is rejected here, never tolerated silently downstream.
func (p *RegistrarProgram) Validate() error {
	var errs []FieldError
	if p.TraineeID == uuid.Nil {
		errs = append(errs, FieldError{Field: "trainee_id", Message: "is required"})
	}
	if !p.Tier.IsValid() {
		errs = append(errs, FieldError{Field: "tier", Message: "unknown qualification tier"})
	}
	if p.FTEFraction <= 0 || p.FTEFraction > 1 {
		errs = append(errs, FieldError{Field: "fte_fraction", Message: "must be in (0, 1]"})
	}
	if !p.ExpectedEndDate.After(p.StartDate) {
		errs = append(errs, FieldError{Field: "expected_end_date", Message: "must be after start date"})
	}
	if p.WeeklyCommitment < 0 {
		errs = append(errs, FieldError{Field: "weekly_commitment", Message: "must not be negative"})
	}
	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}
