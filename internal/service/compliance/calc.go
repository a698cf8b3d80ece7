package compliance

import (
	"math"
	"time"

	"github.com/praxislog/logbook-backend/internal/domain"
)

// Supervision composition thresholds, as percentages of total supervision
// hours (not of all hours).
const (
	PrincipalMinPercent  = 50.0
	IndividualMinPercent = 66.0
	GroupMaxPercent      = 33.0
	ShortMaxPercent      = 25.0
)

const daysPerYear = 365.25

// Input holds all data needed for a compliance computation. Pure value,
// assembled by the service from already-fetched records.
type Input struct {
	Program domain.RegistrarProgram
	Records []domain.HourRecord
	Now     time.Time

	// WarningBandPoints widens each composition threshold into a warning
	// band, in percentage points.
	WarningBandPoints float64
	// AmberFloorPercent is the prorated-progress percentage at which a
	// category turns amber instead of red.
	AmberFloorPercent float64
}

// Snapshot is the full output of one compliance computation.
type Snapshot struct {
	ProgramID   string    `json:"program_id"`
	GeneratedAt time.Time `json:"generated_at"`

	WeekTotals       domain.HourTotals    `json:"week_totals"`
	CumulativeTotals domain.ProgramTotals `json:"cumulative_totals"`

	Practice    CategoryProgress `json:"practice"`
	Supervision CategoryProgress `json:"supervision"`
	Development CategoryProgress `json:"development"`

	DCCPerFTEYear   float64 `json:"dcc_per_fte_year"`
	DCCRateRequired float64 `json:"dcc_rate_required"`
	DCCRateMet      bool    `json:"dcc_rate_met"`

	SupervisionComposition Composition `json:"supervision_composition"`

	Pacing Pacing `json:"pacing"`
}

// CategoryProgress is one category's progress against its full-program and
// prorated targets.
type CategoryProgress struct {
	Completed float64 `json:"completed"`
	Target    float64 `json:"target"`

	// Percent is completed/target, clamped to [0, 100] for display.
	// RawPercent is unclamped; pacing math uses it.
	Percent    float64 `json:"percent"`
	RawPercent float64 `json:"raw_percent"`

	// ProratedTarget is the share of the target due by now, by elapsed
	// program time. Light grades progress against it.
	ProratedTarget float64             `json:"prorated_target"`
	Light          domain.TrafficLight `json:"light"`
}

// Composition is the supervision hour mix and its compliance grading.
type Composition struct {
	TotalHours        float64 `json:"total_hours"`
	PrincipalPercent  float64 `json:"principal_percent"`
	IndividualPercent float64 `json:"individual_percent"`
	GroupPercent      float64 `json:"group_percent"`
	ShortPercent      float64 `json:"short_percent"`

	Status domain.ComplianceStatus `json:"status"`
}

// Pacing estimates whether the trainee finishes by the expected end date.
type Pacing struct {
	RemainingHours float64 `json:"remaining_hours"`
	// WeeksRemaining is remaining_hours / weekly_commitment; zero when the
	// commitment is unknown.
	WeeksRemaining float64    `json:"weeks_remaining"`
	ProjectedEnd   *time.Time `json:"projected_end,omitempty"`
	IsBehindPace   bool       `json:"is_behind_pace"`
}

// Compute is a pure function. No DB, no context, no logger. All decisions
// are deterministic given the input; dashboards get neutral values instead
// of errors when the math is undefined (zero targets, zero elapsed time).
func Compute(in Input) Snapshot {
	targets := domain.TargetsFor(in.Program.Tier)
	totals := Aggregate(in.Records)
	week := weekTotals(in.Records, in.Now)
	elapsedFrac := elapsedFraction(in.Program, in.Now)

	snap := Snapshot{
		ProgramID:        in.Program.ID.String(),
		GeneratedAt:      in.Now,
		WeekTotals:       week,
		CumulativeTotals: totals,

		Practice:    categoryProgress(totals.Practice, targets.Practice, elapsedFrac, in.AmberFloorPercent),
		Supervision: categoryProgress(totals.Supervision, targets.Supervision, elapsedFrac, in.AmberFloorPercent),
		Development: categoryProgress(totals.Development, targets.Development, elapsedFrac, in.AmberFloorPercent),

		DCCRateRequired:        domain.MinDCCPerFTEYear,
		SupervisionComposition: composition(totals, in.WarningBandPoints),
	}

	snap.DCCPerFTEYear = dccPerFTEYear(totals.DCC, in.Program, in.Now)
	snap.DCCRateMet = snap.DCCPerFTEYear >= domain.MinDCCPerFTEYear

	snap.Pacing = pacing(totals, targets, in.Program, in.Now)
	return snap
}

// Aggregate sums all records into cumulative program totals. The hours
// service uses it to refresh the cached totals after each mutation.
func Aggregate(records []domain.HourRecord) domain.ProgramTotals {
	var t domain.ProgramTotals
	for i := range records {
		r := &records[i]
		h := r.Hours()
		switch r.Category {
		case domain.HourCategoryDCC:
			t.DCC += h
			t.Practice += h
		case domain.HourCategoryCRA:
			t.CRA += h
			t.Practice += h
		case domain.HourCategoryDevelopment:
			t.Development += h
			if r.ActiveDevelopment {
				t.ActiveDevelopment += h
			}
		case domain.HourCategorySupervision:
			t.Supervision += h
			if r.PrincipalSupervisor {
				t.SupervisionPrincipal += h
			}
			if r.SupervisionMode != nil {
				switch *r.SupervisionMode {
				case domain.SupervisionIndividual:
					t.SupervisionIndividual += h
				case domain.SupervisionGroup:
					t.SupervisionGroup += h
				}
			}
			if r.IsShortSupervision() {
				t.SupervisionShort += h
			}
		}
	}
	return t
}

// weekTotals sums the records of the ISO week containing now.
func weekTotals(records []domain.HourRecord, now time.Time) domain.HourTotals {
	start := weekStart(now)
	end := start.AddDate(0, 0, 7)

	var t domain.HourTotals
	for i := range records {
		r := &records[i]
		if r.Date.Before(start) || !r.Date.Before(end) {
			continue
		}
		h := r.Hours()
		switch r.Category {
		case domain.HourCategoryDCC:
			t.DCC += h
		case domain.HourCategoryCRA:
			t.CRA += h
		case domain.HourCategoryDevelopment:
			t.Development += h
		case domain.HourCategorySupervision:
			t.Supervision += h
		}
	}
	return t
}

// weekStart returns the Monday 00:00 UTC of the week containing t.
func weekStart(t time.Time) time.Time {
	t = t.UTC()
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -daysSinceMonday)
}

// categoryProgress grades one category. A zero target means the tier does
// not require this category: progress reads as 100% / green, never a
// division by zero.
func categoryProgress(completed, target, elapsedFrac, amberFloor float64) CategoryProgress {
	p := CategoryProgress{Completed: completed, Target: target}

	if target <= 0 {
		p.Percent = 100
		p.RawPercent = 100
		p.Light = domain.TrafficGreen
		return p
	}

	p.RawPercent = completed / target * 100
	p.Percent = clamp(p.RawPercent, 0, 100)
	p.ProratedTarget = target * elapsedFrac

	if p.ProratedTarget <= 0 {
		// Program has not started; nothing is due yet.
		p.Light = domain.TrafficGreen
		return p
	}

	prorated := completed / p.ProratedTarget * 100
	switch {
	case prorated >= 100:
		p.Light = domain.TrafficGreen
	case prorated >= amberFloor:
		p.Light = domain.TrafficAmber
	default:
		p.Light = domain.TrafficRed
	}
	return p
}

// composition grades the supervision mix. Every percentage is of total
// supervision hours. No supervision hours at all reads as compliant:
// there is no mix to be out of balance.
func composition(t domain.ProgramTotals, band float64) Composition {
	c := Composition{TotalHours: t.Supervision}
	if t.Supervision <= 0 {
		c.Status = domain.ComplianceCompliant
		return c
	}

	c.PrincipalPercent = t.SupervisionPrincipal / t.Supervision * 100
	c.IndividualPercent = t.SupervisionIndividual / t.Supervision * 100
	c.GroupPercent = t.SupervisionGroup / t.Supervision * 100
	c.ShortPercent = t.SupervisionShort / t.Supervision * 100

	c.Status = worst(
		gradeMin(c.PrincipalPercent, PrincipalMinPercent, band),
		gradeMin(c.IndividualPercent, IndividualMinPercent, band),
		gradeMax(c.GroupPercent, GroupMaxPercent, band),
		gradeMax(c.ShortPercent, ShortMaxPercent, band),
	)
	return c
}

// gradeMin grades a value against a lower bound: meeting the threshold
// exactly is compliant; within the band below it is a warning.
func gradeMin(value, threshold, band float64) domain.ComplianceStatus {
	switch {
	case value >= threshold:
		return domain.ComplianceCompliant
	case value >= threshold-band:
		return domain.ComplianceWarning
	default:
		return domain.ComplianceNonCompliant
	}
}

// gradeMax grades a value against an upper bound.
func gradeMax(value, threshold, band float64) domain.ComplianceStatus {
	switch {
	case value <= threshold:
		return domain.ComplianceCompliant
	case value <= threshold+band:
		return domain.ComplianceWarning
	default:
		return domain.ComplianceNonCompliant
	}
}

// worst folds per-threshold grades into the overall status.
func worst(grades ...domain.ComplianceStatus) domain.ComplianceStatus {
	out := domain.ComplianceCompliant
	for _, g := range grades {
		switch {
		case g == domain.ComplianceNonCompliant:
			return domain.ComplianceNonCompliant
		case g == domain.ComplianceWarning && out == domain.ComplianceCompliant:
			out = domain.ComplianceWarning
		}
	}
	return out
}

// dccPerFTEYear computes the direct client contact rate:
//
//	dcc_hours / (elapsed_days / 365.25 * fte_fraction)
//
// Undefined denominators (program not started, zero FTE) read as zero.
func dccPerFTEYear(dccHours float64, p domain.RegistrarProgram, now time.Time) float64 {
	elapsedDays := now.Sub(p.StartDate).Hours() / 24
	if elapsedDays <= 0 || p.FTEFraction <= 0 {
		return 0
	}
	return dccHours / (elapsedDays / daysPerYear * p.FTEFraction)
}

// elapsedFraction is the share of the program window elapsed at now,
// clamped to [0, 1].
func elapsedFraction(p domain.RegistrarProgram, now time.Time) float64 {
	window := p.ExpectedEndDate.Sub(p.StartDate)
	if window <= 0 {
		return 1
	}
	return clamp(now.Sub(p.StartDate).Hours()/window.Hours(), 0, 1)
}

// pacing projects the completion date from the weekly commitment. The
// practice target drives the projection; it dominates the other categories
// by an order of magnitude.
func pacing(t domain.ProgramTotals, targets domain.ProgramTargets, p domain.RegistrarProgram, now time.Time) Pacing {
	out := Pacing{RemainingHours: math.Max(0, targets.Practice-t.Practice)}
	if out.RemainingHours == 0 {
		return out
	}
	if p.WeeklyCommitment <= 0 {
		// Unknown commitment: no projection, and no pace verdict either.
		return out
	}

	out.WeeksRemaining = out.RemainingHours / p.WeeklyCommitment
	projected := now.Add(time.Duration(out.WeeksRemaining * float64(7*24) * float64(time.Hour)))
	out.ProjectedEnd = &projected
	out.IsBehindPace = projected.After(p.ExpectedEndDate)
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
