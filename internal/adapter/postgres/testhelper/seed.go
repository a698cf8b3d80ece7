package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/praxislog/logbook-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedUser creates a user with the given role. Returns a filled domain.User.
func SeedUser(t *testing.T, pool *pgxpool.Pool, role domain.UserRole) domain.User {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	user := domain.User{
		ID:           uuid.New(),
		Name:         "Test User " + suffix,
		Email:        "testuser-" + suffix + "@example.com",
		Role:         role,
		PasswordHash: "x",
		CreatedAt:    now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO users (id, name, email, role, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Name, user.Email, string(user.Role), user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedUser insert user: %v", err)
	}

	return user
}

// SeedProgram creates a registrar program for the given trainee with sensible
// defaults (masters tier, full-time, two-year window). Returns the program.
func SeedProgram(t *testing.T, pool *pgxpool.Pool, traineeID uuid.UUID) domain.RegistrarProgram {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	prog := domain.RegistrarProgram{
		ID:               uuid.New(),
		TraineeID:        traineeID,
		AoPE:             "clinical",
		Tier:             domain.TierMasters,
		FTEFraction:      1.0,
		StartDate:        now.AddDate(-1, 0, 0),
		ExpectedEndDate:  now.AddDate(1, 0, 0),
		WeeklyCommitment: 38,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO registrar_programs
		   (id, trainee_id, aope, tier, fte_fraction, start_date, expected_end_date, weekly_commitment, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		prog.ID, prog.TraineeID, prog.AoPE, string(prog.Tier), prog.FTEFraction,
		prog.StartDate, prog.ExpectedEndDate, prog.WeeklyCommitment, prog.CreatedAt, prog.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedProgram insert: %v", err)
	}

	return prog
}

// SeedLogbook creates a logbook in the given status with its three sections.
// The supervisor may be uuid.Nil to leave the logbook unassigned.
func SeedLogbook(t *testing.T, pool *pgxpool.Pool, ownerID, supervisorID uuid.UUID, status domain.LogbookStatus) domain.Logbook {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	daysSinceMonday := (int(now.Weekday()) + 6) % 7
	weekStart := now.AddDate(0, 0, -daysSinceMonday).Truncate(24 * time.Hour)

	lb := domain.Logbook{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		WeekStart: weekStart,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if supervisorID != uuid.Nil {
		lb.SupervisorID = &supervisorID
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO logbooks (id, owner_id, supervisor_id, week_start, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		lb.ID, lb.OwnerID, lb.SupervisorID, lb.WeekStart, string(lb.Status), lb.CreatedAt, lb.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedLogbook insert logbook: %v", err)
	}

	locked := status == domain.StatusApproved || status == domain.StatusLocked
	lb.Sections = make([]domain.LogbookSection, 0, 3)
	for _, st := range []domain.SectionType{domain.SectionPractice, domain.SectionDevelopment, domain.SectionSupervision} {
		sec := domain.LogbookSection{
			ID:        uuid.New(),
			LogbookID: lb.ID,
			Type:      st,
			Content:   map[string]any{"summary": "seeded " + string(st)},
			IsLocked:  locked,
			CreatedAt: now,
			UpdatedAt: now,
		}
		_, err := pool.Exec(ctx,
			`INSERT INTO logbook_sections (id, logbook_id, section_type, content, is_locked, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			sec.ID, sec.LogbookID, string(sec.Type), sec.Content, sec.IsLocked, sec.CreatedAt, sec.UpdatedAt,
		)
		if err != nil {
			t.Fatalf("testhelper: SeedLogbook insert section %s: %v", st, err)
		}
		lb.Sections = append(lb.Sections, sec)
	}

	return lb
}

// SeedHourRecord creates a single hour record attached to a logbook.
func SeedHourRecord(t *testing.T, pool *pgxpool.Pool, ownerID, logbookID uuid.UUID, category domain.HourCategory, minutes int) domain.HourRecord {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	rec := domain.HourRecord{
		ID:              uuid.New(),
		OwnerID:         ownerID,
		LogbookID:       logbookID,
		Category:        category,
		DurationMinutes: minutes,
		Date:            now.Truncate(24 * time.Hour),
		Description:     "seeded " + uniqueSuffix(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO hour_records
		   (id, owner_id, logbook_id, category, duration_minutes, date, description, supervision_mode, principal_supervisor, active_development, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rec.ID, rec.OwnerID, rec.LogbookID, string(rec.Category), rec.DurationMinutes, rec.Date, rec.Description,
		nil, rec.PrincipalSupervisor, rec.ActiveDevelopment, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedHourRecord insert: %v", err)
	}

	return rec
}
