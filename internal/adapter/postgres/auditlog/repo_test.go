package auditlog_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/praxislog/logbook-backend/internal/adapter/postgres/auditlog"
	"github.com/praxislog/logbook-backend/internal/adapter/postgres/testhelper"
	"github.com/praxislog/logbook-backend/internal/domain"
)

func TestRepo_Append_AndListByLogbook(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := auditlog.New(pool)
	ctx := context.Background()

	owner := testhelper.SeedUser(t, pool, domain.UserRoleTrainee)
	lb := testhelper.SeedLogbook(t, pool, owner.ID, uuid.Nil, domain.StatusDraft)

	// Same timestamp on purpose: ordering must stay stable via the id tiebreak.
	at := time.Now().UTC().Truncate(time.Microsecond)
	actions := []domain.AuditAction{domain.AuditSubmit, domain.AuditApprove, domain.AuditLock}

	var ids []uuid.UUID
	for _, action := range actions {
		entry := domain.AuditEntry{
			ID:          uuid.New(),
			LogbookID:   lb.ID,
			ActorID:     &owner.ID,
			Action:      action,
			Description: "test " + string(action),
			Diff:        map[string]any{"status": string(action)},
			CreatedAt:   at,
		}
		if _, err := repo.Append(ctx, entry); err != nil {
			t.Fatalf("Append(%s): unexpected error: %v", action, err)
		}
		ids = append(ids, entry.ID)
	}

	got, err := repo.ListByLogbook(ctx, lb.ID, 50, 0)
	if err != nil {
		t.Fatalf("ListByLogbook: unexpected error: %v", err)
	}
	if len(got) != len(actions) {
		t.Fatalf("ListByLogbook: expected %d entries, got %d", len(actions), len(got))
	}
	// Entries share a timestamp, so order follows the id tiebreak rather
	// than insertion. Verify the set, not the sequence.
	seen := make(map[uuid.UUID]bool)
	for _, e := range got {
		seen[e.ID] = true
		if e.LogbookID != lb.ID {
			t.Errorf("LogbookID mismatch: got %s, want %s", e.LogbookID, lb.ID)
		}
		if e.ActorID == nil || *e.ActorID != owner.ID {
			t.Errorf("ActorID mismatch: got %v, want %s", e.ActorID, owner.ID)
		}
		if e.Diff == nil {
			t.Error("Diff not round-tripped")
		}
	}
	for _, id := range ids {
		if !seen[id] {
			t.Errorf("entry %s missing from listing", id)
		}
	}
}

func TestRepo_Append_SystemActor(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := auditlog.New(pool)
	ctx := context.Background()

	owner := testhelper.SeedUser(t, pool, domain.UserRoleTrainee)
	lb := testhelper.SeedLogbook(t, pool, owner.ID, uuid.Nil, domain.StatusLocked)

	entry := domain.AuditEntry{
		ID:          uuid.New(),
		LogbookID:   lb.ID,
		ActorID:     nil, // system action
		Action:      domain.AuditUnlockExpiry,
		Description: "unlock window elapsed",
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := repo.Append(ctx, entry); err != nil {
		t.Fatalf("Append: unexpected error: %v", err)
	}

	got, err := repo.ListByLogbook(ctx, lb.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListByLogbook: unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ListByLogbook: expected 1 entry, got %d", len(got))
	}
	if got[0].ActorID != nil {
		t.Errorf("ActorID: expected nil for system action, got %v", got[0].ActorID)
	}

	n, err := repo.CountByLogbook(ctx, lb.ID)
	if err != nil {
		t.Fatalf("CountByLogbook: unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("CountByLogbook: expected 1, got %d", n)
	}
}
