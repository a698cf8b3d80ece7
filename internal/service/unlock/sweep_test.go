package unlock

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/praxislog/logbook-backend/internal/domain"
	"github.com/praxislog/logbook-backend/internal/notify"
)

func staleGrant(logbookID uuid.UUID) domain.UnlockRequest {
	expiredAt := testNow.Add(-30 * time.Minute)
	return domain.UnlockRequest{
		ID:              uuid.New(),
		LogbookID:       logbookID,
		Status:          domain.UnlockGranted,
		UnlockExpiresAt: &expiredAt,
	}
}

func TestService_SweepExpired_RelocksDrafts(t *testing.T) {
	t.Parallel()

	lb1 := terminalLogbook(uuid.New(), uuid.New(), domain.StatusDraft)
	lb2 := terminalLogbook(uuid.New(), uuid.New(), domain.StatusDraft)
	req1 := staleGrant(lb1.ID)
	req2 := staleGrant(lb2.ID)

	books := map[uuid.UUID]domain.Logbook{lb1.ID: lb1, lb2.ID: lb2}

	mockUnlocks := &unlockRepoMock{
		ListExpiredGrantsFunc: func(ctx context.Context, now time.Time, limit int) ([]domain.UnlockRequest, error) {
			return []domain.UnlockRequest{req1, req2}, nil
		},
		MarkExpiredFunc: func(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
			return true, nil
		},
	}
	var relocked []uuid.UUID
	mockLbs := &logbookRepoMock{
		GetByIDForUpdateFunc: func(ctx context.Context, id uuid.UUID) (domain.Logbook, error) {
			return books[id], nil
		},
		UpdateStatusFunc: func(ctx context.Context, id uuid.UUID, from, to domain.LogbookStatus, at time.Time) error {
			if from != domain.StatusDraft || to != domain.StatusLocked {
				t.Errorf("relock %s>%s, want draft>locked", from, to)
			}
			relocked = append(relocked, id)
			return nil
		},
		SetSectionsLockedFunc: func(ctx context.Context, logbookID uuid.UUID, locked bool) error {
			return nil
		},
	}
	audit := &auditRepoMock{}
	rec := &notify.Recorder{}
	s := newTestService(mockUnlocks, mockLbs, audit, rec)

	swept, err := s.SweepExpired(context.Background())
	if err != nil {
		t.Fatalf("SweepExpired() error = %v", err)
	}
	if swept != 2 {
		t.Errorf("swept = %d, want 2", swept)
	}
	if len(relocked) != 2 {
		t.Errorf("relocked = %v, want both logbooks", relocked)
	}

	if len(audit.entries) != 2 {
		t.Fatalf("audit entries = %d, want 2", len(audit.entries))
	}
	for _, entry := range audit.entries {
		if entry.Action != domain.AuditUnlockExpiry {
			t.Errorf("entry action = %s, want unlock_expiry", entry.Action)
		}
		if entry.ActorID != nil {
			t.Errorf("entry actor = %v, want nil (system)", entry.ActorID)
		}
	}
	events := rec.Events()
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	for _, ev := range events {
		if ev.Kind != notify.EventUnlockExpired {
			t.Errorf("event kind = %s, want %s", ev.Kind, notify.EventUnlockExpired)
		}
		if ev.ActorID != nil {
			t.Errorf("event actor = %v, want nil", ev.ActorID)
		}
	}
}

func TestService_SweepExpired_LoserSkipsHandledRows(t *testing.T) {
	t.Parallel()

	lb := terminalLogbook(uuid.New(), uuid.New(), domain.StatusDraft)
	req := staleGrant(lb.ID)

	mockUnlocks := &unlockRepoMock{
		ListExpiredGrantsFunc: func(ctx context.Context, now time.Time, limit int) ([]domain.UnlockRequest, error) {
			return []domain.UnlockRequest{req}, nil
		},
		// Another worker already flipped this row.
		MarkExpiredFunc: func(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
			return false, nil
		},
	}
	mockLbs := &logbookRepoMock{
		GetByIDForUpdateFunc: func(ctx context.Context, id uuid.UUID) (domain.Logbook, error) {
			return lb, nil
		},
		UpdateStatusFunc: func(ctx context.Context, id uuid.UUID, from, to domain.LogbookStatus, at time.Time) error {
			t.Error("logbook relocked by the losing sweeper")
			return nil
		},
	}
	rec := &notify.Recorder{}
	s := newTestService(mockUnlocks, mockLbs, &auditRepoMock{}, rec)

	swept, err := s.SweepExpired(context.Background())
	if err != nil {
		t.Fatalf("SweepExpired() error = %v", err)
	}
	if swept != 0 {
		t.Errorf("swept = %d, want 0", swept)
	}
	if len(rec.Events()) != 0 {
		t.Error("events published by the losing sweeper")
	}
}

func TestService_SweepExpired_ResubmittedLogbookStaysInCycle(t *testing.T) {
	t.Parallel()

	// The trainee resubmitted during the unlock window; the sweep must not
	// yank the logbook out of review.
	lb := terminalLogbook(uuid.New(), uuid.New(), domain.StatusSubmitted)
	req := staleGrant(lb.ID)

	mockUnlocks := &unlockRepoMock{
		ListExpiredGrantsFunc: func(ctx context.Context, now time.Time, limit int) ([]domain.UnlockRequest, error) {
			return []domain.UnlockRequest{req}, nil
		},
		MarkExpiredFunc: func(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
			return true, nil
		},
	}
	mockLbs := &logbookRepoMock{
		GetByIDForUpdateFunc: func(ctx context.Context, id uuid.UUID) (domain.Logbook, error) {
			return lb, nil
		},
		UpdateStatusFunc: func(ctx context.Context, id uuid.UUID, from, to domain.LogbookStatus, at time.Time) error {
			t.Error("resubmitted logbook relocked")
			return nil
		},
	}
	audit := &auditRepoMock{}
	s := newTestService(mockUnlocks, mockLbs, audit, &notify.Recorder{})

	swept, err := s.SweepExpired(context.Background())
	if err != nil {
		t.Fatalf("SweepExpired() error = %v", err)
	}
	if swept != 1 {
		t.Errorf("swept = %d, want 1", swept)
	}
	if len(audit.entries) != 1 || audit.entries[0].Action != domain.AuditUnlockExpiry {
		t.Errorf("audit entries = %+v, want one unlock_expiry", audit.entries)
	}
}

func TestService_SweepExpired_FailedRowDoesNotStopTheSweep(t *testing.T) {
	t.Parallel()

	lbOK := terminalLogbook(uuid.New(), uuid.New(), domain.StatusDraft)
	reqBroken := staleGrant(uuid.New())
	reqOK := staleGrant(lbOK.ID)

	mockUnlocks := &unlockRepoMock{
		ListExpiredGrantsFunc: func(ctx context.Context, now time.Time, limit int) ([]domain.UnlockRequest, error) {
			return []domain.UnlockRequest{reqBroken, reqOK}, nil
		},
		MarkExpiredFunc: func(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
			return true, nil
		},
	}
	mockLbs := &logbookRepoMock{
		GetByIDForUpdateFunc: func(ctx context.Context, id uuid.UUID) (domain.Logbook, error) {
			if id == lbOK.ID {
				return lbOK, nil
			}
			return domain.Logbook{}, domain.ErrNotFound
		},
		UpdateStatusFunc: func(ctx context.Context, id uuid.UUID, from, to domain.LogbookStatus, at time.Time) error {
			return nil
		},
		SetSectionsLockedFunc: func(ctx context.Context, logbookID uuid.UUID, locked bool) error {
			return nil
		},
	}
	s := newTestService(mockUnlocks, mockLbs, &auditRepoMock{}, &notify.Recorder{})

	swept, err := s.SweepExpired(context.Background())
	if err != nil {
		t.Fatalf("SweepExpired() error = %v", err)
	}
	if swept != 1 {
		t.Errorf("swept = %d, want 1", swept)
	}
}

func TestService_WarnExpiring_DedupesPerProcess(t *testing.T) {
	t.Parallel()

	lb := terminalLogbook(uuid.New(), uuid.New(), domain.StatusDraft)
	expiresAt := testNow.Add(5 * time.Minute)
	req := domain.UnlockRequest{
		ID:              uuid.New(),
		LogbookID:       lb.ID,
		Status:          domain.UnlockGranted,
		UnlockExpiresAt: &expiresAt,
	}

	mockUnlocks := &unlockRepoMock{
		ListGrantsExpiringBetweenFunc: func(ctx context.Context, from, until time.Time) ([]domain.UnlockRequest, error) {
			if !from.Equal(testNow) || !until.Equal(testNow.Add(testCfg.ExpiryWarningLead)) {
				t.Errorf("window = [%v, %v]", from, until)
			}
			return []domain.UnlockRequest{req}, nil
		},
	}
	rec := &notify.Recorder{}
	s := newTestService(mockUnlocks, &logbookRepoMock{}, &auditRepoMock{}, rec)

	sent, err := s.WarnExpiring(context.Background())
	if err != nil {
		t.Fatalf("WarnExpiring() error = %v", err)
	}
	if sent != 1 {
		t.Errorf("sent = %d, want 1", sent)
	}

	sent, err = s.WarnExpiring(context.Background())
	if err != nil {
		t.Fatalf("WarnExpiring() second call error = %v", err)
	}
	if sent != 0 {
		t.Errorf("second call sent = %d, want 0", sent)
	}

	events := rec.Events()
	if len(events) != 1 || events[0].Kind != notify.EventUnlockExpiryWarning {
		t.Errorf("events = %v, want one %s", events, notify.EventUnlockExpiryWarning)
	}
}
