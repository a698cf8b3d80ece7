package unlock

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/praxislog/logbook-backend/internal/config"
	"github.com/praxislog/logbook-backend/internal/domain"
	"github.com/praxislog/logbook-backend/internal/notify"
	"github.com/praxislog/logbook-backend/pkg/ctxutil"
)

var testNow = time.Date(2026, 3, 16, 10, 0, 0, 0, time.UTC)

var testCfg = config.UnlockConfig{
	DefaultDurationMinutes: 60,
	MaxDurationMinutes:     1440,
	SweepInterval:          5 * time.Minute,
	ExpiryWarningLead:      10 * time.Minute,
}

func traineeCtx(id uuid.UUID) context.Context {
	ctx := ctxutil.WithUserID(context.Background(), id)
	return ctxutil.WithUserRole(ctx, string(domain.UserRoleTrainee))
}

func supervisorCtx(id uuid.UUID) context.Context {
	ctx := ctxutil.WithUserID(context.Background(), id)
	return ctxutil.WithUserRole(ctx, string(domain.UserRoleSupervisor))
}

func terminalLogbook(ownerID, supervisorID uuid.UUID, status domain.LogbookStatus) domain.Logbook {
	return domain.Logbook{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		SupervisorID: &supervisorID,
		WeekStart:    time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		Status:       status,
	}
}

func newTestService(unlocks *unlockRepoMock, logbooks *logbookRepoMock, audit *auditRepoMock, rec *notify.Recorder) *Service {
	return &Service{
		unlocks:  unlocks,
		logbooks: logbooks,
		audit:    audit,
		tx:       txPassthrough{},
		notifier: rec,
		cfg:      testCfg,
		log:      slog.Default(),
		now:      func() time.Time { return testNow },
	}
}

func TestService_Request_Success(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	lb := terminalLogbook(ownerID, uuid.New(), domain.StatusApproved)

	mockUnlocks := &unlockRepoMock{
		CreateFunc: func(ctx context.Context, req domain.UnlockRequest) (domain.UnlockRequest, error) {
			if req.LogbookID != lb.ID {
				t.Errorf("logbook id = %v, want %v", req.LogbookID, lb.ID)
			}
			if req.Status != domain.UnlockPending {
				t.Errorf("status = %s, want pending", req.Status)
			}
			if req.RequestedBy != ownerID {
				t.Errorf("requested by = %v, want %v", req.RequestedBy, ownerID)
			}
			return req, nil
		},
	}
	mockLbs := &logbookRepoMock{
		GetByIDForUpdateFunc: func(ctx context.Context, id uuid.UUID) (domain.Logbook, error) {
			return lb, nil
		},
	}
	audit := &auditRepoMock{}
	rec := &notify.Recorder{}
	s := newTestService(mockUnlocks, mockLbs, audit, rec)

	created, err := s.Request(traineeCtx(ownerID), RequestInput{LogbookID: lb.ID, Reason: "forgot a supervision session"})
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if created.Status != domain.UnlockPending {
		t.Errorf("status = %s, want pending", created.Status)
	}

	if len(audit.entries) != 1 || audit.entries[0].Action != domain.AuditUnlockRequest {
		t.Errorf("audit entries = %+v, want one unlock_requested", audit.entries)
	}
	events := rec.Events()
	if len(events) != 1 || events[0].Kind != notify.EventUnlockRequested {
		t.Errorf("events = %v, want one %s", events, notify.EventUnlockRequested)
	}
}

func TestService_Request_EmptyReasonRejected(t *testing.T) {
	t.Parallel()

	s := newTestService(&unlockRepoMock{}, &logbookRepoMock{}, &auditRepoMock{}, &notify.Recorder{})

	_, err := s.Request(traineeCtx(uuid.New()), RequestInput{LogbookID: uuid.New(), Reason: "   "})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Request() error = %v, want validation error", err)
	}
}

func TestService_Request_SecondActiveRequestConflicts(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	lb := terminalLogbook(ownerID, uuid.New(), domain.StatusApproved)

	mockUnlocks := &unlockRepoMock{
		GetOpenByLogbookFunc: func(ctx context.Context, logbookID uuid.UUID) (domain.UnlockRequest, error) {
			return domain.UnlockRequest{
				ID:        uuid.New(),
				LogbookID: lb.ID,
				Status:    domain.UnlockPending,
			}, nil
		},
	}
	mockLbs := &logbookRepoMock{
		GetByIDForUpdateFunc: func(ctx context.Context, id uuid.UUID) (domain.Logbook, error) {
			return lb, nil
		},
	}
	s := newTestService(mockUnlocks, mockLbs, &auditRepoMock{}, &notify.Recorder{})

	_, err := s.Request(traineeCtx(ownerID), RequestInput{LogbookID: lb.ID, Reason: "again"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("Request() error = %v, want conflict", err)
	}
}

func TestService_Request_StaleGrantExpiredInline(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	// The stale grant reopened the logbook as a draft, then its window passed.
	lb := terminalLogbook(ownerID, uuid.New(), domain.StatusDraft)
	expiredAt := testNow.Add(-1 * time.Hour)
	stale := domain.UnlockRequest{
		ID:              uuid.New(),
		LogbookID:       lb.ID,
		Status:          domain.UnlockGranted,
		UnlockExpiresAt: &expiredAt,
	}

	var created *domain.UnlockRequest
	markExpired := false
	mockUnlocks := &unlockRepoMock{
		GetOpenByLogbookFunc: func(ctx context.Context, logbookID uuid.UUID) (domain.UnlockRequest, error) {
			return stale, nil
		},
		MarkExpiredFunc: func(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
			if id != stale.ID {
				t.Errorf("expired id = %v, want %v", id, stale.ID)
			}
			markExpired = true
			return true, nil
		},
		CreateFunc: func(ctx context.Context, req domain.UnlockRequest) (domain.UnlockRequest, error) {
			created = &req
			return req, nil
		},
	}
	var relocked []string
	mockLbs := &logbookRepoMock{
		GetByIDForUpdateFunc: func(ctx context.Context, id uuid.UUID) (domain.Logbook, error) {
			return lb, nil
		},
		UpdateStatusFunc: func(ctx context.Context, id uuid.UUID, from, to domain.LogbookStatus, at time.Time) error {
			relocked = append(relocked, string(from)+">"+string(to))
			return nil
		},
		SetSectionsLockedFunc: func(ctx context.Context, logbookID uuid.UUID, locked bool) error {
			if !locked {
				t.Error("sections unlocked during stale-grant expiry")
			}
			return nil
		},
	}
	audit := &auditRepoMock{}
	s := newTestService(mockUnlocks, mockLbs, audit, &notify.Recorder{})

	_, err := s.Request(traineeCtx(ownerID), RequestInput{LogbookID: lb.ID, Reason: "another correction"})
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if !markExpired {
		t.Error("stale grant not expired")
	}
	if len(relocked) != 1 || relocked[0] != "draft>locked" {
		t.Errorf("relock calls = %v, want [draft>locked]", relocked)
	}
	if created == nil {
		t.Fatal("new request not created")
	}

	// Expiry entry (system) followed by the new request entry.
	if len(audit.entries) != 2 {
		t.Fatalf("audit entries = %d, want 2", len(audit.entries))
	}
	if audit.entries[0].Action != domain.AuditUnlockExpiry || audit.entries[0].ActorID != nil {
		t.Errorf("first entry = %+v, want system unlock_expiry", audit.entries[0])
	}
	if audit.entries[1].Action != domain.AuditUnlockRequest {
		t.Errorf("second entry = %+v, want unlock_requested", audit.entries[1])
	}
}

func TestService_Request_PreApprovalLogbookForbidden(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	lb := terminalLogbook(ownerID, uuid.New(), domain.StatusDraft)

	mockLbs := &logbookRepoMock{
		GetByIDForUpdateFunc: func(ctx context.Context, id uuid.UUID) (domain.Logbook, error) {
			return lb, nil
		},
	}
	s := newTestService(&unlockRepoMock{}, mockLbs, &auditRepoMock{}, &notify.Recorder{})

	_, err := s.Request(traineeCtx(ownerID), RequestInput{LogbookID: lb.ID, Reason: "nothing to unlock"})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Request() error = %v, want forbidden", err)
	}
}

func TestService_Grant_Success(t *testing.T) {
	t.Parallel()

	supervisorID := uuid.New()
	lb := terminalLogbook(uuid.New(), supervisorID, domain.StatusApproved)
	req := domain.UnlockRequest{
		ID:          uuid.New(),
		LogbookID:   lb.ID,
		RequestedBy: lb.OwnerID,
		Status:      domain.UnlockPending,
		RequestedAt: testNow.Add(-1 * time.Hour),
	}

	var grantedDuration int
	var grantedExpiry time.Time
	mockUnlocks := &unlockRepoMock{
		GetByIDForUpdateFunc: func(ctx context.Context, id uuid.UUID) (domain.UnlockRequest, error) {
			return req, nil
		},
		GrantFunc: func(ctx context.Context, id, resolvedBy uuid.UUID, grantedAt, expiresAt time.Time, durationMinutes int) error {
			if resolvedBy != supervisorID {
				t.Errorf("resolved by = %v, want %v", resolvedBy, supervisorID)
			}
			grantedDuration = durationMinutes
			grantedExpiry = expiresAt
			return nil
		},
	}
	var statusCalls []string
	sectionsUnlocked := false
	mockLbs := &logbookRepoMock{
		GetByIDForUpdateFunc: func(ctx context.Context, id uuid.UUID) (domain.Logbook, error) {
			return lb, nil
		},
		UpdateStatusFunc: func(ctx context.Context, id uuid.UUID, from, to domain.LogbookStatus, at time.Time) error {
			statusCalls = append(statusCalls, string(from)+">"+string(to))
			return nil
		},
		SetSectionsLockedFunc: func(ctx context.Context, logbookID uuid.UUID, locked bool) error {
			sectionsUnlocked = !locked
			return nil
		},
	}
	audit := &auditRepoMock{}
	rec := &notify.Recorder{}
	s := newTestService(mockUnlocks, mockLbs, audit, rec)

	granted, err := s.Grant(supervisorCtx(supervisorID), req.ID, 90)
	if err != nil {
		t.Fatalf("Grant() error = %v", err)
	}
	if granted.Status != domain.UnlockGranted {
		t.Errorf("status = %s, want granted", granted.Status)
	}
	if grantedDuration != 90 {
		t.Errorf("duration = %d, want 90", grantedDuration)
	}
	wantExpiry := testNow.Add(90 * time.Minute)
	if !grantedExpiry.Equal(wantExpiry) {
		t.Errorf("expiry = %v, want %v", grantedExpiry, wantExpiry)
	}
	if len(statusCalls) != 1 || statusCalls[0] != "approved>draft" {
		t.Errorf("status calls = %v, want [approved>draft]", statusCalls)
	}
	if !sectionsUnlocked {
		t.Error("sections not unlocked on grant")
	}
	if len(audit.entries) != 1 || audit.entries[0].Action != domain.AuditUnlockGrant {
		t.Errorf("audit entries = %+v, want one unlock_granted", audit.entries)
	}
	events := rec.Events()
	if len(events) != 1 || events[0].Kind != notify.EventUnlockApproved {
		t.Errorf("events = %v, want one %s", events, notify.EventUnlockApproved)
	}
}

func TestService_Grant_DefaultDuration(t *testing.T) {
	t.Parallel()

	supervisorID := uuid.New()
	lb := terminalLogbook(uuid.New(), supervisorID, domain.StatusApproved)
	req := domain.UnlockRequest{ID: uuid.New(), LogbookID: lb.ID, Status: domain.UnlockPending}

	var grantedDuration int
	mockUnlocks := &unlockRepoMock{
		GetByIDForUpdateFunc: func(ctx context.Context, id uuid.UUID) (domain.UnlockRequest, error) {
			return req, nil
		},
		GrantFunc: func(ctx context.Context, id, resolvedBy uuid.UUID, grantedAt, expiresAt time.Time, durationMinutes int) error {
			grantedDuration = durationMinutes
			return nil
		},
	}
	mockLbs := &logbookRepoMock{
		GetByIDForUpdateFunc: func(ctx context.Context, id uuid.UUID) (domain.Logbook, error) {
			return lb, nil
		},
		UpdateStatusFunc: func(ctx context.Context, id uuid.UUID, from, to domain.LogbookStatus, at time.Time) error {
			return nil
		},
		SetSectionsLockedFunc: func(ctx context.Context, logbookID uuid.UUID, locked bool) error {
			return nil
		},
	}
	s := newTestService(mockUnlocks, mockLbs, &auditRepoMock{}, &notify.Recorder{})

	if _, err := s.Grant(supervisorCtx(supervisorID), req.ID, 0); err != nil {
		t.Fatalf("Grant() error = %v", err)
	}
	if grantedDuration != testCfg.DefaultDurationMinutes {
		t.Errorf("duration = %d, want default %d", grantedDuration, testCfg.DefaultDurationMinutes)
	}
}

func TestService_Grant_DurationAboveMaxRejected(t *testing.T) {
	t.Parallel()

	s := newTestService(&unlockRepoMock{}, &logbookRepoMock{}, &auditRepoMock{}, &notify.Recorder{})

	_, err := s.Grant(supervisorCtx(uuid.New()), uuid.New(), testCfg.MaxDurationMinutes+1)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Grant() error = %v, want validation error", err)
	}
}

func TestService_Grant_ResolvedRequestConflicts(t *testing.T) {
	t.Parallel()

	supervisorID := uuid.New()
	req := domain.UnlockRequest{ID: uuid.New(), LogbookID: uuid.New(), Status: domain.UnlockDenied}

	mockUnlocks := &unlockRepoMock{
		GetByIDForUpdateFunc: func(ctx context.Context, id uuid.UUID) (domain.UnlockRequest, error) {
			return req, nil
		},
	}
	s := newTestService(mockUnlocks, &logbookRepoMock{}, &auditRepoMock{}, &notify.Recorder{})

	_, err := s.Grant(supervisorCtx(supervisorID), req.ID, 60)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("Grant() error = %v, want conflict", err)
	}
}

func TestService_Grant_OwnerForbidden(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	lb := terminalLogbook(ownerID, uuid.New(), domain.StatusApproved)
	req := domain.UnlockRequest{ID: uuid.New(), LogbookID: lb.ID, RequestedBy: ownerID, Status: domain.UnlockPending}

	mockUnlocks := &unlockRepoMock{
		GetByIDForUpdateFunc: func(ctx context.Context, id uuid.UUID) (domain.UnlockRequest, error) {
			return req, nil
		},
	}
	mockLbs := &logbookRepoMock{
		GetByIDForUpdateFunc: func(ctx context.Context, id uuid.UUID) (domain.Logbook, error) {
			return lb, nil
		},
	}
	s := newTestService(mockUnlocks, mockLbs, &auditRepoMock{}, &notify.Recorder{})

	_, err := s.Grant(traineeCtx(ownerID), req.ID, 60)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Grant() error = %v, want forbidden", err)
	}
}

func TestService_Deny_Success(t *testing.T) {
	t.Parallel()

	supervisorID := uuid.New()
	lb := terminalLogbook(uuid.New(), supervisorID, domain.StatusLocked)
	req := domain.UnlockRequest{ID: uuid.New(), LogbookID: lb.ID, Status: domain.UnlockPending}

	denyCalled := false
	mockUnlocks := &unlockRepoMock{
		GetByIDForUpdateFunc: func(ctx context.Context, id uuid.UUID) (domain.UnlockRequest, error) {
			return req, nil
		},
		DenyFunc: func(ctx context.Context, id, resolvedBy uuid.UUID) error {
			denyCalled = true
			return nil
		},
	}
	mockLbs := &logbookRepoMock{
		GetByIDForUpdateFunc: func(ctx context.Context, id uuid.UUID) (domain.Logbook, error) {
			return lb, nil
		},
		UpdateStatusFunc: func(ctx context.Context, id uuid.UUID, from, to domain.LogbookStatus, at time.Time) error {
			t.Error("logbook status changed on a deny")
			return nil
		},
	}
	audit := &auditRepoMock{}
	rec := &notify.Recorder{}
	s := newTestService(mockUnlocks, mockLbs, audit, rec)

	denied, err := s.Deny(supervisorCtx(supervisorID), req.ID, "not justified")
	if err != nil {
		t.Fatalf("Deny() error = %v", err)
	}
	if !denyCalled {
		t.Error("repo Deny not called")
	}
	if denied.Status != domain.UnlockDenied {
		t.Errorf("status = %s, want denied", denied.Status)
	}
	if len(audit.entries) != 1 || audit.entries[0].Action != domain.AuditUnlockDeny {
		t.Errorf("audit entries = %+v, want one unlock_denied", audit.entries)
	}
	events := rec.Events()
	if len(events) != 1 || events[0].Kind != notify.EventUnlockDenied {
		t.Errorf("events = %v, want one %s", events, notify.EventUnlockDenied)
	}
}
