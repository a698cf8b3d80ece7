package logbook

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/praxislog/logbook-backend/internal/adapter/renderer"
	"github.com/praxislog/logbook-backend/internal/domain"
)

type docRendererMock struct {
	RequestDocumentFunc func(ctx context.Context, req renderer.DocumentRequest) (renderer.DocumentResult, error)
}

func (m *docRendererMock) RequestDocument(ctx context.Context, req renderer.DocumentRequest) (renderer.DocumentResult, error) {
	return m.RequestDocumentFunc(ctx, req)
}

func TestDocumentLink_ApprovedLogbook(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	supervisor := uuid.New()
	lb := completeLogbook(owner, supervisor, domain.StatusApproved)

	svc := newTestService(
		&logbookRepoMock{
			GetByIDFunc: func(_ context.Context, _ uuid.UUID) (domain.Logbook, error) { return lb, nil },
		},
		&auditRepoMock{},
		nil,
	)
	svc.renderer = &docRendererMock{
		RequestDocumentFunc: func(_ context.Context, req renderer.DocumentRequest) (renderer.DocumentResult, error) {
			if req.LogbookID != lb.ID {
				t.Errorf("logbook_id = %s", req.LogbookID)
			}
			if req.Status != "approved" {
				t.Errorf("status = %s", req.Status)
			}
			return renderer.DocumentResult{URL: "https://docs.example.org/x.pdf"}, nil
		},
	}

	got, err := svc.DocumentLink(traineeCtx(owner), lb.ID)
	if err != nil {
		t.Fatalf("DocumentLink: %v", err)
	}
	if got.URL == "" {
		t.Error("expected document URL")
	}
}

func TestDocumentLink_DraftConflict(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	lb := completeLogbook(owner, uuid.New(), domain.StatusDraft)

	svc := newTestService(
		&logbookRepoMock{
			GetByIDFunc: func(_ context.Context, _ uuid.UUID) (domain.Logbook, error) { return lb, nil },
		},
		&auditRepoMock{},
		nil,
	)
	svc.renderer = &docRendererMock{
		RequestDocumentFunc: func(_ context.Context, _ renderer.DocumentRequest) (renderer.DocumentResult, error) {
			t.Error("renderer must not be called for a draft")
			return renderer.DocumentResult{}, nil
		},
	}

	_, err := svc.DocumentLink(traineeCtx(owner), lb.ID)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestDocumentLink_StrangerForbidden(t *testing.T) {
	t.Parallel()

	lb := completeLogbook(uuid.New(), uuid.New(), domain.StatusLocked)

	svc := newTestService(
		&logbookRepoMock{
			GetByIDFunc: func(_ context.Context, _ uuid.UUID) (domain.Logbook, error) { return lb, nil },
		},
		&auditRepoMock{},
		nil,
	)

	_, err := svc.DocumentLink(traineeCtx(uuid.New()), lb.ID)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}
