package logbook

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/praxislog/logbook-backend/internal/adapter/renderer"
	"github.com/praxislog/logbook-backend/internal/domain"
	"github.com/praxislog/logbook-backend/pkg/ctxutil"
)

// DocumentLink returns a signed document URL for a finalized logbook. Only
// approved and locked logbooks render; a draft has nothing worth signing.
func (s *Service) DocumentLink(ctx context.Context, logbookID uuid.UUID) (renderer.DocumentResult, error) {
	viewerID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return renderer.DocumentResult{}, domain.ErrUnauthorized
	}

	lb, err := s.logbooks.GetByID(ctx, logbookID)
	if err != nil {
		return renderer.DocumentResult{}, fmt.Errorf("get logbook: %w", err)
	}
	if viewerID != lb.OwnerID && !lb.IsSupervisor(viewerID) && !ctxutil.IsAdminCtx(ctx) {
		return renderer.DocumentResult{}, fmt.Errorf("logbook %s: %w", logbookID, domain.ErrForbidden)
	}
	if !lb.Status.IsTerminal() {
		return renderer.DocumentResult{}, fmt.Errorf("logbook %s is %s: %w", logbookID, lb.Status, domain.ErrConflict)
	}

	doc, err := s.renderer.RequestDocument(ctx, renderer.DocumentRequest{
		LogbookID: lb.ID,
		OwnerID:   lb.OwnerID,
		WeekStart: lb.WeekStart.Format("2006-01-02"),
		Status:    lb.Status.String(),
	})
	if err != nil {
		return renderer.DocumentResult{}, fmt.Errorf("request document: %w", err)
	}

	s.log.InfoContext(ctx, "document link issued", "logbook_id", lb.ID)
	return doc, nil
}
