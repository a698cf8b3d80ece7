package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/praxislog/logbook-backend/internal/domain"
)

type auditService interface {
	List(ctx context.Context, logbookID uuid.UUID, limit, offset int) ([]domain.AuditEntry, int, error)
}

// AuditHandler serves the audit trail read endpoint.
type AuditHandler struct {
	svc auditService
	log *slog.Logger
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(svc auditService, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{svc: svc, log: logger.With("handler", "audit")}
}

type auditEntryResponse struct {
	ID          string         `json:"id"`
	LogbookID   string         `json:"logbookId"`
	ActorID     *string        `json:"actorId,omitempty"` // absent for system actions
	Action      string         `json:"action"`
	Description string         `json:"description,omitempty"`
	Diff        map[string]any `json:"diff,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

type auditTrailResponse struct {
	Entries []auditEntryResponse `json:"entries"`
	Total   int                  `json:"total"`
}

// Trail handles GET /logbooks/{id}/audit.
func (h *AuditHandler) Trail(w http.ResponseWriter, r *http.Request) {
	logbookID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	entries, total, err := h.svc.List(r.Context(), logbookID, limit, offset)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	out := auditTrailResponse{Entries: make([]auditEntryResponse, 0, len(entries)), Total: total}
	for _, e := range entries {
		resp := auditEntryResponse{
			ID:          e.ID.String(),
			LogbookID:   e.LogbookID.String(),
			Action:      e.Action.String(),
			Description: e.Description,
			Diff:        e.Diff,
			CreatedAt:   e.CreatedAt,
		}
		if e.ActorID != nil {
			s := e.ActorID.String()
			resp.ActorID = &s
		}
		out.Entries = append(out.Entries, resp)
	}
	writeJSON(w, http.StatusOK, out)
}
