package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/praxislog/logbook-backend/internal/service/compliance"
	"github.com/praxislog/logbook-backend/pkg/ctxutil"
)

type complianceService interface {
	ComputeForProgram(ctx context.Context, programID uuid.UUID) (compliance.Snapshot, error)
	ComputeForTrainee(ctx context.Context, traineeID uuid.UUID) (compliance.Snapshot, error)
}

// ComplianceHandler serves compliance snapshot endpoints. Snapshot already
// carries its own JSON shape; no wire mapping here.
type ComplianceHandler struct {
	svc complianceService
	log *slog.Logger
}

// NewComplianceHandler creates a ComplianceHandler.
func NewComplianceHandler(svc complianceService, logger *slog.Logger) *ComplianceHandler {
	return &ComplianceHandler{svc: svc, log: logger.With("handler", "compliance")}
}

// ForProgram handles GET /programs/{id}/compliance.
func (h *ComplianceHandler) ForProgram(w http.ResponseWriter, r *http.Request) {
	programID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	snap, err := h.svc.ComputeForProgram(r.Context(), programID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ForMe handles GET /me/compliance: the caller's own snapshot.
func (h *ComplianceHandler) ForMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	snap, err := h.svc.ComputeForTrainee(r.Context(), userID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ForTrainee handles GET /trainees/{id}/compliance.
func (h *ComplianceHandler) ForTrainee(w http.ResponseWriter, r *http.Request) {
	traineeID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	snap, err := h.svc.ComputeForTrainee(r.Context(), traineeID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
