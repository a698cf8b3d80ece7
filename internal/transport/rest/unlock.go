package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/praxislog/logbook-backend/internal/domain"
	"github.com/praxislog/logbook-backend/internal/service/unlock"
)

type unlockService interface {
	Request(ctx context.Context, in unlock.RequestInput) (domain.UnlockRequest, error)
	Grant(ctx context.Context, requestID uuid.UUID, durationMinutes int) (domain.UnlockRequest, error)
	Deny(ctx context.Context, requestID uuid.UUID, reason string) (domain.UnlockRequest, error)
	History(ctx context.Context, logbookID uuid.UUID) ([]domain.UnlockRequest, error)
}

// UnlockHandler serves the unlock workflow endpoints.
type UnlockHandler struct {
	svc unlockService
	log *slog.Logger
}

// NewUnlockHandler creates an UnlockHandler.
func NewUnlockHandler(svc unlockService, logger *slog.Logger) *UnlockHandler {
	return &UnlockHandler{svc: svc, log: logger.With("handler", "unlock")}
}

type unlockRequestBody struct {
	Reason string `json:"reason"`
}

type grantRequestBody struct {
	DurationMinutes int `json:"durationMinutes"`
}

type denyRequestBody struct {
	Reason string `json:"reason"`
}

type unlockResponse struct {
	ID              string     `json:"id"`
	LogbookID       string     `json:"logbookId"`
	RequestedBy     string     `json:"requestedBy"`
	Reason          string     `json:"reason"`
	Status          string     `json:"status"`
	RequestedAt     time.Time  `json:"requestedAt"`
	ResolvedBy      *string    `json:"resolvedBy,omitempty"`
	GrantedAt       *time.Time `json:"grantedAt,omitempty"`
	UnlockExpiresAt *time.Time `json:"unlockExpiresAt,omitempty"`
	DurationMinutes int        `json:"durationMinutes,omitempty"`
}

func toUnlockResponse(req domain.UnlockRequest) unlockResponse {
	out := unlockResponse{
		ID:              req.ID.String(),
		LogbookID:       req.LogbookID.String(),
		RequestedBy:     req.RequestedBy.String(),
		Reason:          req.Reason,
		Status:          req.Status.String(),
		RequestedAt:     req.RequestedAt,
		GrantedAt:       req.GrantedAt,
		UnlockExpiresAt: req.UnlockExpiresAt,
		DurationMinutes: req.DurationMinutes,
	}
	if req.ResolvedBy != nil {
		s := req.ResolvedBy.String()
		out.ResolvedBy = &s
	}
	return out
}

// Request handles POST /logbooks/{id}/unlock-requests.
func (h *UnlockHandler) Request(w http.ResponseWriter, r *http.Request) {
	logbookID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var body unlockRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := h.svc.Request(r.Context(), unlock.RequestInput{
		LogbookID: logbookID,
		Reason:    body.Reason,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUnlockResponse(req))
}

// Grant handles POST /unlock-requests/{id}/grant.
func (h *UnlockHandler) Grant(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var body grantRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := h.svc.Grant(r.Context(), requestID, body.DurationMinutes)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toUnlockResponse(req))
}

// Deny handles POST /unlock-requests/{id}/deny.
func (h *UnlockHandler) Deny(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var body denyRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := h.svc.Deny(r.Context(), requestID, body.Reason)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toUnlockResponse(req))
}

// History handles GET /logbooks/{id}/unlock-requests.
func (h *UnlockHandler) History(w http.ResponseWriter, r *http.Request) {
	logbookID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	reqs, err := h.svc.History(r.Context(), logbookID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	out := make([]unlockResponse, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, toUnlockResponse(req))
	}
	writeJSON(w, http.StatusOK, out)
}
