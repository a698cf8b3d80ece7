package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/praxislog/logbook-backend/internal/adapter/renderer"
	"github.com/praxislog/logbook-backend/internal/domain"
	"github.com/praxislog/logbook-backend/internal/service/logbook"
)

type logbookService interface {
	CreateWeek(ctx context.Context, in logbook.CreateWeekInput) (domain.Logbook, error)
	Get(ctx context.Context, logbookID uuid.UUID) (logbook.LogbookView, error)
	ListMine(ctx context.Context, limit, offset int) ([]domain.Logbook, error)
	ReviewQueue(ctx context.Context, status *domain.LogbookStatus, limit, offset int) ([]domain.Logbook, error)
	UpdateSection(ctx context.Context, in logbook.UpdateSectionInput) error
	Transition(ctx context.Context, in logbook.TransitionInput) (domain.Logbook, error)
	DocumentLink(ctx context.Context, logbookID uuid.UUID) (renderer.DocumentResult, error)
}

// LogbookHandler serves logbook lifecycle endpoints.
type LogbookHandler struct {
	svc logbookService
	log *slog.Logger
}

// NewLogbookHandler creates a LogbookHandler.
func NewLogbookHandler(svc logbookService, logger *slog.Logger) *LogbookHandler {
	return &LogbookHandler{svc: svc, log: logger.With("handler", "logbook")}
}

// ---------------------------------------------------------------------------
// Wire types
// ---------------------------------------------------------------------------

type createWeekRequest struct {
	WeekStart    string  `json:"weekStart"` // YYYY-MM-DD
	SupervisorID *string `json:"supervisorId,omitempty"`
}

type updateSectionRequest struct {
	Content map[string]any `json:"content"`
}

type transitionRequest struct {
	Action  string `json:"action"`
	Comment string `json:"comment,omitempty"`
}

type logbookResponse struct {
	ID           string            `json:"id"`
	OwnerID      string            `json:"ownerId"`
	SupervisorID *string           `json:"supervisorId,omitempty"`
	WeekStart    string            `json:"weekStart"`
	Status       string            `json:"status"`
	Totals       totalsResponse    `json:"totals"`
	SubmittedAt  *time.Time        `json:"submittedAt,omitempty"`
	ApprovedAt   *time.Time        `json:"approvedAt,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
	Sections     []sectionResponse `json:"sections,omitempty"`
}

type totalsResponse struct {
	DCC         float64 `json:"dcc"`
	CRA         float64 `json:"cra"`
	Development float64 `json:"development"`
	Supervision float64 `json:"supervision"`
}

type sectionResponse struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Content  map[string]any `json:"content"`
	IsLocked bool           `json:"isLocked"`
}

type logbookViewResponse struct {
	logbookResponse
	Capabilities capabilitiesResponse `json:"capabilities"`
	Actions      []string             `json:"actions"`
}

type capabilitiesResponse struct {
	CanEdit          bool `json:"canEdit"`
	CanSubmit        bool `json:"canSubmit"`
	CanApprove       bool `json:"canApprove"`
	CanReject        bool `json:"canReject"`
	CanRequestUnlock bool `json:"canRequestUnlock"`
	CanGrantUnlock   bool `json:"canGrantUnlock"`
}

func toLogbookResponse(lb domain.Logbook) logbookResponse {
	out := logbookResponse{
		ID:        lb.ID.String(),
		OwnerID:   lb.OwnerID.String(),
		WeekStart: lb.WeekStart.Format("2006-01-02"),
		Status:    lb.Status.String(),
		Totals: totalsResponse{
			DCC:         lb.Totals.DCC,
			CRA:         lb.Totals.CRA,
			Development: lb.Totals.Development,
			Supervision: lb.Totals.Supervision,
		},
		SubmittedAt: lb.SubmittedAt,
		ApprovedAt:  lb.ApprovedAt,
		CreatedAt:   lb.CreatedAt,
		UpdatedAt:   lb.UpdatedAt,
	}
	if lb.SupervisorID != nil {
		s := lb.SupervisorID.String()
		out.SupervisorID = &s
	}
	for _, sec := range lb.Sections {
		out.Sections = append(out.Sections, sectionResponse{
			ID:       sec.ID.String(),
			Type:     string(sec.Type),
			Content:  sec.Content,
			IsLocked: sec.IsLocked,
		})
	}
	return out
}

func toViewResponse(v logbook.LogbookView) logbookViewResponse {
	actions := make([]string, 0, len(v.Actions))
	for _, a := range v.Actions {
		actions = append(actions, a.String())
	}
	return logbookViewResponse{
		logbookResponse: toLogbookResponse(v.Logbook),
		Capabilities: capabilitiesResponse{
			CanEdit:          v.Capabilities.CanEdit,
			CanSubmit:        v.Capabilities.CanSubmit,
			CanApprove:       v.Capabilities.CanApprove,
			CanReject:        v.Capabilities.CanReject,
			CanRequestUnlock: v.Capabilities.CanRequestUnlock,
			CanGrantUnlock:   v.Capabilities.CanGrantUnlock,
		},
		Actions: actions,
	}
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

// Create handles POST /logbooks.
func (h *LogbookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createWeekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	weekStart, err := time.Parse("2006-01-02", req.WeekStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "weekStart must be YYYY-MM-DD")
		return
	}

	in := logbook.CreateWeekInput{WeekStart: weekStart}
	if req.SupervisorID != nil {
		id, err := uuid.Parse(*req.SupervisorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid supervisorId")
			return
		}
		in.SupervisorID = &id
	}

	lb, err := h.svc.CreateWeek(r.Context(), in)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLogbookResponse(lb))
}

// Get handles GET /logbooks/{id}.
func (h *LogbookHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	view, err := h.svc.Get(r.Context(), id)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toViewResponse(view))
}

// ListMine handles GET /logbooks.
func (h *LogbookHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	books, err := h.svc.ListMine(r.Context(), limit, offset)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	out := make([]logbookResponse, 0, len(books))
	for _, lb := range books {
		out = append(out, toLogbookResponse(lb))
	}
	writeJSON(w, http.StatusOK, out)
}

// ReviewQueue handles GET /review-queue.
func (h *LogbookHandler) ReviewQueue(w http.ResponseWriter, r *http.Request) {
	var status *domain.LogbookStatus
	if v := r.URL.Query().Get("status"); v != "" {
		s := domain.LogbookStatus(v)
		status = &s
	}
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	books, err := h.svc.ReviewQueue(r.Context(), status, limit, offset)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	out := make([]logbookResponse, 0, len(books))
	for _, lb := range books {
		out = append(out, toLogbookResponse(lb))
	}
	writeJSON(w, http.StatusOK, out)
}

// UpdateSection handles PUT /logbooks/{id}/sections/{sectionId}.
func (h *LogbookHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	logbookID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	sectionID, ok := pathUUID(w, r, "sectionId")
	if !ok {
		return
	}

	var req updateSectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.svc.UpdateSection(r.Context(), logbook.UpdateSectionInput{
		LogbookID: logbookID,
		SectionID: sectionID,
		Content:   req.Content,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Transition handles POST /logbooks/{id}/transition.
func (h *LogbookHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lb, err := h.svc.Transition(r.Context(), logbook.TransitionInput{
		LogbookID: id,
		Action:    domain.TransitionAction(req.Action),
		Comment:   req.Comment,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toLogbookResponse(lb))
}

type documentResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Document handles GET /logbooks/{id}/document.
func (h *LogbookHandler) Document(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	doc, err := h.svc.DocumentLink(r.Context(), id)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, documentResponse{URL: doc.URL, ExpiresAt: doc.ExpiresAt})
}
