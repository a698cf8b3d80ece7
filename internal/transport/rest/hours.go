package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/praxislog/logbook-backend/internal/domain"
	"github.com/praxislog/logbook-backend/internal/service/hours"
)

type hoursService interface {
	Create(ctx context.Context, in hours.CreateInput) (domain.HourRecord, error)
	Update(ctx context.Context, in hours.UpdateInput) (domain.HourRecord, error)
	Delete(ctx context.Context, recordID uuid.UUID) error
	ListByLogbook(ctx context.Context, logbookID uuid.UUID) ([]domain.HourRecord, error)
}

// HoursHandler serves hour record endpoints.
type HoursHandler struct {
	svc hoursService
	log *slog.Logger
}

// NewHoursHandler creates an HoursHandler.
func NewHoursHandler(svc hoursService, logger *slog.Logger) *HoursHandler {
	return &HoursHandler{svc: svc, log: logger.With("handler", "hours")}
}

type hourRecordRequest struct {
	Category            string  `json:"category"`
	DurationMinutes     int     `json:"durationMinutes"`
	Date                string  `json:"date"` // YYYY-MM-DD
	Description         string  `json:"description,omitempty"`
	SupervisionMode     *string `json:"supervisionMode,omitempty"`
	PrincipalSupervisor bool    `json:"principalSupervisor,omitempty"`
	ActiveDevelopment   bool    `json:"activeDevelopment,omitempty"`
}

type hourRecordResponse struct {
	ID                  string    `json:"id"`
	LogbookID           string    `json:"logbookId"`
	Category            string    `json:"category"`
	DurationMinutes     int       `json:"durationMinutes"`
	Hours               float64   `json:"hours"`
	Date                string    `json:"date"`
	Description         string    `json:"description,omitempty"`
	SupervisionMode     *string   `json:"supervisionMode,omitempty"`
	PrincipalSupervisor bool      `json:"principalSupervisor,omitempty"`
	ActiveDevelopment   bool      `json:"activeDevelopment,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

func toHourRecordResponse(rec domain.HourRecord) hourRecordResponse {
	out := hourRecordResponse{
		ID:                  rec.ID.String(),
		LogbookID:           rec.LogbookID.String(),
		Category:            rec.Category.String(),
		DurationMinutes:     rec.DurationMinutes,
		Hours:               rec.Hours(),
		Date:                rec.Date.Format("2006-01-02"),
		Description:         rec.Description,
		PrincipalSupervisor: rec.PrincipalSupervisor,
		ActiveDevelopment:   rec.ActiveDevelopment,
		CreatedAt:           rec.CreatedAt,
		UpdatedAt:           rec.UpdatedAt,
	}
	if rec.SupervisionMode != nil {
		s := rec.SupervisionMode.String()
		out.SupervisionMode = &s
	}
	return out
}

// parse turns the wire request into service input fields shared by create
// and update.
func (req hourRecordRequest) parse() (domain.HourCategory, time.Time, *domain.SupervisionMode, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return "", time.Time{}, nil, err
	}
	var mode *domain.SupervisionMode
	if req.SupervisionMode != nil {
		m := domain.SupervisionMode(*req.SupervisionMode)
		mode = &m
	}
	return domain.HourCategory(req.Category), date, mode, nil
}

// Create handles POST /logbooks/{id}/hours.
func (h *HoursHandler) Create(w http.ResponseWriter, r *http.Request) {
	logbookID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req hourRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	category, date, mode, err := req.parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	rec, err := h.svc.Create(r.Context(), hours.CreateInput{
		LogbookID:           logbookID,
		Category:            category,
		DurationMinutes:     req.DurationMinutes,
		Date:                date,
		Description:         req.Description,
		SupervisionMode:     mode,
		PrincipalSupervisor: req.PrincipalSupervisor,
		ActiveDevelopment:   req.ActiveDevelopment,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toHourRecordResponse(rec))
}

// Update handles PUT /hours/{id}.
func (h *HoursHandler) Update(w http.ResponseWriter, r *http.Request) {
	recordID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req hourRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	category, date, mode, err := req.parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	rec, err := h.svc.Update(r.Context(), hours.UpdateInput{
		RecordID:            recordID,
		Category:            category,
		DurationMinutes:     req.DurationMinutes,
		Date:                date,
		Description:         req.Description,
		SupervisionMode:     mode,
		PrincipalSupervisor: req.PrincipalSupervisor,
		ActiveDevelopment:   req.ActiveDevelopment,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toHourRecordResponse(rec))
}

// Delete handles DELETE /hours/{id}.
func (h *HoursHandler) Delete(w http.ResponseWriter, r *http.Request) {
	recordID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), recordID); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /logbooks/{id}/hours.
func (h *HoursHandler) List(w http.ResponseWriter, r *http.Request) {
	logbookID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	recs, err := h.svc.ListByLogbook(r.Context(), logbookID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	out := make([]hourRecordResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toHourRecordResponse(rec))
	}
	writeJSON(w, http.StatusOK, out)
}
