package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/praxislog/logbook-backend/internal/domain"
	"github.com/praxislog/logbook-backend/internal/service/program"
	"github.com/praxislog/logbook-backend/pkg/ctxutil"
)

type programService interface {
	Create(ctx context.Context, in program.CreateInput) (domain.RegistrarProgram, error)
	Get(ctx context.Context, id uuid.UUID) (domain.RegistrarProgram, error)
	GetByTrainee(ctx context.Context, traineeID uuid.UUID) (domain.RegistrarProgram, error)
}

// ProgramHandler serves program configuration endpoints.
type ProgramHandler struct {
	svc programService
	log *slog.Logger
}

// NewProgramHandler creates a ProgramHandler.
func NewProgramHandler(svc programService, logger *slog.Logger) *ProgramHandler {
	return &ProgramHandler{svc: svc, log: logger.With("handler", "program")}
}

type createProgramRequest struct {
	TraineeID        string  `json:"traineeId"`
	AoPE             string  `json:"aope"`
	Tier             string  `json:"tier"`
	FTEFraction      float64 `json:"fteFraction"`
	StartDate        string  `json:"startDate"`       // YYYY-MM-DD
	ExpectedEndDate  string  `json:"expectedEndDate"` // YYYY-MM-DD
	WeeklyCommitment float64 `json:"weeklyCommitment,omitempty"`
}

type programResponse struct {
	ID               string                 `json:"id"`
	TraineeID        string                 `json:"traineeId"`
	AoPE             string                 `json:"aope"`
	Tier             string                 `json:"tier"`
	FTEFraction      float64                `json:"fteFraction"`
	StartDate        string                 `json:"startDate"`
	ExpectedEndDate  string                 `json:"expectedEndDate"`
	WeeklyCommitment float64                `json:"weeklyCommitment,omitempty"`
	Totals           programTotalsResponse  `json:"totals"`
	Targets          programTargetsResponse `json:"targets"`
	CreatedAt        time.Time              `json:"createdAt"`
	UpdatedAt        time.Time              `json:"updatedAt"`
}

type programTotalsResponse struct {
	Practice              float64 `json:"practice"`
	DCC                   float64 `json:"dcc"`
	CRA                   float64 `json:"cra"`
	Development           float64 `json:"development"`
	Supervision           float64 `json:"supervision"`
	SupervisionPrincipal  float64 `json:"supervisionPrincipal"`
	SupervisionIndividual float64 `json:"supervisionIndividual"`
	SupervisionGroup      float64 `json:"supervisionGroup"`
	SupervisionShort      float64 `json:"supervisionShort"`
	ActiveDevelopment     float64 `json:"activeDevelopment"`
}

type programTargetsResponse struct {
	Practice    float64 `json:"practice"`
	Supervision float64 `json:"supervision"`
	Development float64 `json:"development"`
}

func toProgramResponse(p domain.RegistrarProgram) programResponse {
	targets := domain.TargetsFor(p.Tier)
	return programResponse{
		ID:               p.ID.String(),
		TraineeID:        p.TraineeID.String(),
		AoPE:             p.AoPE,
		Tier:             p.Tier.String(),
		FTEFraction:      p.FTEFraction,
		StartDate:        p.StartDate.Format("2006-01-02"),
		ExpectedEndDate:  p.ExpectedEndDate.Format("2006-01-02"),
		WeeklyCommitment: p.WeeklyCommitment,
		Totals: programTotalsResponse{
			Practice:              p.Totals.Practice,
			DCC:                   p.Totals.DCC,
			CRA:                   p.Totals.CRA,
			Development:           p.Totals.Development,
			Supervision:           p.Totals.Supervision,
			SupervisionPrincipal:  p.Totals.SupervisionPrincipal,
			SupervisionIndividual: p.Totals.SupervisionIndividual,
			SupervisionGroup:      p.Totals.SupervisionGroup,
			SupervisionShort:      p.Totals.SupervisionShort,
			ActiveDevelopment:     p.Totals.ActiveDevelopment,
		},
		Targets: programTargetsResponse{
			Practice:    targets.Practice,
			Supervision: targets.Supervision,
			Development: targets.Development,
		},
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// Create handles POST /programs.
func (h *ProgramHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProgramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	traineeID, err := uuid.Parse(req.TraineeID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid traineeId")
		return
	}
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "startDate must be YYYY-MM-DD")
		return
	}
	endDate, err := time.Parse("2006-01-02", req.ExpectedEndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "expectedEndDate must be YYYY-MM-DD")
		return
	}

	prog, err := h.svc.Create(r.Context(), program.CreateInput{
		TraineeID:        traineeID,
		AoPE:             req.AoPE,
		Tier:             domain.QualificationTier(req.Tier),
		FTEFraction:      req.FTEFraction,
		StartDate:        startDate,
		ExpectedEndDate:  endDate,
		WeeklyCommitment: req.WeeklyCommitment,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProgramResponse(prog))
}

// Get handles GET /programs/{id}.
func (h *ProgramHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	prog, err := h.svc.Get(r.Context(), id)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toProgramResponse(prog))
}

// GetMine handles GET /me/program: the caller's own program.
func (h *ProgramHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	prog, err := h.svc.GetByTrainee(r.Context(), userID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toProgramResponse(prog))
}
