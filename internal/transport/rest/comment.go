package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/praxislog/logbook-backend/internal/domain"
	"github.com/praxislog/logbook-backend/internal/service/comment"
)

type commentService interface {
	Add(ctx context.Context, in comment.AddInput) (domain.Comment, error)
	List(ctx context.Context, logbookID uuid.UUID) ([]domain.Comment, error)
}

// CommentHandler serves comment thread endpoints.
type CommentHandler struct {
	svc commentService
	log *slog.Logger
}

// NewCommentHandler creates a CommentHandler.
func NewCommentHandler(svc commentService, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{svc: svc, log: logger.With("handler", "comment")}
}

type addCommentRequest struct {
	Text      string  `json:"text"`
	Scope     string  `json:"scope"`
	SectionID *string `json:"sectionId,omitempty"`
	RecordID  *string `json:"recordId,omitempty"`
	ParentID  *string `json:"parentId,omitempty"`
}

type commentResponse struct {
	ID        string            `json:"id"`
	LogbookID string            `json:"logbookId"`
	AuthorID  string            `json:"authorId"`
	Scope     string            `json:"scope"`
	SectionID *string           `json:"sectionId,omitempty"`
	RecordID  *string           `json:"recordId,omitempty"`
	ParentID  *string           `json:"parentId,omitempty"`
	Text      string            `json:"text"`
	CreatedAt time.Time         `json:"createdAt"`
	Children  []commentResponse `json:"children,omitempty"`
}

func toCommentResponse(c domain.Comment) commentResponse {
	out := commentResponse{
		ID:        c.ID.String(),
		LogbookID: c.LogbookID.String(),
		AuthorID:  c.AuthorID.String(),
		Scope:     c.Scope.String(),
		SectionID: uuidPtrString(c.SectionID),
		RecordID:  uuidPtrString(c.RecordID),
		ParentID:  uuidPtrString(c.ParentID),
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
	}
	for _, child := range c.Children {
		out.Children = append(out.Children, toCommentResponse(child))
	}
	return out
}

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func parseUUIDPtr(s *string) (*uuid.UUID, error) {
	if s == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// Add handles POST /logbooks/{id}/comments.
func (h *CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	logbookID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req addCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sectionID, err := parseUUIDPtr(req.SectionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid sectionId")
		return
	}
	recordID, err := parseUUIDPtr(req.RecordID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid recordId")
		return
	}
	parentID, err := parseUUIDPtr(req.ParentID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid parentId")
		return
	}

	c, err := h.svc.Add(r.Context(), comment.AddInput{
		LogbookID: logbookID,
		Text:      req.Text,
		Scope:     domain.CommentScope(req.Scope),
		SectionID: sectionID,
		RecordID:  recordID,
		ParentID:  parentID,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCommentResponse(c))
}

// List handles GET /logbooks/{id}/comments.
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	logbookID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	comments, err := h.svc.List(r.Context(), logbookID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	out := make([]commentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, toCommentResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}
