package rest

import "net/http"

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth       *AuthHandler
	Logbook    *LogbookHandler
	Hours      *HoursHandler
	Unlock     *UnlockHandler
	Comment    *CommentHandler
	Compliance *ComplianceHandler
	Program    *ProgramHandler
	Audit      *AuditHandler
	Health     *HealthHandler

	// LoginLimit, when set, wraps the password login route. Credential
	// endpoints are the only per-route limited surface.
	LoginLimit func(http.Handler) http.Handler
}

// NewRouter mounts all REST routes on a fresh mux. Authentication and the
// rest of the middleware chain wrap the returned handler in the app layer.
func NewRouter(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	login := http.Handler(http.HandlerFunc(h.Auth.Login))
	if h.LoginLimit != nil {
		login = h.LoginLimit(login)
	}
	mux.Handle("POST /api/v1/auth/login", login)

	mux.HandleFunc("POST /api/v1/logbooks", h.Logbook.Create)
	mux.HandleFunc("GET /api/v1/logbooks", h.Logbook.ListMine)
	mux.HandleFunc("GET /api/v1/logbooks/{id}", h.Logbook.Get)
	mux.HandleFunc("PUT /api/v1/logbooks/{id}/sections/{sectionId}", h.Logbook.UpdateSection)
	mux.HandleFunc("POST /api/v1/logbooks/{id}/transition", h.Logbook.Transition)
	mux.HandleFunc("GET /api/v1/logbooks/{id}/document", h.Logbook.Document)
	mux.HandleFunc("GET /api/v1/review-queue", h.Logbook.ReviewQueue)

	mux.HandleFunc("POST /api/v1/logbooks/{id}/hours", h.Hours.Create)
	mux.HandleFunc("GET /api/v1/logbooks/{id}/hours", h.Hours.List)
	mux.HandleFunc("PUT /api/v1/hours/{id}", h.Hours.Update)
	mux.HandleFunc("DELETE /api/v1/hours/{id}", h.Hours.Delete)

	mux.HandleFunc("POST /api/v1/logbooks/{id}/unlock-requests", h.Unlock.Request)
	mux.HandleFunc("GET /api/v1/logbooks/{id}/unlock-requests", h.Unlock.History)
	mux.HandleFunc("POST /api/v1/unlock-requests/{id}/grant", h.Unlock.Grant)
	mux.HandleFunc("POST /api/v1/unlock-requests/{id}/deny", h.Unlock.Deny)

	mux.HandleFunc("POST /api/v1/logbooks/{id}/comments", h.Comment.Add)
	mux.HandleFunc("GET /api/v1/logbooks/{id}/comments", h.Comment.List)

	mux.HandleFunc("GET /api/v1/logbooks/{id}/audit", h.Audit.Trail)

	mux.HandleFunc("POST /api/v1/programs", h.Program.Create)
	mux.HandleFunc("GET /api/v1/programs/{id}", h.Program.Get)
	mux.HandleFunc("GET /api/v1/me/program", h.Program.GetMine)

	mux.HandleFunc("GET /api/v1/programs/{id}/compliance", h.Compliance.ForProgram)
	mux.HandleFunc("GET /api/v1/trainees/{id}/compliance", h.Compliance.ForTrainee)
	mux.HandleFunc("GET /api/v1/me/compliance", h.Compliance.ForMe)

	mux.HandleFunc("GET /health", h.Health.Health)
	mux.HandleFunc("GET /health/live", h.Health.Live)
	mux.HandleFunc("GET /health/ready", h.Health.Ready)

	return mux
}
