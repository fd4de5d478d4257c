package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ravlen/upkeep/internal/maintsvc"
)

// NewRouter creates a chi router with all API routes mounted.
// authMode is one of "disabled", "token", "jwt"; token and jwtSecret apply
// to the corresponding modes. sseHandler, if non-nil, is mounted at
// GET /events inside the auth group.
func NewRouter(svc *maintsvc.Service, ah *AttachmentHandler, authMode, token, jwtSecret string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authMode, token, jwtSecret))

	// Maintenance records.
	r.Get("/maintenance", h.ListRecords)
	r.Post("/maintenance", h.CreateRecord)
	r.Get("/maintenance/stats", h.Stats)
	r.Get("/maintenance/search", h.Search)
	r.Get("/maintenance/{id}", h.GetRecord)
	r.Put("/maintenance/{id}", h.UpdateRecord)
	r.Delete("/maintenance/{id}", h.DeleteRecord)
	r.Post("/maintenance/{id}/complete", h.CompleteRecord)
	r.Get("/maintenance/{id}/report", h.Report)

	// Catalog (read-only, seeded from file).
	r.Get("/machines", h.ListMachines)
	r.Get("/machines/{id}", h.GetMachine)
	r.Get("/templates", h.ListTemplates)
	r.Get("/templates/{id}/draft", h.TemplateDraft)
	r.Post("/templates/match", h.MatchTemplates)
	r.Get("/topics", h.ListTopics)

	// Attachments (before/after images).
	if ah != nil {
		r.Post("/attachments", ah.Upload)
		r.Get("/attachments/{filename}", ah.ServeFile)
	}

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
