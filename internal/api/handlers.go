package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ravlen/upkeep/internal/maintsvc"
	"github.com/ravlen/upkeep/internal/models"
	"github.com/ravlen/upkeep/internal/store"
)

const maxBodyBytes = 1 << 20 // 1 MB

// Handler holds the maintenance record route handlers.
type Handler struct {
	svc *maintsvc.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *maintsvc.Service) *Handler {
	return &Handler{svc: svc}
}

// ListRecords handles GET /maintenance.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	filter := store.RecordFilter{
		Frequency: models.Frequency(q.Get("frequency")),
		MachineID: q.Get("machine"),
		Assignee:  q.Get("assignee"),
	}

	records, total, err := h.svc.List(r.Context(), limit, offset, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RecordListResponse{Records: records, Total: total})
}

// GetRecord handles GET /maintenance/{id}.
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// CreateRecord handles POST /maintenance.
func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req SaveRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, err)
		return
	}
	rec, err := h.svc.Create(r.Context(), maintsvc.RecordInput(req))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// UpdateRecord handles PUT /maintenance/{id}.
func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req SaveRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, err)
		return
	}
	rec, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), maintsvc.RecordInput(req))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// DeleteRecord handles DELETE /maintenance/{id}.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CompleteRecord handles POST /maintenance/{id}/complete.
func (h *Handler) CompleteRecord(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, err)
		return
	}
	rec, next, err := h.svc.Complete(r.Context(), chi.URLParam(r, "id"), req.CompletedDate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CompleteResponse{Record: *rec, NextScheduledDate: next})
}

// Stats handles GET /maintenance/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Search handles GET /maintenance/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if results == nil {
		results = []store.SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Report handles GET /maintenance/{id}/report, returning the printable
// HTML snapshot.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	html, err := h.svc.Report(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(html)
}

// ListMachines handles GET /machines.
func (h *Handler) ListMachines(w http.ResponseWriter, r *http.Request) {
	machines, err := h.svc.ListMachines(r.Context(), r.URL.Query().Get("property"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"machines": machines})
}

// GetMachine handles GET /machines/{id}.
func (h *Handler) GetMachine(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.GetMachine(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// ListTemplates handles GET /templates.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	templates, err := h.svc.ListTemplates(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": templates})
}

// TemplateDraft handles GET /templates/{id}/draft, returning a record draft
// pre-populated from the template.
func (h *Handler) TemplateDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.svc.FromTemplate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// MatchTemplates handles POST /templates/match.
func (h *Handler) MatchTemplates(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req MatchTemplatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	templates, err := h.svc.MatchTemplates(r.Context(), req.MachineIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MatchTemplatesResponse{Templates: templates})
}

// ListTopics handles GET /topics.
func (h *Handler) ListTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.svc.ListTopics(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": topics})
}
