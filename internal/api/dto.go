package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/ravlen/upkeep/internal/maintsvc"
	"github.com/ravlen/upkeep/internal/models"
	"github.com/ravlen/upkeep/internal/store"
)

// SaveRecordRequest is the request body for creating or updating a record.
// Shape-level rules live here; cross-field rules (date ordering, completion
// policy) belong to the service.
type SaveRecordRequest maintsvc.RecordInput

// Validate validates the request surface.
func (r SaveRecordRequest) Validate() error {
	freqs := make([]any, len(models.Frequencies))
	for i, f := range models.Frequencies {
		freqs[i] = f
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.ScheduledDate, validation.Required),
		validation.Field(&r.Frequency, validation.In(freqs...)),
		validation.Field(&r.CustomDays, validation.Min(0)),
	)
}

// CompleteRequest is the request body for marking a record completed.
type CompleteRequest struct {
	CompletedDate string `json:"completed_date"`
}

// Validate validates the completion request.
func (r CompleteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CompletedDate, validation.Required),
	)
}

// MatchTemplatesRequest is the request body for template matching.
type MatchTemplatesRequest struct {
	MachineIDs []string `json:"machine_ids"`
}

// RecordListResponse wraps paginated record listings.
type RecordListResponse struct {
	Records []maintsvc.RecordView `json:"records"`
	Total   int                   `json:"total"`
}

// CompleteResponse is returned after a successful completion.
type CompleteResponse struct {
	Record            maintsvc.RecordView `json:"record"`
	NextScheduledDate string              `json:"next_scheduled_date"`
}

// SearchResponse wraps full-text search results.
type SearchResponse struct {
	Results []store.SearchResult `json:"results"`
}

// MatchTemplatesResponse wraps matched templates.
type MatchTemplatesResponse struct {
	Templates []models.TaskTemplate `json:"templates"`
}

// AttachmentUploadResponse is returned after a successful upload.
type AttachmentUploadResponse struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
	URL      string `json:"url"`
}
