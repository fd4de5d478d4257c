// Package maintsvc coordinates maintenance record operations: validation,
// persistence, completion, aggregation, and template-driven drafts.
package maintsvc

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ravlen/upkeep/internal/apperr"
	"github.com/ravlen/upkeep/internal/catalog"
	"github.com/ravlen/upkeep/internal/models"
	"github.com/ravlen/upkeep/internal/schedule"
	"github.com/ravlen/upkeep/internal/store"
	"github.com/ravlen/upkeep/internal/wiredate"
)

// completionWindow is how far a completion timestamp may deviate from the
// scheduled date in either direction.
const completionWindow = 15 * 24 * time.Hour

// PublishFunc receives record lifecycle events
// (created, updated, deleted, completed).
type PublishFunc func(kind, id string)

// RecordInput is the editable snapshot of a record as submitted by clients.
// Date fields are local date-time strings; they are normalized to wire form
// during validation.
type RecordInput struct {
	Title         string           `json:"title"`
	ScheduledDate string           `json:"scheduled_date"`
	CompletedDate string           `json:"completed_date"`
	Frequency     models.Frequency `json:"frequency"`
	CustomDays    int              `json:"custom_days"`
	Notes         string           `json:"notes"`
	TemplateID    string           `json:"template_id"`
	MachineIDs    []string         `json:"machine_ids"`
	TopicIDs      []string         `json:"topic_ids"`
	Assignee      string           `json:"assignee"`
	BeforeImage   string           `json:"before_image"`
	AfterImage    string           `json:"after_image"`
}

// RecordView is a record together with its derived status.
type RecordView struct {
	models.MaintenanceRecord
	Status models.Status `json:"status"`
}

// Stats are the dashboard aggregates, derived on demand and never stored.
type Stats struct {
	Total       int                      `json:"total"`
	Pending     int                      `json:"pending"`
	Overdue     int                      `json:"overdue"`
	Completed   int                      `json:"completed"`
	ByFrequency map[models.Frequency]int `json:"by_frequency"`
}

// Service owns maintenance record business logic on top of the store.
type Service struct {
	store   store.Store
	publish PublishFunc
	now     func() time.Time
}

// NewService creates a record service. publish may be nil when no event
// consumer is wired.
func NewService(s store.Store, publish PublishFunc) *Service {
	if publish == nil {
		publish = func(string, string) {}
	}
	return &Service{store: s, publish: publish, now: time.Now}
}

// view attaches the derived status to a record.
func (s *Service) view(rec models.MaintenanceRecord) RecordView {
	scheduled, _ := wiredate.Parse(rec.ScheduledDate)
	return RecordView{
		MaintenanceRecord: rec,
		Status:            models.DeriveStatus(rec.CompletedDate, scheduled, s.now()),
	}
}

// validate applies the shared field rules. creating controls the
// completed-date policy: absent on create, ordered after the scheduled date
// on edit.
func (s *Service) validate(in *RecordInput, creating bool) error {
	fe := apperr.FieldErrors{}

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		fe.Add("title", "title is required")
	}

	var scheduled time.Time
	if in.ScheduledDate == "" {
		fe.Add("scheduled_date", "scheduled date is required")
	} else {
		t, err := wiredate.Parse(in.ScheduledDate)
		if err != nil {
			fe.Add("scheduled_date", "unrecognized date format")
		} else {
			scheduled = t
			in.ScheduledDate = wiredate.Format(t)
		}
	}

	if creating && in.CompletedDate != "" {
		fe.Add("completed_date", "completed date must be absent when creating")
	}
	if !creating && in.CompletedDate != "" {
		t, err := wiredate.Parse(in.CompletedDate)
		switch {
		case err != nil:
			fe.Add("completed_date", "unrecognized date format")
		case !scheduled.IsZero() && t.Before(scheduled):
			fe.Add("completed_date", "completed date cannot precede the scheduled date")
		default:
			in.CompletedDate = wiredate.Format(t)
		}
	}

	if in.Frequency == "" {
		in.Frequency = models.FreqMonthly
	}
	if !in.Frequency.Valid() {
		fe.Add("frequency", "unknown frequency")
	}
	if in.Frequency != models.FreqCustom {
		// The custom interval is meaningful only for custom frequency.
		in.CustomDays = 0
	} else if in.CustomDays < 0 {
		fe.Add("custom_days", "custom interval must be positive")
	}

	return fe.OrNil()
}

// Create validates and persists a new record.
func (s *Service) Create(_ context.Context, in RecordInput) (*RecordView, error) {
	if err := s.validate(&in, true); err != nil {
		return nil, err
	}
	now := s.now()
	rec := models.MaintenanceRecord{
		ID:            uuid.NewString(),
		Title:         in.Title,
		ScheduledDate: in.ScheduledDate,
		Frequency:     in.Frequency,
		CustomDays:    in.CustomDays,
		Notes:         in.Notes,
		TemplateID:    in.TemplateID,
		MachineIDs:    nonNilSlice(in.MachineIDs),
		TopicIDs:      nonNilSlice(in.TopicIDs),
		Assignee:      in.Assignee,
		BeforeImage:   in.BeforeImage,
		AfterImage:    in.AfterImage,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.UpsertRecord(rec); err != nil {
		return nil, err
	}
	s.publish("created", rec.ID)
	v := s.view(rec)
	return &v, nil
}

// Get returns one record with its derived status.
func (s *Service) Get(_ context.Context, id string) (*RecordView, error) {
	rec, err := s.store.GetRecord(id)
	if err != nil {
		return nil, err
	}
	v := s.view(*rec)
	return &v, nil
}

// Update validates and persists changes to an existing record.
func (s *Service) Update(_ context.Context, id string, in RecordInput) (*RecordView, error) {
	existing, err := s.store.GetRecord(id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(&in, false); err != nil {
		return nil, err
	}
	rec := models.MaintenanceRecord{
		ID:            existing.ID,
		Title:         in.Title,
		ScheduledDate: in.ScheduledDate,
		CompletedDate: in.CompletedDate,
		Frequency:     in.Frequency,
		CustomDays:    in.CustomDays,
		Notes:         in.Notes,
		TemplateID:    in.TemplateID,
		MachineIDs:    nonNilSlice(in.MachineIDs),
		TopicIDs:      nonNilSlice(in.TopicIDs),
		Assignee:      in.Assignee,
		BeforeImage:   in.BeforeImage,
		AfterImage:    in.AfterImage,
		CreatedAt:     existing.CreatedAt,
		UpdatedAt:     s.now(),
	}
	if err := s.store.UpsertRecord(rec); err != nil {
		return nil, err
	}
	s.publish("updated", rec.ID)
	v := s.view(rec)
	return &v, nil
}

// Delete removes a record.
func (s *Service) Delete(_ context.Context, id string) error {
	if err := s.store.DeleteRecord(id); err != nil {
		return err
	}
	s.publish("deleted", id)
	return nil
}

// List returns a page of records with derived statuses plus the total count.
func (s *Service) List(_ context.Context, limit, offset int, f store.RecordFilter) ([]RecordView, int, error) {
	recs, total, err := s.store.ListRecords(limit, offset, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]RecordView, len(recs))
	for i, rec := range recs {
		out[i] = s.view(rec)
	}
	return out, total, nil
}

// Stats derives the dashboard aggregates across all records.
func (s *Service) Stats(_ context.Context) (Stats, error) {
	recs, err := s.store.AllRecords()
	if err != nil {
		return Stats{}, err
	}
	st := Stats{ByFrequency: make(map[models.Frequency]int)}
	now := s.now()
	for _, rec := range recs {
		st.Total++
		st.ByFrequency[rec.Frequency]++
		scheduled, _ := wiredate.Parse(rec.ScheduledDate)
		switch models.DeriveStatus(rec.CompletedDate, scheduled, now) {
		case models.StatusCompleted:
			st.Completed++
		case models.StatusOverdue:
			st.Overdue++
		default:
			st.Pending++
		}
	}
	return st, nil
}

// Complete marks a record completed. The completion timestamp must parse and
// fall within the ±15-day window around the scheduled date. The returned
// string is the next scheduled date, computed from the completion time and
// the record's frequency.
func (s *Service) Complete(_ context.Context, id, completedDate string) (*RecordView, string, error) {
	rec, err := s.store.GetRecord(id)
	if err != nil {
		return nil, "", err
	}
	if rec.CompletedDate != "" {
		return nil, "", apperr.ErrConflict
	}

	fe := apperr.FieldErrors{}
	var completed time.Time
	if completedDate == "" {
		fe.Add("completed_date", "completed date is required")
	} else if t, perr := wiredate.Parse(completedDate); perr != nil {
		fe.Add("completed_date", "unrecognized date format")
	} else {
		completed = t
	}
	scheduled, _ := wiredate.Parse(rec.ScheduledDate)
	if !completed.IsZero() {
		if d := completed.Sub(scheduled); d < -completionWindow || d > completionWindow {
			fe.Add("completed_date", "completion must fall within 15 days of the scheduled date")
		}
	}
	if err := fe.OrNil(); err != nil {
		return nil, "", err
	}

	rec.CompletedDate = wiredate.Format(completed)
	rec.UpdatedAt = s.now()
	if err := s.store.UpsertRecord(*rec); err != nil {
		return nil, "", err
	}
	s.publish("completed", rec.ID)

	next := wiredate.Format(schedule.NextDate(completed, rec.Frequency, rec.CustomDays))
	v := s.view(*rec)
	return &v, next, nil
}

// Search runs full-text search over record titles and notes.
func (s *Service) Search(_ context.Context, query string, limit int) ([]store.SearchResult, error) {
	return s.store.Search(query, limit)
}

// MatchTemplates filters the template catalog to the given machines.
func (s *Service) MatchTemplates(ctx context.Context, machineIDs []string) ([]models.TaskTemplate, error) {
	templates, err := s.store.ListTemplates(0)
	if err != nil {
		return nil, err
	}
	return catalog.MatchTemplates(ctx, machineIDs, templates, catalog.NewStoreLookup(s.store)), nil
}

// FromTemplate builds a record draft pre-populated from a template: title and
// frequency come from the template, the scheduled date is the template's next
// occurrence from now.
func (s *Service) FromTemplate(_ context.Context, templateID string) (*RecordInput, error) {
	t, err := s.store.GetTemplate(templateID)
	if err != nil {
		return nil, err
	}
	return &RecordInput{
		Title:         t.Name,
		ScheduledDate: wiredate.Format(schedule.NextDate(s.now(), t.Frequency, t.CustomDays)),
		Frequency:     t.Frequency,
		CustomDays:    t.CustomDays,
		TemplateID:    t.ID,
		MachineIDs:    []string{},
		TopicIDs:      []string{},
	}, nil
}

func nonNilSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
