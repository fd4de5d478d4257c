// Package models defines the domain entities shared across the service.
package models

import "time"

// Frequency is the recurrence interval of a maintenance task.
type Frequency string

const (
	FreqDaily      Frequency = "daily"
	FreqWeekly     Frequency = "weekly"
	FreqMonthly    Frequency = "monthly"
	FreqQuarterly  Frequency = "quarterly"
	FreqSemiAnnual Frequency = "semi_annual"
	FreqAnnual     Frequency = "annual"
	FreqCustom     Frequency = "custom"
)

// Frequencies lists every recognized frequency value.
var Frequencies = []Frequency{
	FreqDaily, FreqWeekly, FreqMonthly, FreqQuarterly,
	FreqSemiAnnual, FreqAnnual, FreqCustom,
}

// Valid reports whether f is a recognized frequency value.
func (f Frequency) Valid() bool {
	for _, v := range Frequencies {
		if f == v {
			return true
		}
	}
	return false
}

// Status is the derived state of a maintenance record. It is a pure
// projection of the record's dates and is never stored.
type Status string

const (
	StatusPending   Status = "pending"
	StatusOverdue   Status = "overdue"
	StatusCompleted Status = "completed"
)

// MaintenanceRecord is a scheduled maintenance task. Date fields hold the
// wire format ("YYYY-MM-DDTHH:mm", no zone suffix).
type MaintenanceRecord struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	ScheduledDate string    `json:"scheduled_date"`
	CompletedDate string    `json:"completed_date,omitempty"`
	Frequency     Frequency `json:"frequency"`
	CustomDays    int       `json:"custom_days,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	TemplateID    string    `json:"template_id,omitempty"`
	MachineIDs    []string  `json:"machine_ids"`
	TopicIDs      []string  `json:"topic_ids"`
	Assignee      string    `json:"assignee,omitempty"`
	BeforeImage   string    `json:"before_image,omitempty"`
	AfterImage    string    `json:"after_image,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DeriveStatus projects a record's status from its dates: completed when a
// completion date exists, overdue when the scheduled time is strictly in the
// past, pending otherwise. scheduled is the parsed scheduled date.
func DeriveStatus(completedDate string, scheduled time.Time, now time.Time) Status {
	if completedDate != "" {
		return StatusCompleted
	}
	if scheduled.Before(now) {
		return StatusOverdue
	}
	return StatusPending
}
