package models

// MachineSummary describes a machine that maintenance can target.
// GroupID is the opaque tag used for template matching; TemplateIDs are
// templates explicitly linked to this machine.
type MachineSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	GroupID     string   `json:"group_id,omitempty"`
	PropertyID  string   `json:"property_id,omitempty"`
	TemplateIDs []string `json:"template_ids,omitempty"`
}

// TaskTemplate is a reusable task definition from the read-only catalog.
type TaskTemplate struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	GroupID    string    `json:"group_id,omitempty"`
	Frequency  Frequency `json:"frequency"`
	CustomDays int       `json:"custom_days,omitempty"`
	Category   string    `json:"category,omitempty"`
	Difficulty string    `json:"difficulty,omitempty"`
	Department string    `json:"department,omitempty"`
}

// Topic is a maintenance topic a record can reference.
type Topic struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
