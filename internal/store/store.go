package store

import "github.com/ravlen/upkeep/internal/models"

// RecordFilter narrows record listings.
type RecordFilter struct {
	Frequency models.Frequency
	MachineID string
	Assignee  string
}

// Store defines the persistence operations the service layer depends on.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing with mocks.
type Store interface {
	UpsertRecord(rec models.MaintenanceRecord) error
	GetRecord(id string) (*models.MaintenanceRecord, error)
	DeleteRecord(id string) error
	ListRecords(limit, offset int, f RecordFilter) ([]models.MaintenanceRecord, int, error)
	AllRecords() ([]models.MaintenanceRecord, error)
	Search(query string, limit int) ([]SearchResult, error)

	ReplaceCatalog(machines []models.MachineSummary, templates []models.TaskTemplate, topics []models.Topic) error
	ListMachines(propertyID string) ([]models.MachineSummary, error)
	GetMachine(id string) (*models.MachineSummary, error)
	ListTemplates(limit int) ([]models.TaskTemplate, error)
	GetTemplate(id string) (*models.TaskTemplate, error)
	ListTopics() ([]models.Topic, error)

	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
