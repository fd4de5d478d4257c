package maintsvc

import (
	"context"

	"github.com/ravlen/upkeep/internal/models"
)

// ListMachines returns machines, optionally filtered by property id.
func (s *Service) ListMachines(_ context.Context, propertyID string) ([]models.MachineSummary, error) {
	return s.store.ListMachines(propertyID)
}

// GetMachine returns one machine including its linked template ids.
func (s *Service) GetMachine(_ context.Context, id string) (*models.MachineSummary, error) {
	return s.store.GetMachine(id)
}

// ListTemplates returns up to limit templates from the catalog.
func (s *Service) ListTemplates(_ context.Context, limit int) ([]models.TaskTemplate, error) {
	return s.store.ListTemplates(limit)
}

// ListTopics returns all topics.
func (s *Service) ListTopics(_ context.Context) ([]models.Topic, error) {
	return s.store.ListTopics()
}
