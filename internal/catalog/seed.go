package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/ravlen/upkeep/internal/checksum"
	"github.com/ravlen/upkeep/internal/models"
	"github.com/ravlen/upkeep/internal/store"
)

// SeedFile is the on-disk shape of the catalog seed.
type SeedFile struct {
	Machines  []SeedMachine  `yaml:"machines"`
	Templates []SeedTemplate `yaml:"templates"`
	Topics    []SeedTopic    `yaml:"topics"`
}

// SeedMachine is one machine entry in the seed file.
type SeedMachine struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	GroupID     string   `yaml:"group_id"`
	PropertyID  string   `yaml:"property_id"`
	TemplateIDs []string `yaml:"template_ids"`
}

// Validate validates a seed machine entry.
func (m SeedMachine) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.ID, validation.Required),
		validation.Field(&m.Name, validation.Required),
	)
}

// SeedTemplate is one task template entry in the seed file.
type SeedTemplate struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	GroupID    string `yaml:"group_id"`
	Frequency  string `yaml:"frequency"`
	CustomDays int    `yaml:"custom_days"`
	Category   string `yaml:"category"`
	Difficulty string `yaml:"difficulty"`
	Department string `yaml:"department"`
}

// Validate validates a seed template entry.
func (t SeedTemplate) Validate() error {
	freqs := make([]any, len(models.Frequencies))
	for i, f := range models.Frequencies {
		freqs[i] = string(f)
	}
	return validation.ValidateStruct(&t,
		validation.Field(&t.ID, validation.Required),
		validation.Field(&t.Name, validation.Required),
		validation.Field(&t.Frequency, validation.Required, validation.In(freqs...)),
		validation.Field(&t.CustomDays, validation.Min(0)),
	)
}

// SeedTopic is one topic entry in the seed file.
type SeedTopic struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Seeder loads the catalog seed file into the store, skipping reloads when
// the file content has not changed.
type Seeder struct {
	store  store.Store
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	lastSum string
}

// NewSeeder creates a Seeder for the given seed file path.
func NewSeeder(s store.Store, path string, logger *slog.Logger) *Seeder {
	return &Seeder{store: s, path: path, logger: logger}
}

// Sync parses the seed file and replaces the stored catalog. It is a no-op
// when the file checksum matches the last successful load. The returned bool
// reports whether the catalog actually changed.
func (s *Seeder) Sync() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum, err := checksum.File(s.path)
	if err != nil {
		return false, err
	}
	if sum == s.lastSum {
		s.logger.Debug("catalog: seed unchanged, skipping reload", slog.String("path", s.path))
		return false, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return false, fmt.Errorf("catalog: read seed: %w", err)
	}
	machines, templates, topics, err := parseSeed(data)
	if err != nil {
		return false, err
	}
	if err := s.store.ReplaceCatalog(machines, templates, topics); err != nil {
		return false, err
	}

	s.lastSum = sum
	s.logger.Info("catalog: seed loaded",
		slog.String("path", s.path),
		slog.Int("machines", len(machines)),
		slog.Int("templates", len(templates)),
		slog.Int("topics", len(topics)))
	return true, nil
}

// parseSeed unmarshals and validates seed data, converting it to the domain
// model shapes.
func parseSeed(data []byte) ([]models.MachineSummary, []models.TaskTemplate, []models.Topic, error) {
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, nil, nil, fmt.Errorf("catalog: parse seed: %w", err)
	}

	machines := make([]models.MachineSummary, 0, len(seed.Machines))
	for _, m := range seed.Machines {
		if err := m.Validate(); err != nil {
			return nil, nil, nil, fmt.Errorf("catalog: machine %q: %w", m.ID, err)
		}
		machines = append(machines, models.MachineSummary{
			ID:          m.ID,
			Name:        m.Name,
			GroupID:     m.GroupID,
			PropertyID:  m.PropertyID,
			TemplateIDs: m.TemplateIDs,
		})
	}

	templates := make([]models.TaskTemplate, 0, len(seed.Templates))
	for _, t := range seed.Templates {
		if err := t.Validate(); err != nil {
			return nil, nil, nil, fmt.Errorf("catalog: template %q: %w", t.ID, err)
		}
		templates = append(templates, models.TaskTemplate{
			ID:         t.ID,
			Name:       t.Name,
			GroupID:    t.GroupID,
			Frequency:  models.Frequency(t.Frequency),
			CustomDays: t.CustomDays,
			Category:   t.Category,
			Difficulty: t.Difficulty,
			Department: t.Department,
		})
	}

	topics := make([]models.Topic, 0, len(seed.Topics))
	for _, tp := range seed.Topics {
		if tp.ID == "" || tp.Name == "" {
			return nil, nil, nil, fmt.Errorf("catalog: topic entries need id and name")
		}
		topics = append(topics, models.Topic{ID: tp.ID, Name: tp.Name})
	}

	return machines, templates, topics, nil
}
