package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/ravlen/upkeep/internal/apperr"
	"github.com/ravlen/upkeep/internal/models"
)

// SearchResult is one full-text search hit over maintenance records.
type SearchResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// ReplaceCatalog swaps the machine/template/topic catalog wholesale inside a
// transaction. The catalog is read-only for everything else, so a full
// replace on seed reload keeps it consistent with the seed file.
func (db *DB) ReplaceCatalog(machines []models.MachineSummary, templates []models.TaskTemplate, topics []models.Topic) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, table := range []string{"machines", "machine_templates", "templates", "topics"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("store: clear %s: %w", table, err)
		}
	}

	for _, m := range machines {
		if _, err := tx.Exec(`INSERT INTO machines (id, name, group_id, property_id) VALUES (?, ?, ?, ?)`,
			m.ID, m.Name, m.GroupID, m.PropertyID); err != nil {
			return fmt.Errorf("store: insert machine %s: %w", m.ID, err)
		}
		for _, tid := range m.TemplateIDs {
			if _, err := tx.Exec(`INSERT OR IGNORE INTO machine_templates (machine_id, template_id) VALUES (?, ?)`,
				m.ID, tid); err != nil {
				return fmt.Errorf("store: link machine template: %w", err)
			}
		}
	}
	for _, t := range templates {
		if _, err := tx.Exec(`INSERT INTO templates (id, name, group_id, frequency, custom_days, category, difficulty, department)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.Name, t.GroupID, string(t.Frequency), t.CustomDays, t.Category, t.Difficulty, t.Department); err != nil {
			return fmt.Errorf("store: insert template %s: %w", t.ID, err)
		}
	}
	for _, tp := range topics {
		if _, err := tx.Exec(`INSERT INTO topics (id, name) VALUES (?, ?)`, tp.ID, tp.Name); err != nil {
			return fmt.Errorf("store: insert topic %s: %w", tp.ID, err)
		}
	}

	return tx.Commit()
}

// ListMachines returns machines, optionally filtered by property id.
func (db *DB) ListMachines(propertyID string) ([]models.MachineSummary, error) {
	query := `SELECT id, name, group_id, property_id FROM machines`
	args := []any{}
	if propertyID != "" {
		query += ` WHERE property_id = ?`
		args = append(args, propertyID)
	}
	query += ` ORDER BY name ASC`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list machines: %w", err)
	}
	defer rows.Close()

	out := []models.MachineSummary{}
	for rows.Next() {
		var m models.MachineSummary
		if err := rows.Scan(&m.ID, &m.Name, &m.GroupID, &m.PropertyID); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetMachine returns one machine including its linked template ids.
func (db *DB) GetMachine(id string) (*models.MachineSummary, error) {
	var m models.MachineSummary
	err := db.conn.QueryRow(`SELECT id, name, group_id, property_id FROM machines WHERE id = ?`, id).
		Scan(&m.ID, &m.Name, &m.GroupID, &m.PropertyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("store: get machine: %w", err)
	}

	rows, err := db.conn.Query(`SELECT template_id FROM machine_templates WHERE machine_id = ? ORDER BY template_id`, id)
	if err != nil {
		return nil, fmt.Errorf("store: machine templates: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tid string
		if err := rows.Scan(&tid); err != nil {
			return nil, err
		}
		m.TemplateIDs = append(m.TemplateIDs, tid)
	}
	return &m, rows.Err()
}

// ListTemplates returns up to limit templates from the catalog.
func (db *DB) ListTemplates(limit int) ([]models.TaskTemplate, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := db.conn.Query(`
		SELECT id, name, group_id, frequency, custom_days, category, difficulty, department
		FROM templates ORDER BY name ASC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list templates: %w", err)
	}
	defer rows.Close()

	out := []models.TaskTemplate{}
	for rows.Next() {
		var t models.TaskTemplate
		var freq string
		if err := rows.Scan(&t.ID, &t.Name, &t.GroupID, &freq, &t.CustomDays, &t.Category, &t.Difficulty, &t.Department); err != nil {
			return nil, err
		}
		t.Frequency = models.Frequency(freq)
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTemplate returns one template by id.
func (db *DB) GetTemplate(id string) (*models.TaskTemplate, error) {
	var t models.TaskTemplate
	var freq string
	err := db.conn.QueryRow(`
		SELECT id, name, group_id, frequency, custom_days, category, difficulty, department
		FROM templates WHERE id = ?
	`, id).Scan(&t.ID, &t.Name, &t.GroupID, &freq, &t.CustomDays, &t.Category, &t.Difficulty, &t.Department)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("store: get template: %w", err)
	}
	t.Frequency = models.Frequency(freq)
	return &t, nil
}

// ListTopics returns all topics.
func (db *DB) ListTopics() ([]models.Topic, error) {
	rows, err := db.conn.Query(`SELECT id, name FROM topics ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("store: list topics: %w", err)
	}
	defer rows.Close()

	out := []models.Topic{}
	for rows.Next() {
		var t models.Topic
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
