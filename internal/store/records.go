package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ravlen/upkeep/internal/apperr"
	"github.com/ravlen/upkeep/internal/models"
)

// UpsertRecord inserts or replaces a record, its machine/topic links, and
// its FTS entry within a transaction.
func (db *DB) UpsertRecord(rec models.MaintenanceRecord) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO records (id, title, scheduled_date, completed_date, frequency,
			custom_days, notes, template_id, assignee, before_image, after_image,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title          = excluded.title,
			scheduled_date = excluded.scheduled_date,
			completed_date = excluded.completed_date,
			frequency      = excluded.frequency,
			custom_days    = excluded.custom_days,
			notes          = excluded.notes,
			template_id    = excluded.template_id,
			assignee       = excluded.assignee,
			before_image   = excluded.before_image,
			after_image    = excluded.after_image,
			updated_at     = excluded.updated_at
	`, rec.ID, rec.Title, rec.ScheduledDate, rec.CompletedDate, string(rec.Frequency),
		rec.CustomDays, rec.Notes, rec.TemplateID, rec.Assignee, rec.BeforeImage,
		rec.AfterImage, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: upsert record: %w", err)
	}

	if err := replaceLinks(tx, "record_machines", "machine_id", rec.ID, rec.MachineIDs); err != nil {
		return err
	}
	if err := replaceLinks(tx, "record_topics", "topic_id", rec.ID, rec.TopicIDs); err != nil {
		return err
	}
	if err := ftsUpsert(tx, rec.ID, rec.Title, rec.Notes); err != nil {
		return err
	}

	return tx.Commit()
}

// replaceLinks deletes and re-inserts a record's link rows.
func replaceLinks(tx *sql.Tx, table, column, recordID string, ids []string) error {
	if _, err := tx.Exec(`DELETE FROM `+table+` WHERE record_id = ?`, recordID); err != nil {
		return fmt.Errorf("store: clear %s: %w", table, err)
	}
	if len(ids) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO ` + table + ` (record_id, ` + column + `) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare %s insert: %w", table, err)
	}
	defer stmt.Close()
	for _, id := range ids {
		if _, err := stmt.Exec(recordID, id); err != nil {
			return fmt.Errorf("store: insert %s: %w", table, err)
		}
	}
	return nil
}

const recordColumns = `id, title, scheduled_date, completed_date, frequency,
	custom_days, notes, template_id, assignee, before_image, after_image,
	created_at, updated_at`

func scanRecord(row interface{ Scan(...any) error }) (models.MaintenanceRecord, error) {
	var rec models.MaintenanceRecord
	var freq string
	err := row.Scan(&rec.ID, &rec.Title, &rec.ScheduledDate, &rec.CompletedDate,
		&freq, &rec.CustomDays, &rec.Notes, &rec.TemplateID, &rec.Assignee,
		&rec.BeforeImage, &rec.AfterImage, &rec.CreatedAt, &rec.UpdatedAt)
	rec.Frequency = models.Frequency(freq)
	return rec, err
}

// GetRecord returns the record with the given id, including its machine and
// topic links, or apperr.ErrNotFound.
func (db *DB) GetRecord(id string) (*models.MaintenanceRecord, error) {
	row := db.conn.QueryRow(`SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("store: get record: %w", err)
	}
	if err := db.loadLinks(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// loadLinks fills a record's MachineIDs and TopicIDs.
func (db *DB) loadLinks(rec *models.MaintenanceRecord) error {
	var err error
	rec.MachineIDs, err = db.linkedIDs("record_machines", "machine_id", rec.ID)
	if err != nil {
		return err
	}
	rec.TopicIDs, err = db.linkedIDs("record_topics", "topic_id", rec.ID)
	return err
}

func (db *DB) linkedIDs(table, column, recordID string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT `+column+` FROM `+table+` WHERE record_id = ? ORDER BY `+column, recordID)
	if err != nil {
		return nil, fmt.Errorf("store: load %s: %w", table, err)
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// DeleteRecord removes a record, its links, and its FTS entry. Deleting an
// unknown id returns apperr.ErrNotFound.
func (db *DB) DeleteRecord(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.Exec(`DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	_, _ = tx.Exec(`DELETE FROM record_machines WHERE record_id = ?`, id)
	_, _ = tx.Exec(`DELETE FROM record_topics WHERE record_id = ?`, id)
	ftsDelete(tx, id)

	return tx.Commit()
}

// ListRecords returns a page of records ordered by scheduled date (soonest
// first) plus the total count matching the filter.
func (db *DB) ListRecords(limit, offset int, f RecordFilter) ([]models.MaintenanceRecord, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	where := []string{"1=1"}
	args := []any{}
	if f.Frequency != "" {
		where = append(where, "r.frequency = ?")
		args = append(args, string(f.Frequency))
	}
	if f.Assignee != "" {
		where = append(where, "r.assignee = ?")
		args = append(args, f.Assignee)
	}
	if f.MachineID != "" {
		where = append(where, "r.id IN (SELECT record_id FROM record_machines WHERE machine_id = ?)")
		args = append(args, f.MachineID)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM records r WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count records: %w", err)
	}

	query := `SELECT ` + recordColumns + ` FROM records r WHERE ` + cond +
		` ORDER BY r.scheduled_date ASC, r.id ASC LIMIT ? OFFSET ?`
	rows, err := db.conn.Query(query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list records: %w", err)
	}
	defer rows.Close()

	out := []models.MaintenanceRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range out {
		if err := db.loadLinks(&out[i]); err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}

// AllRecords returns every record without links, for aggregate computation.
func (db *DB) AllRecords() ([]models.MaintenanceRecord, error) {
	rows, err := db.conn.Query(`SELECT ` + recordColumns + ` FROM records r`)
	if err != nil {
		return nil, fmt.Errorf("store: all records: %w", err)
	}
	defer rows.Close()

	out := []models.MaintenanceRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
