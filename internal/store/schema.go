// Package store provides SQLite-backed persistence for maintenance records
// and the machine/template/topic catalog, with optional FTS5 search.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS records (
	id             TEXT PRIMARY KEY,
	title          TEXT NOT NULL,
	scheduled_date TEXT NOT NULL,
	completed_date TEXT NOT NULL DEFAULT '',
	frequency      TEXT NOT NULL DEFAULT 'monthly',
	custom_days    INTEGER NOT NULL DEFAULT 0,
	notes          TEXT NOT NULL DEFAULT '',
	template_id    TEXT NOT NULL DEFAULT '',
	assignee       TEXT NOT NULL DEFAULT '',
	before_image   TEXT NOT NULL DEFAULT '',
	after_image    TEXT NOT NULL DEFAULT '',
	created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS record_machines (
	record_id  TEXT NOT NULL,
	machine_id TEXT NOT NULL,
	UNIQUE(record_id, machine_id)
);

CREATE TABLE IF NOT EXISTS record_topics (
	record_id TEXT NOT NULL,
	topic_id  TEXT NOT NULL,
	UNIQUE(record_id, topic_id)
);

CREATE TABLE IF NOT EXISTS machines (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	group_id    TEXT NOT NULL DEFAULT '',
	property_id TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS machine_templates (
	machine_id  TEXT NOT NULL,
	template_id TEXT NOT NULL,
	UNIQUE(machine_id, template_id)
);

CREATE TABLE IF NOT EXISTS templates (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	group_id    TEXT NOT NULL DEFAULT '',
	frequency   TEXT NOT NULL DEFAULT 'monthly',
	custom_days INTEGER NOT NULL DEFAULT 0,
	category    TEXT NOT NULL DEFAULT '',
	difficulty  TEXT NOT NULL DEFAULT '',
	department  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS topics (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_record_machines_record ON record_machines(record_id);
CREATE INDEX IF NOT EXISTS idx_record_machines_machine ON record_machines(machine_id);
CREATE INDEX IF NOT EXISTS idx_record_topics_record ON record_topics(record_id);
CREATE INDEX IF NOT EXISTS idx_machine_templates_machine ON machine_templates(machine_id);
`

// DB wraps a sql.DB with store-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
