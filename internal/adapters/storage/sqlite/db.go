package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Open abre (o crea) la base SQLite en path. ":memory:" sirve para tests.
func Open(path string) (*sqlx.DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, err
	}
	// un único escritor
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.Exec("PRAGMA busy_timeout = 5000")
	_, _ = db.Exec("PRAGMA foreign_keys = ON")
	if path != ":memory:" {
		_, _ = db.Exec("PRAGMA journal_mode = WAL")
	}
	return db, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS medication_schedules (
		id              TEXT PRIMARY KEY,
		doctor_id       TEXT NOT NULL,
		doctor_name     TEXT NOT NULL,
		patient_id      TEXT NOT NULL,
		patient_name    TEXT NOT NULL,
		medication_id   TEXT NOT NULL,
		medication_name TEXT NOT NULL,
		inventory_key   TEXT NOT NULL,
		dose            TEXT NOT NULL,
		rule_type       TEXT NOT NULL,
		rule            TEXT NOT NULL,
		state           TEXT NOT NULL,
		reminder_ids    TEXT NOT NULL DEFAULT '[]',
		notes           TEXT NOT NULL DEFAULT '',
		created_at      DATETIME NOT NULL,
		updated_at      DATETIME NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS medication_schedules_created_at_idx ON medication_schedules (created_at);`,
	`CREATE TABLE IF NOT EXISTS inventory (
		key        TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		stock      TEXT NOT NULL DEFAULT '0',
		consumed   TEXT NOT NULL DEFAULT '0',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS doctors (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS patients (
		id        TEXT PRIMARY KEY,
		full_name TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS medications (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);`,
}

// Migrate crea el esquema.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite migrate step %d: %w", i, err)
		}
	}
	return nil
}
