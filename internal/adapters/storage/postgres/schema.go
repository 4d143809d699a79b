package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS medication_schedules (
		id              TEXT PRIMARY KEY,
		doctor_id       TEXT NOT NULL,
		doctor_name     TEXT NOT NULL,
		patient_id      TEXT NOT NULL,
		patient_name    TEXT NOT NULL,
		medication_id   TEXT NOT NULL,
		medication_name TEXT NOT NULL,
		inventory_key   TEXT NOT NULL,
		dose            NUMERIC NOT NULL CHECK (dose > 0),
		rule_type       TEXT NOT NULL,
		rule            JSONB NOT NULL,
		state           TEXT NOT NULL,
		reminder_ids    JSONB NOT NULL DEFAULT '[]',
		notes           TEXT NOT NULL DEFAULT '',
		created_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS medication_schedules_created_at_idx ON medication_schedules (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS inventory (
		key        TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		stock      NUMERIC NOT NULL DEFAULT 0 CHECK (stock >= 0),
		consumed   NUMERIC NOT NULL DEFAULT 0 CHECK (consumed >= 0),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS doctors (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS patients (
		id        TEXT PRIMARY KEY,
		full_name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS medications (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL
	)`,
}

// Migrate crea las tablas si no existen.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("postgres migrate step %d: %w", i, err)
		}
	}
	return nil
}
