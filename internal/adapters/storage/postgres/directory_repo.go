package postgres

import (
	"context"
	"database/sql"

	"care-facility-meds/internal/domain/directory"
)

// DirectoryRepo lee las colecciones de referencia que mantiene otro sistema.
type DirectoryRepo struct {
	db *sql.DB
}

func NewDirectoryRepo(db *sql.DB) *DirectoryRepo {
	return &DirectoryRepo{db: db}
}

func (r *DirectoryRepo) GetDoctor(ctx context.Context, id string) (directory.Doctor, error) {
	var d directory.Doctor
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM doctors WHERE id = $1`, id).Scan(&d.ID, &d.Name)
	if err == sql.ErrNoRows {
		return directory.Doctor{}, directory.ErrNotFound
	}
	return d, err
}

func (r *DirectoryRepo) GetPatient(ctx context.Context, id string) (directory.Patient, error) {
	var p directory.Patient
	err := r.db.QueryRowContext(ctx, `SELECT id, full_name FROM patients WHERE id = $1`, id).Scan(&p.ID, &p.FullName)
	if err == sql.ErrNoRows {
		return directory.Patient{}, directory.ErrNotFound
	}
	return p, err
}

func (r *DirectoryRepo) GetMedication(ctx context.Context, id string) (directory.Medication, error) {
	var m directory.Medication
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM medications WHERE id = $1`, id).Scan(&m.ID, &m.Name)
	if err == sql.ErrNoRows {
		return directory.Medication{}, directory.ErrNotFound
	}
	return m, err
}

func (r *DirectoryRepo) ListDoctors(ctx context.Context) ([]directory.Doctor, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM doctors ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]directory.Doctor, 0)
	for rows.Next() {
		var d directory.Doctor
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DirectoryRepo) ListPatients(ctx context.Context) ([]directory.Patient, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, full_name FROM patients ORDER BY full_name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]directory.Patient, 0)
	for rows.Next() {
		var p directory.Patient
		if err := rows.Scan(&p.ID, &p.FullName); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *DirectoryRepo) ListMedications(ctx context.Context) ([]directory.Medication, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM medications ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]directory.Medication, 0)
	for rows.Next() {
		var m directory.Medication
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Import hace upsert del seed dentro de una transacción.
func (r *DirectoryRepo) Import(ctx context.Context, seed directory.Seed) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, d := range seed.Doctors {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO doctors (id, name) VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
		`, d.ID, d.Name); err != nil {
			return err
		}
	}
	for _, p := range seed.Patients {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO patients (id, full_name) VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET full_name = EXCLUDED.full_name
		`, p.ID, p.FullName); err != nil {
			return err
		}
	}
	for _, m := range seed.Medications {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO medications (id, name) VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
		`, m.ID, m.Name); err != nil {
			return err
		}
	}
	return tx.Commit()
}
