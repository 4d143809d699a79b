package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"care-facility-meds/internal/domain/directory"

	"github.com/jmoiron/sqlx"
)

type DirectoryRepo struct {
	db *sqlx.DB
}

func NewDirectoryRepo(db *sqlx.DB) *DirectoryRepo {
	return &DirectoryRepo{db: db}
}

type doctorRow struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}

type patientRow struct {
	ID       string `db:"id"`
	FullName string `db:"full_name"`
}

type medicationRow struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}

func (r *DirectoryRepo) GetDoctor(ctx context.Context, id string) (directory.Doctor, error) {
	var row doctorRow
	if err := r.db.GetContext(ctx, &row, `SELECT id, name FROM doctors WHERE id = ?`, id); err != nil {
		return directory.Doctor{}, notFound(err)
	}
	return directory.Doctor{ID: row.ID, Name: row.Name}, nil
}

func (r *DirectoryRepo) GetPatient(ctx context.Context, id string) (directory.Patient, error) {
	var row patientRow
	if err := r.db.GetContext(ctx, &row, `SELECT id, full_name FROM patients WHERE id = ?`, id); err != nil {
		return directory.Patient{}, notFound(err)
	}
	return directory.Patient{ID: row.ID, FullName: row.FullName}, nil
}

func (r *DirectoryRepo) GetMedication(ctx context.Context, id string) (directory.Medication, error) {
	var row medicationRow
	if err := r.db.GetContext(ctx, &row, `SELECT id, name FROM medications WHERE id = ?`, id); err != nil {
		return directory.Medication{}, notFound(err)
	}
	return directory.Medication{ID: row.ID, Name: row.Name}, nil
}

func (r *DirectoryRepo) ListDoctors(ctx context.Context) ([]directory.Doctor, error) {
	var rows []doctorRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, name FROM doctors ORDER BY name ASC`); err != nil {
		return nil, err
	}
	out := make([]directory.Doctor, 0, len(rows))
	for _, row := range rows {
		out = append(out, directory.Doctor{ID: row.ID, Name: row.Name})
	}
	return out, nil
}

func (r *DirectoryRepo) ListPatients(ctx context.Context) ([]directory.Patient, error) {
	var rows []patientRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, full_name FROM patients ORDER BY full_name ASC`); err != nil {
		return nil, err
	}
	out := make([]directory.Patient, 0, len(rows))
	for _, row := range rows {
		out = append(out, directory.Patient{ID: row.ID, FullName: row.FullName})
	}
	return out, nil
}

func (r *DirectoryRepo) ListMedications(ctx context.Context) ([]directory.Medication, error) {
	var rows []medicationRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, name FROM medications ORDER BY name ASC`); err != nil {
		return nil, err
	}
	out := make([]directory.Medication, 0, len(rows))
	for _, row := range rows {
		out = append(out, directory.Medication{ID: row.ID, Name: row.Name})
	}
	return out, nil
}

// Import carga el seed en una transacción (upsert por id).
func (r *DirectoryRepo) Import(ctx context.Context, seed directory.Seed) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, d := range seed.Doctors {
		if _, err := tx.ExecContext(ctx, `INSERT INTO doctors (id, name) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET name = excluded.name`, d.ID, d.Name); err != nil {
			return err
		}
	}
	for _, p := range seed.Patients {
		if _, err := tx.ExecContext(ctx, `INSERT INTO patients (id, full_name) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET full_name = excluded.full_name`, p.ID, p.FullName); err != nil {
			return err
		}
	}
	for _, m := range seed.Medications {
		if _, err := tx.ExecContext(ctx, `INSERT INTO medications (id, name) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET name = excluded.name`, m.ID, m.Name); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return directory.ErrNotFound
	}
	return err
}
