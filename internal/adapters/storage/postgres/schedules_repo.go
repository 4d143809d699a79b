package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"care-facility-meds/internal/domain/schedules"
	"care-facility-meds/internal/domain/timerules"
)

type SchedulesRepo struct {
	db *sql.DB
}

func NewSchedulesRepo(db *sql.DB) *SchedulesRepo {
	return &SchedulesRepo{db: db}
}

const scheduleColumns = `
	id,
	doctor_id, doctor_name,
	patient_id, patient_name,
	medication_id, medication_name, inventory_key,
	dose, rule, state, reminder_ids, notes,
	created_at, updated_at`

func (r *SchedulesRepo) Create(ctx context.Context, m schedules.MedicationSchedule) error {
	rule, ids, err := encodeSchedule(m)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO medication_schedules (
			id,
			doctor_id, doctor_name,
			patient_id, patient_name,
			medication_id, medication_name, inventory_key,
			dose, rule_type, rule, state, reminder_ids, notes,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`,
		m.ID,
		m.DoctorID, m.DoctorName,
		m.PatientID, m.PatientName,
		m.MedicationID, m.MedicationName, m.InventoryKey,
		m.Dose, string(m.Rule.Kind()), rule, string(m.State), ids, m.Notes,
		m.CreatedAt, m.UpdatedAt,
	)
	return err
}

func (r *SchedulesRepo) Update(ctx context.Context, m schedules.MedicationSchedule) error {
	rule, ids, err := encodeSchedule(m)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE medication_schedules
		SET
			doctor_id = $2,
			doctor_name = $3,
			patient_id = $4,
			patient_name = $5,
			medication_id = $6,
			medication_name = $7,
			inventory_key = $8,
			dose = $9,
			rule_type = $10,
			rule = $11,
			state = $12,
			reminder_ids = $13,
			notes = $14,
			updated_at = $15
		WHERE id = $1
	`,
		m.ID,
		m.DoctorID, m.DoctorName,
		m.PatientID, m.PatientName,
		m.MedicationID, m.MedicationName, m.InventoryKey,
		m.Dose, string(m.Rule.Kind()), rule, string(m.State), ids, m.Notes,
		m.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return schedules.ErrNotFound
	}
	return nil
}

func (r *SchedulesRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medication_schedules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return schedules.ErrNotFound
	}
	return nil
}

func (r *SchedulesRepo) GetByID(ctx context.Context, id string) (schedules.MedicationSchedule, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return schedules.MedicationSchedule{}, schedules.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+scheduleColumns+` FROM medication_schedules WHERE id = $1`, id)
	m, err := scanSchedule(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return schedules.MedicationSchedule{}, schedules.ErrNotFound
		}
		return schedules.MedicationSchedule{}, err
	}
	return m, nil
}

func (r *SchedulesRepo) List(ctx context.Context) ([]schedules.MedicationSchedule, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+scheduleColumns+` FROM medication_schedules ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]schedules.MedicationSchedule, 0)
	for rows.Next() {
		m, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSchedule(s scanner) (schedules.MedicationSchedule, error) {
	var (
		m     schedules.MedicationSchedule
		state string
		rule  []byte
		ids   []byte
	)
	if err := s.Scan(
		&m.ID,
		&m.DoctorID, &m.DoctorName,
		&m.PatientID, &m.PatientName,
		&m.MedicationID, &m.MedicationName, &m.InventoryKey,
		&m.Dose, &rule, &state, &ids, &m.Notes,
		&m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return schedules.MedicationSchedule{}, err
	}

	parsed, err := timerules.UnmarshalRule(rule)
	if err != nil {
		return schedules.MedicationSchedule{}, fmt.Errorf("schedule %s: %w", m.ID, err)
	}
	m.Rule = parsed
	m.State = schedules.State(state)

	if len(ids) > 0 {
		if err := json.Unmarshal(ids, &m.ReminderIDs); err != nil {
			return schedules.MedicationSchedule{}, fmt.Errorf("schedule %s: decode reminder ids: %w", m.ID, err)
		}
	}
	if len(m.ReminderIDs) == 0 {
		m.ReminderIDs = nil
	}
	return m, nil
}

func encodeSchedule(m schedules.MedicationSchedule) (rule []byte, ids []byte, err error) {
	rule, err = timerules.MarshalRule(m.Rule)
	if err != nil {
		return nil, nil, err
	}
	list := m.ReminderIDs
	if list == nil {
		list = []string{}
	}
	ids, err = json.Marshal(list)
	if err != nil {
		return nil, nil, err
	}
	return rule, ids, nil
}
