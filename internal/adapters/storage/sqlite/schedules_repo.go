package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"care-facility-meds/internal/domain/schedules"
	"care-facility-meds/internal/domain/timerules"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type SchedulesRepo struct {
	db *sqlx.DB
}

func NewSchedulesRepo(db *sqlx.DB) *SchedulesRepo {
	return &SchedulesRepo{db: db}
}

type scheduleRow struct {
	ID             string          `db:"id"`
	DoctorID       string          `db:"doctor_id"`
	DoctorName     string          `db:"doctor_name"`
	PatientID      string          `db:"patient_id"`
	PatientName    string          `db:"patient_name"`
	MedicationID   string          `db:"medication_id"`
	MedicationName string          `db:"medication_name"`
	InventoryKey   string          `db:"inventory_key"`
	Dose           decimal.Decimal `db:"dose"`
	RuleType       string          `db:"rule_type"`
	Rule           string          `db:"rule"`
	State          string          `db:"state"`
	ReminderIDs    string          `db:"reminder_ids"`
	Notes          string          `db:"notes"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

func toRow(m schedules.MedicationSchedule) (scheduleRow, error) {
	rule, err := timerules.MarshalRule(m.Rule)
	if err != nil {
		return scheduleRow{}, err
	}
	list := m.ReminderIDs
	if list == nil {
		list = []string{}
	}
	ids, err := json.Marshal(list)
	if err != nil {
		return scheduleRow{}, err
	}
	return scheduleRow{
		ID:             m.ID,
		DoctorID:       m.DoctorID,
		DoctorName:     m.DoctorName,
		PatientID:      m.PatientID,
		PatientName:    m.PatientName,
		MedicationID:   m.MedicationID,
		MedicationName: m.MedicationName,
		InventoryKey:   m.InventoryKey,
		Dose:           m.Dose,
		RuleType:       string(m.Rule.Kind()),
		Rule:           string(rule),
		State:          string(m.State),
		ReminderIDs:    string(ids),
		Notes:          m.Notes,
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}, nil
}

func (row scheduleRow) model() (schedules.MedicationSchedule, error) {
	rule, err := timerules.UnmarshalRule([]byte(row.Rule))
	if err != nil {
		return schedules.MedicationSchedule{}, fmt.Errorf("schedule %s: %w", row.ID, err)
	}
	var ids []string
	if row.ReminderIDs != "" {
		if err := json.Unmarshal([]byte(row.ReminderIDs), &ids); err != nil {
			return schedules.MedicationSchedule{}, fmt.Errorf("schedule %s: decode reminder ids: %w", row.ID, err)
		}
	}
	if len(ids) == 0 {
		ids = nil
	}
	return schedules.MedicationSchedule{
		ID:             row.ID,
		DoctorID:       row.DoctorID,
		DoctorName:     row.DoctorName,
		PatientID:      row.PatientID,
		PatientName:    row.PatientName,
		MedicationID:   row.MedicationID,
		MedicationName: row.MedicationName,
		InventoryKey:   row.InventoryKey,
		Dose:           row.Dose,
		Rule:           rule,
		State:          schedules.State(row.State),
		ReminderIDs:    ids,
		Notes:          row.Notes,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}, nil
}

func (r *SchedulesRepo) Create(ctx context.Context, m schedules.MedicationSchedule) error {
	row, err := toRow(m)
	if err != nil {
		return err
	}
	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO medication_schedules (
			id, doctor_id, doctor_name, patient_id, patient_name,
			medication_id, medication_name, inventory_key,
			dose, rule_type, rule, state, reminder_ids, notes,
			created_at, updated_at
		) VALUES (
			:id, :doctor_id, :doctor_name, :patient_id, :patient_name,
			:medication_id, :medication_name, :inventory_key,
			:dose, :rule_type, :rule, :state, :reminder_ids, :notes,
			:created_at, :updated_at
		)
	`, row)
	return err
}

func (r *SchedulesRepo) Update(ctx context.Context, m schedules.MedicationSchedule) error {
	row, err := toRow(m)
	if err != nil {
		return err
	}
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE medication_schedules SET
			doctor_id = :doctor_id,
			doctor_name = :doctor_name,
			patient_id = :patient_id,
			patient_name = :patient_name,
			medication_id = :medication_id,
			medication_name = :medication_name,
			inventory_key = :inventory_key,
			dose = :dose,
			rule_type = :rule_type,
			rule = :rule,
			state = :state,
			reminder_ids = :reminder_ids,
			notes = :notes,
			updated_at = :updated_at
		WHERE id = :id
	`, row)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedules.ErrNotFound
	}
	return nil
}

func (r *SchedulesRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medication_schedules WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedules.ErrNotFound
	}
	return nil
}

func (r *SchedulesRepo) GetByID(ctx context.Context, id string) (schedules.MedicationSchedule, error) {
	var row scheduleRow
	if err := r.db.GetContext(ctx, &row, `SELECT * FROM medication_schedules WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return schedules.MedicationSchedule{}, schedules.ErrNotFound
		}
		return schedules.MedicationSchedule{}, err
	}
	return row.model()
}

func (r *SchedulesRepo) List(ctx context.Context) ([]schedules.MedicationSchedule, error) {
	var rows []scheduleRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT * FROM medication_schedules ORDER BY created_at DESC, id ASC`); err != nil {
		return nil, err
	}
	out := make([]schedules.MedicationSchedule, 0, len(rows))
	for _, row := range rows {
		m, err := row.model()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
