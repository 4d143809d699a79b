package schedules

import (
	"time"

	"care-facility-meds/internal/domain/timerules"

	"github.com/shopspring/decimal"
)

type State string

const (
	StateScheduled State = "scheduled"
	StatePaused    State = "paused"
	StateFinished  State = "finished"
)

func (s State) Valid() bool {
	switch s {
	case StateScheduled, StatePaused, StateFinished:
		return true
	default:
		return false
	}
}

type MedicationSchedule struct {
	ID string

	DoctorID   string
	DoctorName string

	PatientID   string
	PatientName string

	MedicationID   string
	MedicationName string
	InventoryKey   string // siempre Key(MedicationName)

	Dose decimal.Decimal
	Rule timerules.Rule

	State       State
	ReminderIDs []string // no vacío sólo si State == StateScheduled

	Notes string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active se deriva del estado; no se persiste por separado.
func (m MedicationSchedule) Active() bool {
	return m.State == StateScheduled
}

type ListFilter struct {
	Query string // texto libre: paciente, doctor, medicamento, tipo, dosis, fecha
	State State  // opcional
}
