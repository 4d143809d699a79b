package schedules

import (
	"context"

	"care-facility-meds/internal/domain/directory"
	"care-facility-meds/internal/domain/inventory"
	"care-facility-meds/internal/domain/reminders"
	"care-facility-meds/internal/domain/timerules"

	"github.com/shopspring/decimal"
)

// Reminders registra y cancela los recordatorios de un horario.
type Reminders interface {
	Schedule(ctx context.Context, tpl reminders.Template, occ []timerules.Occurrence) ([]string, error)
	Cancel(ctx context.Context, ids []string)
}

// Ledger es la parte del inventario que usa el alta de horarios. Release sólo
// compensa una reserva cuyo horario no llegó a guardarse.
type Ledger interface {
	Reserve(ctx context.Context, key string, qty decimal.Decimal) (inventory.Record, error)
	Release(ctx context.Context, key string, qty decimal.Decimal) (inventory.Record, error)
}

// Directory resuelve referencias; si no hay, se confía en los nombres recibidos.
type Directory interface {
	Doctor(ctx context.Context, id string) (directory.Doctor, error)
	Patient(ctx context.Context, id string) (directory.Patient, error)
	Medication(ctx context.Context, id string) (directory.Medication, error)
}
