package schedules

import "context"

type Repository interface {
	Create(ctx context.Context, m MedicationSchedule) error
	Update(ctx context.Context, m MedicationSchedule) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (MedicationSchedule, error)
	// List devuelve todos los horarios, más recientes primero.
	List(ctx context.Context) ([]MedicationSchedule, error)
}
