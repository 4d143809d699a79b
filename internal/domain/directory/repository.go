package directory

import "context"

// Repository es de sólo lectura: el alta/edición de estas colecciones vive en otro sistema.
type Repository interface {
	GetDoctor(ctx context.Context, id string) (Doctor, error)
	GetPatient(ctx context.Context, id string) (Patient, error)
	GetMedication(ctx context.Context, id string) (Medication, error)

	ListDoctors(ctx context.Context) ([]Doctor, error)
	ListPatients(ctx context.Context) ([]Patient, error)
	ListMedications(ctx context.Context) ([]Medication, error)
}
