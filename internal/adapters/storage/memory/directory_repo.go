package memory

import (
	"context"
	"sort"
	"sync"

	"care-facility-meds/internal/domain/directory"
)

type directoryRepo struct {
	mu          sync.RWMutex
	doctors     map[string]directory.Doctor
	patients    map[string]directory.Patient
	medications map[string]directory.Medication
}

// NewDirectoryRepo carga el directorio desde un seed (puede venir vacío).
func NewDirectoryRepo(seed directory.Seed) directory.Repository {
	r := &directoryRepo{
		doctors:     make(map[string]directory.Doctor),
		patients:    make(map[string]directory.Patient),
		medications: make(map[string]directory.Medication),
	}
	for _, d := range seed.Doctors {
		r.doctors[d.ID] = d
	}
	for _, p := range seed.Patients {
		r.patients[p.ID] = p
	}
	for _, m := range seed.Medications {
		r.medications[m.ID] = m
	}
	return r
}

func (r *directoryRepo) GetDoctor(ctx context.Context, id string) (directory.Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.doctors[id]
	if !ok {
		return directory.Doctor{}, directory.ErrNotFound
	}
	return d, nil
}

func (r *directoryRepo) GetPatient(ctx context.Context, id string) (directory.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patients[id]
	if !ok {
		return directory.Patient{}, directory.ErrNotFound
	}
	return p, nil
}

func (r *directoryRepo) GetMedication(ctx context.Context, id string) (directory.Medication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.medications[id]
	if !ok {
		return directory.Medication{}, directory.ErrNotFound
	}
	return m, nil
}

func (r *directoryRepo) ListDoctors(ctx context.Context) ([]directory.Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]directory.Doctor, 0, len(r.doctors))
	for _, d := range r.doctors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *directoryRepo) ListPatients(ctx context.Context) ([]directory.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]directory.Patient, 0, len(r.patients))
	for _, p := range r.patients {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (r *directoryRepo) ListMedications(ctx context.Context) ([]directory.Medication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]directory.Medication, 0, len(r.medications))
	for _, m := range r.medications {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
