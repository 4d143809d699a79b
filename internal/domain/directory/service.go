package directory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// ErrNotFound lo devuelven también los repositorios; cualquier otro error
// del repo se propaga tal cual.
var ErrNotFound = errors.New("not found")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Doctor(ctx context.Context, id string) (Doctor, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Doctor{}, ErrNotFound
	}
	d, err := s.repo.GetDoctor(ctx, id)
	if err != nil {
		return Doctor{}, err
	}
	return d, nil
}

func (s *Service) Patient(ctx context.Context, id string) (Patient, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Patient{}, ErrNotFound
	}
	p, err := s.repo.GetPatient(ctx, id)
	if err != nil {
		return Patient{}, err
	}
	return p, nil
}

func (s *Service) Medication(ctx context.Context, id string) (Medication, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Medication{}, ErrNotFound
	}
	m, err := s.repo.GetMedication(ctx, id)
	if err != nil {
		return Medication{}, err
	}
	return m, nil
}

func (s *Service) Doctors(ctx context.Context) ([]Doctor, error) { return s.repo.ListDoctors(ctx) }

func (s *Service) Patients(ctx context.Context) ([]Patient, error) { return s.repo.ListPatients(ctx) }

func (s *Service) Medications(ctx context.Context) ([]Medication, error) {
	return s.repo.ListMedications(ctx)
}

// LoadSeed lee un YAML con doctores, pacientes y medicamentos.
func LoadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, err
	}
	return ParseSeed(data)
}

func ParseSeed(data []byte) (Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("parse directory seed: %w", err)
	}
	for _, d := range seed.Doctors {
		if strings.TrimSpace(d.ID) == "" || strings.TrimSpace(d.Name) == "" {
			return Seed{}, fmt.Errorf("directory seed: doctor requires id and name")
		}
	}
	for _, p := range seed.Patients {
		if strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.FullName) == "" {
			return Seed{}, fmt.Errorf("directory seed: patient requires id and full_name")
		}
	}
	for _, m := range seed.Medications {
		if strings.TrimSpace(m.ID) == "" || strings.TrimSpace(m.Name) == "" {
			return Seed{}, fmt.Errorf("directory seed: medication requires id and name")
		}
	}
	return seed, nil
}
