package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"care-facility-meds/internal/domain/schedules"
)

type scheduleRepo struct {
	mu   sync.RWMutex
	byID map[string]schedules.MedicationSchedule
}

func NewScheduleRepo() schedules.Repository {
	return &scheduleRepo{
		byID: make(map[string]schedules.MedicationSchedule),
	}
}

func (r *scheduleRepo) Create(ctx context.Context, m schedules.MedicationSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(m.ID) == "" {
		return errors.New("schedule id required")
	}
	if _, exists := r.byID[m.ID]; exists {
		return errors.New("schedule already exists")
	}
	r.byID[m.ID] = clone(m)
	return nil
}

func (r *scheduleRepo) Update(ctx context.Context, m schedules.MedicationSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[m.ID]; !exists {
		return schedules.ErrNotFound
	}
	r.byID[m.ID] = clone(m)
	return nil
}

func (r *scheduleRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return schedules.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *scheduleRepo) GetByID(ctx context.Context, id string) (schedules.MedicationSchedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byID[id]
	if !ok {
		return schedules.MedicationSchedule{}, schedules.ErrNotFound
	}
	return clone(m), nil
}

func (r *scheduleRepo) List(ctx context.Context) ([]schedules.MedicationSchedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]schedules.MedicationSchedule, 0, len(r.byID))
	for _, m := range r.byID {
		out = append(out, clone(m))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func clone(m schedules.MedicationSchedule) schedules.MedicationSchedule {
	if m.ReminderIDs != nil {
		m.ReminderIDs = append([]string(nil), m.ReminderIDs...)
	}
	return m
}
