package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"care-facility-meds/internal/domain/inventory"

	"github.com/shopspring/decimal"
)

// inventoryRepo serializa todas las mutaciones con un único lock.
type inventoryRepo struct {
	mu    sync.RWMutex
	byKey map[string]inventory.Record
}

func NewInventoryRepo() inventory.Repository {
	return &inventoryRepo{
		byKey: make(map[string]inventory.Record),
	}
}

func (r *inventoryRepo) Get(ctx context.Context, key string) (inventory.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byKey[key]
	if !ok {
		return inventory.Record{}, inventory.ErrNotFound
	}
	return rec, nil
}

func (r *inventoryRepo) List(ctx context.Context, f inventory.ListFilter) ([]inventory.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]inventory.Record, 0, len(r.byKey))
	for _, rec := range r.byKey {
		if q != "" && !strings.Contains(strings.ToLower(rec.Name), q) && !strings.Contains(rec.Key, q) {
			continue
		}
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *inventoryRepo) AddStock(ctx context.Context, key, name string, qty decimal.Decimal, now time.Time) (inventory.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byKey[key]
	if !ok {
		rec = inventory.Record{Key: key, Name: name, CreatedAt: now}
	}
	rec.Stock = rec.Stock.Add(qty)
	rec.UpdatedAt = now
	r.byKey[key] = rec
	return rec, nil
}

func (r *inventoryRepo) Reserve(ctx context.Context, key string, qty decimal.Decimal, now time.Time) (inventory.Record, error) {
	return r.mutate(key, now, func(rec inventory.Record) (inventory.Record, error) {
		return rec.Reserved(qty)
	})
}

func (r *inventoryRepo) Release(ctx context.Context, key string, qty decimal.Decimal, now time.Time) (inventory.Record, error) {
	return r.mutate(key, now, func(rec inventory.Record) (inventory.Record, error) {
		return rec.Released(qty)
	})
}

func (r *inventoryRepo) Adjust(ctx context.Context, key string, delta decimal.Decimal, now time.Time) (inventory.Record, error) {
	return r.mutate(key, now, func(rec inventory.Record) (inventory.Record, error) {
		return rec.Adjusted(delta)
	})
}

func (r *inventoryRepo) mutate(key string, now time.Time, fn func(inventory.Record) (inventory.Record, error)) (inventory.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byKey[key]
	if !ok {
		return inventory.Record{}, inventory.ErrNotFound
	}
	next, err := fn(rec)
	if err != nil {
		return inventory.Record{}, err
	}
	next.UpdatedAt = now
	r.byKey[key] = next
	return next, nil
}
