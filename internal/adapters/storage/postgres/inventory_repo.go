package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"care-facility-meds/internal/domain/inventory"

	"github.com/shopspring/decimal"
)

type InventoryRepo struct {
	db *sql.DB
}

func NewInventoryRepo(db *sql.DB) *InventoryRepo {
	return &InventoryRepo{db: db}
}

func (r *InventoryRepo) Get(ctx context.Context, key string) (inventory.Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT key, name, stock, consumed, created_at, updated_at
		FROM inventory
		WHERE key = $1
	`, key)
	return scanRecord(row)
}

func (r *InventoryRepo) List(ctx context.Context, f inventory.ListFilter) ([]inventory.Record, error) {
	q := strings.TrimSpace(f.Query)

	var (
		rows *sql.Rows
		err  error
	)
	if q == "" {
		rows, err = r.db.QueryContext(ctx, `
			SELECT key, name, stock, consumed, created_at, updated_at
			FROM inventory
			ORDER BY name ASC
		`)
	} else {
		like := "%" + q + "%"
		rows, err = r.db.QueryContext(ctx, `
			SELECT key, name, stock, consumed, created_at, updated_at
			FROM inventory
			WHERE name ILIKE $1 OR key ILIKE $1
			ORDER BY name ASC
		`, like)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]inventory.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *InventoryRepo) AddStock(ctx context.Context, key, name string, qty decimal.Decimal, now time.Time) (inventory.Record, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO inventory (key, name, stock, consumed, created_at, updated_at)
		VALUES ($1, $2, $3, 0, $4, $4)
		ON CONFLICT (key) DO UPDATE
		SET stock = inventory.stock + EXCLUDED.stock,
			updated_at = EXCLUDED.updated_at
		RETURNING key, name, stock, consumed, created_at, updated_at
	`, key, name, qty, now)
	return scanRecord(row)
}

func (r *InventoryRepo) Reserve(ctx context.Context, key string, qty decimal.Decimal, now time.Time) (inventory.Record, error) {
	return r.mutate(ctx, key, now, func(rec inventory.Record) (inventory.Record, error) {
		return rec.Reserved(qty)
	})
}

func (r *InventoryRepo) Release(ctx context.Context, key string, qty decimal.Decimal, now time.Time) (inventory.Record, error) {
	return r.mutate(ctx, key, now, func(rec inventory.Record) (inventory.Record, error) {
		return rec.Released(qty)
	})
}

func (r *InventoryRepo) Adjust(ctx context.Context, key string, delta decimal.Decimal, now time.Time) (inventory.Record, error) {
	return r.mutate(ctx, key, now, func(rec inventory.Record) (inventory.Record, error) {
		return rec.Adjusted(delta)
	})
}

// mutate bloquea la fila (FOR UPDATE) y aplica fn dentro de la misma transacción.
func (r *InventoryRepo) mutate(ctx context.Context, key string, now time.Time, fn func(inventory.Record) (inventory.Record, error)) (inventory.Record, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return inventory.Record{}, err
	}
	defer tx.Rollback()

	rec, err := scanRecord(tx.QueryRowContext(ctx, `
		SELECT key, name, stock, consumed, created_at, updated_at
		FROM inventory
		WHERE key = $1
		FOR UPDATE
	`, key))
	if err != nil {
		return inventory.Record{}, err
	}

	next, err := fn(rec)
	if err != nil {
		return inventory.Record{}, err
	}
	next.UpdatedAt = now

	if _, err := tx.ExecContext(ctx, `
		UPDATE inventory
		SET stock = $2, consumed = $3, updated_at = $4
		WHERE key = $1
	`, next.Key, next.Stock, next.Consumed, next.UpdatedAt); err != nil {
		return inventory.Record{}, err
	}

	if err := tx.Commit(); err != nil {
		return inventory.Record{}, err
	}
	return next, nil
}

func scanRecord(s scanner) (inventory.Record, error) {
	var rec inventory.Record
	if err := s.Scan(&rec.Key, &rec.Name, &rec.Stock, &rec.Consumed, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return inventory.Record{}, inventory.ErrNotFound
		}
		return inventory.Record{}, err
	}
	return rec, nil
}
