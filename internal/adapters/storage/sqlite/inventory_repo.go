package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"care-facility-meds/internal/domain/inventory"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type InventoryRepo struct {
	db *sqlx.DB
}

func NewInventoryRepo(db *sqlx.DB) *InventoryRepo {
	return &InventoryRepo{db: db}
}

type recordRow struct {
	Key       string          `db:"key"`
	Name      string          `db:"name"`
	Stock     decimal.Decimal `db:"stock"`
	Consumed  decimal.Decimal `db:"consumed"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (row recordRow) record() inventory.Record {
	return inventory.Record{
		Key:       row.Key,
		Name:      row.Name,
		Stock:     row.Stock,
		Consumed:  row.Consumed,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

const selectRecord = `SELECT key, name, stock, consumed, created_at, updated_at FROM inventory`

func (r *InventoryRepo) Get(ctx context.Context, key string) (inventory.Record, error) {
	return get(ctx, r.db, key)
}

func (r *InventoryRepo) List(ctx context.Context, f inventory.ListFilter) ([]inventory.Record, error) {
	var rows []recordRow
	var err error
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		err = r.db.SelectContext(ctx, &rows, selectRecord+` WHERE lower(name) LIKE ? OR key LIKE ? ORDER BY name ASC`, like, like)
	} else {
		err = r.db.SelectContext(ctx, &rows, selectRecord+` ORDER BY name ASC`)
	}
	if err != nil {
		return nil, err
	}

	out := make([]inventory.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.record())
	}
	return out, nil
}

func (r *InventoryRepo) AddStock(ctx context.Context, key, name string, qty decimal.Decimal, now time.Time) (inventory.Record, error) {
	now = now.UTC()
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return inventory.Record{}, err
	}
	defer tx.Rollback()

	rec, err := get(ctx, tx, key)
	switch {
	case errors.Is(err, inventory.ErrNotFound):
		rec = inventory.Record{Key: key, Name: name, Stock: qty, Consumed: decimal.Zero, CreatedAt: now, UpdatedAt: now}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO inventory (key, name, stock, consumed, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, rec.Key, rec.Name, rec.Stock, rec.Consumed, rec.CreatedAt, rec.UpdatedAt); err != nil {
			return inventory.Record{}, err
		}
	case err != nil:
		return inventory.Record{}, err
	default:
		rec.Stock = rec.Stock.Add(qty)
		rec.UpdatedAt = now
		if err := update(ctx, tx, rec); err != nil {
			return inventory.Record{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return inventory.Record{}, err
	}
	return rec, nil
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

func (r *InventoryRepo) mutate(ctx context.Context, key string, now time.Time, fn func(inventory.Record) (inventory.Record, error)) (inventory.Record, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return inventory.Record{}, err
	}
	defer tx.Rollback()

	rec, err := get(ctx, tx, key)
	if err != nil {
		return inventory.Record{}, err
	}
	next, err := fn(rec)
	if err != nil {
		return inventory.Record{}, err
	}
	next.UpdatedAt = now.UTC()

	if err := update(ctx, tx, next); err != nil {
		return inventory.Record{}, err
	}
	if err := tx.Commit(); err != nil {
		return inventory.Record{}, err
	}
	return next, nil
}

func get(ctx context.Context, q sqlx.QueryerContext, key string) (inventory.Record, error) {
	var row recordRow
	if err := sqlx.GetContext(ctx, q, &row, selectRecord+` WHERE key = ?`, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return inventory.Record{}, inventory.ErrNotFound
		}
		return inventory.Record{}, err
	}
	return row.record(), nil
}

func update(ctx context.Context, ex sqlx.ExecerContext, rec inventory.Record) error {
	_, err := ex.ExecContext(ctx, `
		UPDATE inventory SET stock = ?, consumed = ?, updated_at = ? WHERE key = ?
	`, rec.Stock, rec.Consumed, rec.UpdatedAt, rec.Key)
	return err
}
