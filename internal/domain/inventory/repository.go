package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repository implementa el ledger. Reserve, Adjust y AddStock deben ser
// read-modify-write atómicos por key.
type Repository interface {
	Get(ctx context.Context, key string) (Record, error)
	List(ctx context.Context, f ListFilter) ([]Record, error)

	// AddStock crea el registro (consumed=0) o suma stock al existente.
	AddStock(ctx context.Context, key, name string, qty decimal.Decimal, now time.Time) (Record, error)
	// Reserve: stock -= qty, consumed += qty. ErrNotFound / ErrInsufficientStock.
	Reserve(ctx context.Context, key string, qty decimal.Decimal, now time.Time) (Record, error)
	// Release: stock += qty, consumed -= qty. ErrNotFound / ErrInvalidQuantity.
	Release(ctx context.Context, key string, qty decimal.Decimal, now time.Time) (Record, error)
	// Adjust: delta > 0 suma stock; delta < 0 resta stock y suma |delta| a consumed.
	Adjust(ctx context.Context, key string, delta decimal.Decimal, now time.Time) (Record, error)
}
