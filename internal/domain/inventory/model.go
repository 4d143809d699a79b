package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record es el stock de un medicamento, identificado por Key(nombre).
type Record struct {
	Key  string
	Name string

	Stock    decimal.Decimal // >= 0
	Consumed decimal.Decimal // >= 0

	CreatedAt time.Time
	UpdatedAt time.Time
}

type ListFilter struct {
	Query string // contiene, sobre nombre o key
}

// DefaultLowStockThreshold: stock <= 10 se considera bajo.
var DefaultLowStockThreshold = decimal.NewFromInt(10)

// Reserved aplica una reserva sobre el registro sin persistir.
func (r Record) Reserved(qty decimal.Decimal) (Record, error) {
	if !qty.IsPositive() {
		return Record{}, ErrInvalidQuantity
	}
	if qty.GreaterThan(r.Stock) {
		return Record{}, ErrInsufficientStock
	}
	r.Stock = r.Stock.Sub(qty)
	r.Consumed = r.Consumed.Add(qty)
	return r, nil
}

// Released deshace una reserva: stock += qty, consumed -= qty.
func (r Record) Released(qty decimal.Decimal) (Record, error) {
	if !qty.IsPositive() || qty.GreaterThan(r.Consumed) {
		return Record{}, ErrInvalidQuantity
	}
	r.Stock = r.Stock.Add(qty)
	r.Consumed = r.Consumed.Sub(qty)
	return r, nil
}

// Adjusted aplica un ajuste manual sobre el registro sin persistir.
func (r Record) Adjusted(delta decimal.Decimal) (Record, error) {
	switch {
	case delta.IsZero():
		return Record{}, ErrInvalidQuantity
	case delta.IsPositive():
		r.Stock = r.Stock.Add(delta)
	default:
		used := delta.Abs()
		if used.GreaterThan(r.Stock) {
			return Record{}, ErrInsufficientStock
		}
		r.Stock = r.Stock.Sub(used)
		r.Consumed = r.Consumed.Add(used)
	}
	return r, nil
}
