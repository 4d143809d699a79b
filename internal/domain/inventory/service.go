package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("inventory record not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("invalid quantity")
)

type Service struct {
	repo     Repository
	now      func() time.Time
	lowStock decimal.Decimal
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:     repo,
		now:      time.Now,
		lowStock: DefaultLowStockThreshold,
	}
}

func (s *Service) WithLowStockThreshold(th decimal.Decimal) *Service {
	if th.IsNegative() {
		return s
	}
	s.lowStock = th
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

type AddStockInput struct {
	Name     string
	Quantity decimal.Decimal
}

// AddStock da de alta el medicamento en inventario o suma stock si ya existe.
func (s *Service) AddStock(ctx context.Context, in AddStockInput) (Record, error) {
	name := strings.TrimSpace(in.Name)
	key := Key(name)
	if key == "" {
		return Record{}, ErrInvalidInput
	}
	if !in.Quantity.IsPositive() {
		return Record{}, ErrInvalidQuantity
	}
	return s.repo.AddStock(ctx, key, name, in.Quantity, s.now())
}

// Reserve descuenta qty del stock y lo suma a consumed, todo o nada.
func (s *Service) Reserve(ctx context.Context, key string, qty decimal.Decimal) (Record, error) {
	if !qty.IsPositive() {
		return Record{}, ErrInvalidQuantity
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return Record{}, ErrNotFound
	}
	return s.repo.Reserve(ctx, key, qty, s.now())
}

// Release devuelve al stock una reserva que no llegó a usarse.
func (s *Service) Release(ctx context.Context, key string, qty decimal.Decimal) (Record, error) {
	if !qty.IsPositive() {
		return Record{}, ErrInvalidQuantity
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return Record{}, ErrNotFound
	}
	return s.repo.Release(ctx, key, qty, s.now())
}

func (s *Service) Adjust(ctx context.Context, key string, delta decimal.Decimal) (Record, error) {
	if delta.IsZero() {
		return Record{}, ErrInvalidQuantity
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return Record{}, ErrNotFound
	}
	return s.repo.Adjust(ctx, key, delta, s.now())
}

func (s *Service) Get(ctx context.Context, key string) (Record, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Record{}, ErrNotFound
	}
	return s.repo.Get(ctx, key)
}

func (s *Service) List(ctx context.Context, query string) ([]Record, error) {
	return s.repo.List(ctx, ListFilter{Query: strings.TrimSpace(query)})
}

// LowStock lista los registros con stock <= umbral.
func (s *Service) LowStock(ctx context.Context) ([]Record, error) {
	items, err := s.repo.List(ctx, ListFilter{})
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0)
	for _, r := range items {
		if r.Stock.LessThanOrEqual(s.lowStock) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Service) LowStockThreshold() decimal.Decimal { return s.lowStock }
