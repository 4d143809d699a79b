package inventory

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/inventory", func(ir chi.Router) {
		ir.Post("/", addStockHandler(svc))
		ir.Get("/", listInventoryHandler(svc))
		ir.Get("/low-stock", lowStockHandler(svc))
		ir.Get("/{key}", getInventoryHandler(svc))
		ir.Post("/{key}/adjust", adjustInventoryHandler(svc))
	})
}

type addStockRequest struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
}

type adjustRequest struct {
	Delta decimal.Decimal `json:"delta"`
}

type recordResponse struct {
	Key       string          `json:"key"`
	Name      string          `json:"name"`
	Stock     decimal.Decimal `json:"stock"`
	Consumed  decimal.Decimal `json:"consumed"`
	LowStock  bool            `json:"low_stock"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func addStockHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addStockRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		rec, err := svc.AddStock(r.Context(), AddStockInput{Name: req.Name, Quantity: req.Quantity})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toRecordResponse(rec, svc.LowStockThreshold()))
	}
}

// GET /inventory?q=ibupro
func listInventoryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRecordResponses(items, svc.LowStockThreshold()))
	}
}

func lowStockHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.LowStock(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRecordResponses(items, svc.LowStockThreshold()))
	}
}

func getInventoryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.Get(r.Context(), chi.URLParam(r, "key"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRecordResponse(rec, svc.LowStockThreshold()))
	}
}

func adjustInventoryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req adjustRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		rec, err := svc.Adjust(r.Context(), chi.URLParam(r, "key"), req.Delta)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRecordResponse(rec, svc.LowStockThreshold()))
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrInvalidQuantity):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toRecordResponse(r Record, lowStock decimal.Decimal) recordResponse {
	return recordResponse{
		Key:       r.Key,
		Name:      r.Name,
		Stock:     r.Stock,
		Consumed:  r.Consumed,
		LowStock:  r.Stock.LessThanOrEqual(lowStock),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toRecordResponses(items []Record, lowStock decimal.Decimal) []recordResponse {
	out := make([]recordResponse, 0, len(items))
	for _, r := range items {
		out = append(out, toRecordResponse(r, lowStock))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
