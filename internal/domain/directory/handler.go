package directory

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/doctors", listDoctorsHandler(svc))
	r.Get("/patients", listPatientsHandler(svc))
	r.Get("/medications", listMedicationsHandler(svc))
}

type doctorResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type patientResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}

type medicationResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func listDoctorsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.Doctors(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		out := make([]doctorResponse, 0, len(items))
		for _, d := range items {
			out = append(out, doctorResponse{ID: d.ID, Name: d.Name})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func listPatientsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.Patients(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		out := make([]patientResponse, 0, len(items))
		for _, p := range items {
			out = append(out, patientResponse{ID: p.ID, FullName: p.FullName})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func listMedicationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.Medications(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		out := make([]medicationResponse, 0, len(items))
		for _, m := range items {
			out = append(out, medicationResponse{ID: m.ID, Name: m.Name})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
