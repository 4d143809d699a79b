package schedules

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"care-facility-meds/internal/domain/inventory"
	"care-facility-meds/internal/domain/reminders"
	"care-facility-meds/internal/domain/timerules"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/schedules", func(sr chi.Router) {
		sr.Post("/", createScheduleHandler(svc))
		sr.Get("/", listSchedulesHandler(svc))

		sr.Route("/{scheduleID}", func(ir chi.Router) {
			ir.Get("/", getScheduleHandler(svc))
			ir.Put("/", updateScheduleHandler(svc))
			ir.Delete("/", deleteScheduleHandler(svc))
			ir.Post("/pause", pauseScheduleHandler(svc))
			ir.Post("/resume", resumeScheduleHandler(svc))
		})
	})
}

type scheduleRequest struct {
	DoctorID   string `json:"doctor_id"`
	DoctorName string `json:"doctor_name"`

	PatientID   string `json:"patient_id"`
	PatientName string `json:"patient_name"`

	MedicationID   string `json:"medication_id"`
	MedicationName string `json:"medication_name"`

	Dose  decimal.Decimal `json:"dose"`
	Rule  timerules.Spec  `json:"rule"`
	Notes string          `json:"notes"`
}

type scheduleResponse struct {
	ID string `json:"id"`

	DoctorID   string `json:"doctor_id"`
	DoctorName string `json:"doctor_name"`

	PatientID   string `json:"patient_id"`
	PatientName string `json:"patient_name"`

	MedicationID   string `json:"medication_id"`
	MedicationName string `json:"medication_name"`
	InventoryKey   string `json:"inventory_key"`

	Dose decimal.Decimal `json:"dose"`
	Rule timerules.Spec  `json:"rule"`

	State       State    `json:"state"`
	Active      bool     `json:"active"`
	ReminderIDs []string `json:"reminder_ids"`

	Notes string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (req scheduleRequest) input() (CreateInput, error) {
	rule, err := req.Rule.Rule()
	if err != nil {
		return CreateInput{}, ruleValidation(err)
	}
	return CreateInput{
		DoctorID:       req.DoctorID,
		DoctorName:     req.DoctorName,
		PatientID:      req.PatientID,
		PatientName:    req.PatientName,
		MedicationID:   req.MedicationID,
		MedicationName: req.MedicationName,
		Dose:           req.Dose,
		Rule:           rule,
		Notes:          req.Notes,
	}, nil
}

// createScheduleHandler godoc
// @Summary Crear horario de medicación
// @Description Valida el formulario, registra los recordatorios de la regla y descuenta una dosis del inventario. Si falta stock los recordatorios se cancelan y no se guarda nada.
// @Tags schedules
// @Accept json
// @Produce json
// @Param payload body scheduleRequest true "Horario; rule.type es once|fixed_interval|weekly|meal_relative"
// @Success 201 {object} scheduleResponse
// @Failure 400 {string} string "validación / regla sin ocurrencias futuras"
// @Failure 422 {string} string "stock insuficiente o medicamento sin inventario"
// @Failure 502 {string} string "notification facility unavailable"
// @Router /schedules [post]
func createScheduleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		in, err := req.input()
		if err != nil {
			writeError(w, err)
			return
		}

		m, err := svc.Create(r.Context(), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toScheduleResponse(m))
	}
}

// listSchedulesHandler godoc
// @Summary Listar horarios
// @Description Más recientes primero. Los horarios "once" vencidos se devuelven como finished.
// @Tags schedules
// @Produce json
// @Param q query string false "Texto libre: paciente, médico, medicamento, dosis, fecha, estado o tipo de regla"
// @Param state query string false "scheduled | paused | finished"
// @Success 200 {array} scheduleResponse
// @Failure 400 {string} string "estado desconocido"
// @Router /schedules [get]
func listSchedulesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context(), ListFilter{
			Query: r.URL.Query().Get("q"),
			State: State(r.URL.Query().Get("state")),
		})
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]scheduleResponse, 0, len(items))
		for _, m := range items {
			out = append(out, toScheduleResponse(m))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getScheduleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := svc.Get(r.Context(), chi.URLParam(r, "scheduleID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toScheduleResponse(m))
	}
}

// updateScheduleHandler godoc
// @Summary Editar horario
// @Description Reemplaza los datos y re-registra los recordatorios. No toca el inventario.
// @Tags schedules
// @Accept json
// @Produce json
// @Param scheduleID path string true "ID del horario"
// @Param payload body scheduleRequest true "Horario completo"
// @Success 200 {object} scheduleResponse
// @Failure 400 {string} string "validación"
// @Failure 404 {string} string "not found"
// @Failure 409 {string} string "horario finalizado"
// @Failure 502 {string} string "notification facility unavailable"
// @Router /schedules/{scheduleID} [put]
func updateScheduleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		in, err := req.input()
		if err != nil {
			writeError(w, err)
			return
		}

		m, err := svc.Update(r.Context(), chi.URLParam(r, "scheduleID"), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toScheduleResponse(m))
	}
}

func deleteScheduleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "scheduleID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func pauseScheduleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := svc.Pause(r.Context(), chi.URLParam(r, "scheduleID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toScheduleResponse(m))
	}
}

func resumeScheduleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := svc.Resume(r.Context(), chi.URLParam(r, "scheduleID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toScheduleResponse(m))
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrNoFutureOccurrences):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ErrBadState):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, inventory.ErrInsufficientStock),
		errors.Is(err, inventory.ErrInvalidQuantity),
		errors.Is(err, inventory.ErrNotFound):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, reminders.ErrFacility):
		http.Error(w, "notification facility unavailable", http.StatusBadGateway)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toScheduleResponse(m MedicationSchedule) scheduleResponse {
	ids := m.ReminderIDs
	if ids == nil {
		ids = []string{}
	}
	return scheduleResponse{
		ID:             m.ID,
		DoctorID:       m.DoctorID,
		DoctorName:     m.DoctorName,
		PatientID:      m.PatientID,
		PatientName:    m.PatientName,
		MedicationID:   m.MedicationID,
		MedicationName: m.MedicationName,
		InventoryKey:   m.InventoryKey,
		Dose:           m.Dose,
		Rule:           timerules.SpecOf(m.Rule),
		State:          m.State,
		Active:         m.Active(),
		ReminderIDs:    ids,
		Notes:          m.Notes,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
