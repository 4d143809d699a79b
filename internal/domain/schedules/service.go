package schedules

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"care-facility-meds/internal/domain/directory"
	"care-facility-meds/internal/domain/inventory"
	"care-facility-meds/internal/domain/reminders"
	"care-facility-meds/internal/domain/timerules"
	"care-facility-meds/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Service struct {
	repo      Repository
	reminders Reminders
	ledger    Ledger
	dir       Directory
	log       logger.Logger
	now       func() time.Time

	locks idLocks
}

func NewService(repo Repository, rem Reminders, ledger Ledger, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:      repo,
		reminders: rem,
		ledger:    ledger,
		log:       log.With(map[string]any{"component": "schedules"}),
		now:       time.Now,
	}
}

func (s *Service) WithDirectory(d Directory) *Service {
	s.dir = d
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// CreateInput también se usa en la edición (reemplazo completo del formulario).
type CreateInput struct {
	DoctorID   string
	DoctorName string

	PatientID   string
	PatientName string

	MedicationID   string
	MedicationName string

	Dose  decimal.Decimal
	Rule  timerules.Rule
	Notes string
}

type UpdateInput = CreateInput

// Create: validar -> expandir -> registrar recordatorios -> reservar stock -> persistir.
func (s *Service) Create(ctx context.Context, in CreateInput) (MedicationSchedule, error) {
	const op = "create"

	f, err := s.normalize(ctx, in)
	if err != nil {
		return MedicationSchedule{}, opErr(op, "", err)
	}

	now := s.now()
	occ, err := expand(f.Rule, now)
	if err != nil {
		return MedicationSchedule{}, opErr(op, "", err)
	}

	m := f
	m.ID = uuid.NewString()
	m.State = StateScheduled
	m.CreatedAt = now
	m.UpdatedAt = now

	ids, err := s.reminders.Schedule(ctx, template(m), occ)
	if err != nil {
		return MedicationSchedule{}, opErr(op, m.ID, err)
	}

	if _, err := s.ledger.Reserve(ctx, m.InventoryKey, m.Dose); err != nil {
		s.reminders.Cancel(ctx, ids)
		s.log.Warn("stock reservation failed, reminders cancelled", map[string]any{
			"schedule_id":   m.ID,
			"inventory_key": m.InventoryKey,
			"dose":          m.Dose.String(),
			"error":         err.Error(),
		})
		return MedicationSchedule{}, opErr(op, m.ID, err)
	}

	m.ReminderIDs = ids
	if err := s.repo.Create(ctx, m); err != nil {
		s.reminders.Cancel(ctx, ids)
		fields := map[string]any{
			"schedule_id":   m.ID,
			"inventory_key": m.InventoryKey,
			"dose":          m.Dose.String(),
			"error":         err.Error(),
		}
		if _, rerr := s.ledger.Release(ctx, m.InventoryKey, m.Dose); rerr != nil {
			fields["release_error"] = rerr.Error()
			s.log.Error("schedule not persisted and reserved stock not released", fields)
		} else {
			s.log.Warn("schedule not persisted, reserved stock released", fields)
		}
		return MedicationSchedule{}, opErr(op, m.ID, err)
	}

	s.log.Info("schedule created", map[string]any{
		"schedule_id": m.ID,
		"rule":        timerules.Summary(m.Rule),
		"reminders":   len(ids),
	})
	return m, nil
}

// Update reemplaza los datos del horario y re-registra sus recordatorios.
// El inventario no se toca.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (MedicationSchedule, error) {
	const op = "update"
	id = strings.TrimSpace(id)

	unlock := s.locks.lock(id)
	defer unlock()

	cur, err := s.load(ctx, id)
	if err != nil {
		return MedicationSchedule{}, opErr(op, id, err)
	}
	if cur.State == StateFinished {
		return MedicationSchedule{}, opErr(op, id, ErrBadState)
	}

	f, err := s.normalize(ctx, in)
	if err != nil {
		return MedicationSchedule{}, opErr(op, id, err)
	}

	now := s.now()
	var occ []timerules.Occurrence
	if cur.State == StateScheduled {
		if occ, err = expand(f.Rule, now); err != nil {
			return MedicationSchedule{}, opErr(op, id, err)
		}
	}

	next := f
	next.ID = cur.ID
	next.State = cur.State
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = now

	s.reminders.Cancel(ctx, cur.ReminderIDs)

	if next.State == StateScheduled {
		ids, err := s.reminders.Schedule(ctx, template(next), occ)
		if err != nil {
			// los anteriores ya se cancelaron: queda pausado y sin recordatorios
			next.State = StatePaused
			if perr := s.repo.Update(ctx, next); perr != nil {
				s.log.Error("persist after failed re-registration", map[string]any{"schedule_id": id, "error": perr.Error()})
			}
			return MedicationSchedule{}, opErr(op, id, err)
		}
		next.ReminderIDs = ids
	}

	if err := s.repo.Update(ctx, next); err != nil {
		s.reminders.Cancel(ctx, next.ReminderIDs)
		return MedicationSchedule{}, opErr(op, id, err)
	}

	s.log.Info("schedule updated", map[string]any{"schedule_id": id, "reminders": len(next.ReminderIDs)})
	return next, nil
}

func (s *Service) Pause(ctx context.Context, id string) (MedicationSchedule, error) {
	const op = "pause"
	id = strings.TrimSpace(id)

	unlock := s.locks.lock(id)
	defer unlock()

	m, err := s.load(ctx, id)
	if err != nil {
		return MedicationSchedule{}, opErr(op, id, err)
	}
	switch m.State {
	case StateFinished:
		return MedicationSchedule{}, opErr(op, id, ErrBadState)
	case StatePaused:
		return m, nil
	}

	s.reminders.Cancel(ctx, m.ReminderIDs)
	m.ReminderIDs = nil
	m.State = StatePaused
	m.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, m); err != nil {
		return MedicationSchedule{}, opErr(op, id, err)
	}
	return m, nil
}

func (s *Service) Resume(ctx context.Context, id string) (MedicationSchedule, error) {
	const op = "resume"
	id = strings.TrimSpace(id)

	unlock := s.locks.lock(id)
	defer unlock()

	m, err := s.load(ctx, id)
	if err != nil {
		return MedicationSchedule{}, opErr(op, id, err)
	}
	switch m.State {
	case StateFinished:
		return MedicationSchedule{}, opErr(op, id, ErrBadState)
	case StateScheduled:
		return m, nil
	}

	now := s.now()
	occ, err := expand(m.Rule, now)
	if err != nil {
		return MedicationSchedule{}, opErr(op, id, err)
	}

	// un pausado no debería tener IDs; se cancelan igual por si quedaron
	s.reminders.Cancel(ctx, m.ReminderIDs)

	ids, err := s.reminders.Schedule(ctx, template(m), occ)
	if err != nil {
		return MedicationSchedule{}, opErr(op, id, err)
	}

	m.ReminderIDs = ids
	m.State = StateScheduled
	m.UpdatedAt = now

	if err := s.repo.Update(ctx, m); err != nil {
		s.reminders.Cancel(ctx, ids)
		return MedicationSchedule{}, opErr(op, id, err)
	}
	return m, nil
}

// Delete cancela los recordatorios y borra el registro. El stock consumido no se devuelve.
func (s *Service) Delete(ctx context.Context, id string) error {
	const op = "delete"
	id = strings.TrimSpace(id)

	unlock := s.locks.lock(id)
	defer unlock()

	m, err := s.load(ctx, id)
	if err != nil {
		return opErr(op, id, err)
	}

	s.reminders.Cancel(ctx, m.ReminderIDs)
	if err := s.repo.Delete(ctx, id); err != nil {
		return opErr(op, id, err)
	}

	s.log.Info("schedule deleted", map[string]any{"schedule_id": id})
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (MedicationSchedule, error) {
	id = strings.TrimSpace(id)

	unlock := s.locks.lock(id)
	defer unlock()

	m, err := s.load(ctx, id)
	if err != nil {
		return MedicationSchedule{}, opErr("get", id, err)
	}
	return m, nil
}

// List aplica el barrido perezoso y filtra. Orden: más recientes primero.
func (s *Service) List(ctx context.Context, f ListFilter) ([]MedicationSchedule, error) {
	if f.State != "" && !f.State.Valid() {
		return nil, opErr("list", "", &ValidationError{Field: "state", Reason: "unknown state " + string(f.State)})
	}

	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, opErr("list", "", err)
	}

	now := s.now()
	q := strings.ToLower(strings.TrimSpace(f.Query))

	out := make([]MedicationSchedule, 0, len(items))
	for _, m := range items {
		if needsFinish(m, now) {
			m = s.finishLocked(ctx, m.ID, m, now)
		}
		if f.State != "" && m.State != f.State {
			continue
		}
		if q != "" && !matches(m, q) {
			continue
		}
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Sweep termina los Once vencidos. Lo corre un job periódico además de las lecturas.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return 0, opErr("sweep", "", err)
	}

	now := s.now()
	n := 0
	for _, m := range items {
		if !needsFinish(m, now) {
			continue
		}
		s.finishLocked(ctx, m.ID, m, now)
		n++
	}
	if n > 0 {
		s.log.Info("finished elapsed schedules", map[string]any{"count": n})
	}
	return n, nil
}

// Resync vuelve a registrar los recordatorios de cada horario activo contra now
// y persiste los IDs nuevos. Lo usa el arranque cuando el facility no guarda
// estado entre procesos: los IDs persistidos ya no existen en él.
func (s *Service) Resync(ctx context.Context) (int, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return 0, opErr("resync", "", err)
	}

	n := 0
	var errs []error
	for _, m := range items {
		if m.State != StateScheduled {
			continue
		}
		ok, err := s.resync(ctx, m.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			n++
		}
	}

	s.log.Info("schedules resynced", map[string]any{"count": n, "failed": len(errs)})
	return n, errors.Join(errs...)
}

func (s *Service) resync(ctx context.Context, id string) (bool, error) {
	const op = "resync"

	unlock := s.locks.lock(id)
	defer unlock()

	m, err := s.load(ctx, id)
	if err != nil {
		return false, opErr(op, id, err)
	}
	if m.State != StateScheduled {
		return false, nil
	}

	now := s.now()
	occ, err := expand(m.Rule, now)
	if err != nil && !errors.Is(err, ErrNoFutureOccurrences) {
		return false, opErr(op, id, err)
	}

	s.reminders.Cancel(ctx, m.ReminderIDs)
	m.ReminderIDs = nil
	m.UpdatedAt = now

	if len(occ) > 0 {
		ids, err := s.reminders.Schedule(ctx, template(m), occ)
		if err != nil {
			m.State = StatePaused
			if perr := s.repo.Update(ctx, m); perr != nil {
				s.log.Error("persist after failed resync", map[string]any{"schedule_id": id, "error": perr.Error()})
			}
			return false, opErr(op, id, err)
		}
		m.ReminderIDs = ids
	} else {
		// intervalo fijo fuera del horizonte: sigue activo pero sin avisos
		s.log.Warn("schedule has no future occurrences", map[string]any{"schedule_id": id})
	}

	if err := s.repo.Update(ctx, m); err != nil {
		s.reminders.Cancel(ctx, m.ReminderIDs)
		return false, opErr(op, id, err)
	}
	return len(m.ReminderIDs) > 0, nil
}

// load lee y aplica el barrido; el caller tiene el lock del ID.
func (s *Service) load(ctx context.Context, id string) (MedicationSchedule, error) {
	if id == "" {
		return MedicationSchedule{}, ErrNotFound
	}
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		// ErrNotFound llega del repo; el resto (caídas del store) pasa tal cual
		return MedicationSchedule{}, err
	}
	if needsFinish(m, s.now()) {
		m = s.finish(ctx, m, s.now())
	}
	return m, nil
}

func (s *Service) finishLocked(ctx context.Context, id string, m MedicationSchedule, now time.Time) MedicationSchedule {
	unlock := s.locks.lock(id)
	defer unlock()

	// releer: otra operación pudo cambiarlo mientras esperábamos
	fresh, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return m
	}
	if !needsFinish(fresh, now) {
		return fresh
	}
	return s.finish(ctx, fresh, now)
}

// finish marca como terminado. Si no se puede persistir, la vista devuelta
// igual queda terminada y la próxima lectura lo reintenta.
func (s *Service) finish(ctx context.Context, m MedicationSchedule, now time.Time) MedicationSchedule {
	s.reminders.Cancel(ctx, m.ReminderIDs)

	m.State = StateFinished
	m.ReminderIDs = nil
	m.UpdatedAt = now

	if err := s.repo.Update(ctx, m); err != nil {
		s.log.Warn("persist finished schedule failed", map[string]any{
			"schedule_id": m.ID,
			"error":       err.Error(),
		})
	}
	return m
}

func needsFinish(m MedicationSchedule, now time.Time) bool {
	return m.State != StateFinished && timerules.Elapsed(m.Rule, now)
}

func expand(r timerules.Rule, now time.Time) ([]timerules.Occurrence, error) {
	occ, err := timerules.Expand(r, now)
	if err != nil {
		return nil, ruleValidation(err)
	}
	if len(occ) == 0 {
		return nil, ErrNoFutureOccurrences
	}
	return occ, nil
}

func (s *Service) normalize(ctx context.Context, in CreateInput) (MedicationSchedule, error) {
	m := MedicationSchedule{
		DoctorID:       strings.TrimSpace(in.DoctorID),
		DoctorName:     strings.TrimSpace(in.DoctorName),
		PatientID:      strings.TrimSpace(in.PatientID),
		PatientName:    strings.TrimSpace(in.PatientName),
		MedicationID:   strings.TrimSpace(in.MedicationID),
		MedicationName: strings.TrimSpace(in.MedicationName),
		Dose:           in.Dose,
		Rule:           in.Rule,
		Notes:          strings.TrimSpace(in.Notes),
	}

	if m.DoctorID == "" {
		return MedicationSchedule{}, &ValidationError{Field: "doctor_id", Reason: "required"}
	}
	if m.PatientID == "" {
		return MedicationSchedule{}, &ValidationError{Field: "patient_id", Reason: "required"}
	}
	if m.MedicationID == "" {
		return MedicationSchedule{}, &ValidationError{Field: "medication_id", Reason: "required"}
	}
	if !m.Dose.IsPositive() {
		return MedicationSchedule{}, &ValidationError{Field: "dose", Reason: "must be > 0"}
	}
	if err := timerules.Validate(m.Rule); err != nil {
		return MedicationSchedule{}, ruleValidation(err)
	}

	if s.dir != nil {
		if err := s.resolve(ctx, &m); err != nil {
			return MedicationSchedule{}, err
		}
	}

	switch {
	case m.DoctorName == "":
		return MedicationSchedule{}, &ValidationError{Field: "doctor_name", Reason: "required"}
	case m.PatientName == "":
		return MedicationSchedule{}, &ValidationError{Field: "patient_name", Reason: "required"}
	case m.MedicationName == "":
		return MedicationSchedule{}, &ValidationError{Field: "medication_name", Reason: "required"}
	}

	m.InventoryKey = inventory.Key(m.MedicationName)
	if m.InventoryKey == "" {
		return MedicationSchedule{}, &ValidationError{Field: "medication_name", Reason: "has no letters or digits"}
	}
	return m, nil
}

// resolve toma los nombres del directorio.
func (s *Service) resolve(ctx context.Context, m *MedicationSchedule) error {
	d, err := s.dir.Doctor(ctx, m.DoctorID)
	if err != nil {
		return lookupErr("doctor_id", err)
	}
	p, err := s.dir.Patient(ctx, m.PatientID)
	if err != nil {
		return lookupErr("patient_id", err)
	}
	med, err := s.dir.Medication(ctx, m.MedicationID)
	if err != nil {
		return lookupErr("medication_id", err)
	}
	m.DoctorName = d.Name
	m.PatientName = p.FullName
	m.MedicationName = med.Name
	return nil
}

func lookupErr(field string, err error) error {
	if errors.Is(err, directory.ErrNotFound) {
		return &ValidationError{Field: field, Reason: "unknown reference"}
	}
	return err
}

func ruleValidation(err error) error {
	var re *timerules.RuleError
	if errors.As(err, &re) {
		return &ValidationError{Field: "rule." + re.Field, Reason: re.Reason}
	}
	if errors.Is(err, timerules.ErrInvalidRule) {
		return &ValidationError{Field: "rule", Reason: err.Error()}
	}
	return err
}

func template(m MedicationSchedule) reminders.Template {
	return reminders.Template{
		Title: "Tomar: " + m.MedicationName,
		Body:  fmt.Sprintf("Paciente: %s · Asignó: Dr(a). %s · Cant.: %s", m.PatientName, m.DoctorName, m.Dose.String()),
		Data: map[string]string{
			"schedule_id":     m.ID,
			"medication_name": m.MedicationName,
			"dose":            m.Dose.String(),
		},
	}
}

func matches(m MedicationSchedule, q string) bool {
	fields := []string{
		m.PatientName,
		m.DoctorName,
		m.MedicationName,
		m.Dose.String(),
		m.CreatedAt.Format("2006-01-02"),
		string(m.State),
	}
	if m.Rule != nil {
		fields = append(fields, string(m.Rule.Kind()))
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// idLocks serializa operaciones sobre un mismo ID. La entrada se borra cuando
// nadie la usa.
type idLocks struct {
	mu sync.Mutex
	m  map[string]*idLock
}

type idLock struct {
	sync.Mutex
	refs int
}

func (l *idLocks) lock(id string) func() {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[string]*idLock)
	}
	e, ok := l.m[id]
	if !ok {
		e = &idLock{}
		l.m[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.Lock()
	return func() {
		e.Unlock()

		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.m, id)
		}
		l.mu.Unlock()
	}
}
