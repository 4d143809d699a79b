package reminders

import (
	"context"
	"time"

	"care-facility-meds/internal/domain/timerules"
	"care-facility-meds/internal/platform/logger"
)

// DefaultLead es la anticipación del pre-aviso.
const DefaultLead = 60 * time.Second

type Scheduler struct {
	facility Facility
	log      logger.Logger
	now      func() time.Time
	lead     time.Duration
}

func NewScheduler(f Facility, log logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		facility: f,
		log:      log,
		now:      time.Now,
		lead:     DefaultLead,
	}
}

// WithClock reemplaza el reloj (tests / zona horaria configurada).
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	if now != nil {
		s.now = now
	}
	return s
}

// Schedule registra, por cada ocurrencia, el pre-aviso (si todavía está en el futuro)
// y el aviso principal. Las semillas con Every > 0 agregan además un recordatorio
// repetitivo.
//
// El repetitivo arranca en semilla+Every y no en la semilla misma: la semilla ya
// tiene su par one-shot y su aviso principal no debe dispararse dos veces. Un
// facility que ancle el repetitivo en la semilla duplicaría el primer aviso.
// Si falla un registro, cancela lo emitido en esta llamada y devuelve *FacilityError.
func (s *Scheduler) Schedule(ctx context.Context, tpl Template, occ []timerules.Occurrence) ([]string, error) {
	now := s.now()
	ids := make([]string, 0, len(occ)*2)

	fail := func(op string, err error) ([]string, error) {
		s.log.Error("reminder registration failed", map[string]any{
			"op":          op,
			"issued":      len(ids),
			"error":       err.Error(),
			"schedule_id": tpl.Data["schedule_id"],
		})
		s.Cancel(ctx, ids)
		return nil, &FacilityError{Op: op, Err: err}
	}

	for _, o := range occ {
		main := tpl.notification(o, KindMain)

		if pre := o.At.Add(-s.lead); pre.After(now) {
			n := tpl.notification(o, KindPreAlert)
			n.Title = PreAlertPrefix + n.Title
			id, err := s.facility.RegisterOneShot(ctx, n, pre)
			if err != nil {
				return fail("register_pre_alert", err)
			}
			ids = append(ids, id)
		}

		id, err := s.facility.RegisterOneShot(ctx, main, o.At)
		if err != nil {
			return fail("register_main", err)
		}
		ids = append(ids, id)

		if o.Every > 0 {
			id, err := s.facility.RegisterRepeating(ctx, tpl.notification(o, KindRepeat), o.At.Add(o.Every), o.Every)
			if err != nil {
				return fail("register_repeating", err)
			}
			ids = append(ids, id)
		}
	}

	s.log.Debug("reminders registered", map[string]any{
		"count":       len(ids),
		"occurrences": len(occ),
		"schedule_id": tpl.Data["schedule_id"],
	})
	return ids, nil
}

// Cancel es best-effort: los errores se loguean y nunca se devuelven.
func (s *Scheduler) Cancel(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}
	if err := s.facility.Cancel(ctx, ids); err != nil {
		s.log.Warn("reminder cancel failed", map[string]any{
			"count": len(ids),
			"error": err.Error(),
		})
	}
}

func (t Template) notification(o timerules.Occurrence, kind string) Notification {
	data := make(map[string]string, len(t.Data)+2)
	for k, v := range t.Data {
		data[k] = v
	}
	data["kind"] = kind

	title := t.Title
	if o.Label != "" {
		title += " (" + o.Label + ")"
		data["label"] = o.Label
	}
	return Notification{Title: title, Body: t.Body, Data: data}
}
