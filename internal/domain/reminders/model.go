package reminders

import (
	"context"
	"errors"
	"time"
)

var ErrFacility = errors.New("notification facility error")

// Notification es lo que la facility entrega al dispararse.
type Notification struct {
	Title string
	Body  string
	Data  map[string]string
}

// Facility registra recordatorios disparados por tiempo fuera de este proceso
// (o en un scheduler local) y devuelve un ID para cancelarlos luego.
type Facility interface {
	RegisterOneShot(ctx context.Context, n Notification, fireAt time.Time) (string, error)
	RegisterRepeating(ctx context.Context, n Notification, firstFireAt time.Time, period time.Duration) (string, error)
	Cancel(ctx context.Context, ids []string) error
}

// Template es la base de todos los recordatorios de un horario.
type Template struct {
	Title string
	Body  string
	Data  map[string]string
}

// Tipos de recordatorio, viajan en Data["kind"].
const (
	KindPreAlert = "pre_alert"
	KindMain     = "main"
	KindRepeat   = "repeat"
)

const PreAlertPrefix = "En 1 min: "

type FacilityError struct {
	Op  string
	Err error
}

func (e *FacilityError) Error() string {
	return "notification facility: " + e.Op + ": " + e.Err.Error()
}

func (e *FacilityError) Unwrap() []error { return []error{ErrFacility, e.Err} }
