package schedules

import (
	"errors"

	"care-facility-meds/internal/domain/timerules"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrBadState            = errors.New("invalid state")
	ErrNoFutureOccurrences = timerules.ErrNoFutureOccurrences
)

// ValidationError corta la operación antes de cualquier efecto.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// OpError agrega operación y horario a cualquier error del servicio.
type OpError struct {
	Op         string
	ScheduleID string
	Err        error
}

func (e *OpError) Error() string {
	if e.ScheduleID == "" {
		return "schedules: " + e.Op + ": " + e.Err.Error()
	}
	return "schedules: " + e.Op + " " + e.ScheduleID + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error { return e.Err }

func opErr(op, id string, err error) error {
	var oe *OpError
	if errors.As(err, &oe) {
		return err
	}
	return &OpError{Op: op, ScheduleID: id, Err: err}
}
