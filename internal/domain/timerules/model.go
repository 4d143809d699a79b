package timerules

import (
	"errors"
	"sort"
	"strings"
	"time"
)

var (
	ErrInvalidRule         = errors.New("invalid rule")
	ErrNoFutureOccurrences = errors.New("no future occurrences")
)

// RuleError identifica el campo de la regla que no pasó la validación.
type RuleError struct {
	Field  string
	Reason string
}

func (e *RuleError) Error() string {
	return "invalid rule: " + e.Field + ": " + e.Reason
}

func (e *RuleError) Unwrap() error { return ErrInvalidRule }

// Rule es una de Once, FixedInterval, Weekly o MealRelative.
// El método privado cierra el conjunto de variantes.
type Rule interface {
	Kind() Kind
	validate() error
}

type Once struct {
	At time.Time
}

type FixedInterval struct {
	Start time.Time
	Hours float64
}

type Weekly struct {
	Days []time.Weekday
	At   TimeOfDay
}

// MealRelative asocia cada comida a una hora; nil = comida no seleccionada.
type MealRelative struct {
	Times map[string]*TimeOfDay
}

func (Once) Kind() Kind          { return KindOnce }
func (FixedInterval) Kind() Kind { return KindFixedInterval }
func (Weekly) Kind() Kind        { return KindWeekly }
func (MealRelative) Kind() Kind  { return KindMealRelative }

func (r Once) validate() error {
	if r.At.IsZero() {
		return &RuleError{Field: "at", Reason: "required"}
	}
	return nil
}

func (r FixedInterval) validate() error {
	if r.Start.IsZero() {
		return &RuleError{Field: "start", Reason: "required"}
	}
	if r.Hours <= 0 {
		return &RuleError{Field: "interval_hours", Reason: "must be > 0"}
	}
	if r.Interval() < MinInterval {
		return &RuleError{Field: "interval_hours", Reason: "must be at least one minute"}
	}
	return nil
}

func (r Weekly) validate() error {
	if len(r.Days) == 0 {
		return &RuleError{Field: "weekdays", Reason: "select at least one day"}
	}
	for _, d := range r.Days {
		if d < time.Sunday || d > time.Saturday {
			return &RuleError{Field: "weekdays", Reason: "day out of range 0..6"}
		}
	}
	if !r.At.Valid() {
		return &RuleError{Field: "time", Reason: "invalid time of day"}
	}
	return nil
}

func (r MealRelative) validate() error {
	selected := 0
	for label, t := range r.Times {
		if strings.TrimSpace(label) == "" {
			return &RuleError{Field: "meal_times", Reason: "empty meal label"}
		}
		if t == nil {
			continue
		}
		if !t.Valid() {
			return &RuleError{Field: "meal_times." + label, Reason: "invalid time of day"}
		}
		selected++
	}
	if selected == 0 {
		return &RuleError{Field: "meal_times", Reason: "select at least one meal"}
	}
	return nil
}

// Validate valida una regla cualquiera; nil es inválido.
func Validate(r Rule) error {
	if r == nil {
		return &RuleError{Field: "type", Reason: "required"}
	}
	return r.validate()
}

func (r FixedInterval) Interval() time.Duration {
	return time.Duration(r.Hours * float64(time.Hour))
}

// Weekdays devuelve los días sin duplicados y ordenados.
func (r Weekly) Weekdays() []time.Weekday {
	seen := map[time.Weekday]struct{}{}
	out := make([]time.Weekday, 0, len(r.Days))
	for _, d := range r.Days {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Labels devuelve las comidas seleccionadas en orden alfabético.
func (r MealRelative) Labels() []string {
	out := make([]string, 0, len(r.Times))
	for label, t := range r.Times {
		if t != nil {
			out = append(out, label)
		}
	}
	sort.Strings(out)
	return out
}
