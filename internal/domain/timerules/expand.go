package timerules

import (
	"fmt"
	"sort"
	"time"
)

// Expand calcula los instantes futuros (estrictamente después de now) de la regla.
// Las reglas semanales y de comidas devuelven una semilla por día/comida con Every seteado.
// Un resultado vacío no es error; el caller decide (ver ErrNoFutureOccurrences).
func Expand(r Rule, now time.Time) ([]Occurrence, error) {
	if err := Validate(r); err != nil {
		return nil, err
	}

	var out []Occurrence
	switch rule := r.(type) {
	case Once:
		out = expandOnce(rule, now)
	case FixedInterval:
		out = expandFixedInterval(rule, now)
	case Weekly:
		out = expandWeekly(rule, now)
	case MealRelative:
		out = expandMealRelative(rule, now)
	default:
		return nil, fmt.Errorf("%w: unsupported rule %T", ErrInvalidRule, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].At.Equal(out[j].At) {
			return out[i].Label < out[j].Label
		}
		return out[i].At.Before(out[j].At)
	})
	return out, nil
}

// Elapsed indica si una regla Once ya pasó. Las demás nunca terminan solas.
func Elapsed(r Rule, now time.Time) bool {
	o, ok := r.(Once)
	if !ok {
		return false
	}
	return !o.At.After(now)
}

func expandOnce(r Once, now time.Time) []Occurrence {
	if !r.At.After(now) {
		return nil
	}
	return []Occurrence{{At: r.At}}
}

func expandFixedInterval(r FixedInterval, now time.Time) []Occurrence {
	step := r.Interval()
	end := r.Start.Add(Horizon)

	first := r.Start
	if !first.After(now) {
		// primer múltiplo estrictamente posterior a now
		k := now.Sub(r.Start)/step + 1
		first = r.Start.Add(k * step)
	}

	out := make([]Occurrence, 0)
	for t := first; !t.After(end); t = t.Add(step) {
		out = append(out, Occurrence{At: t})
	}
	return out
}

func expandWeekly(r Weekly, now time.Time) []Occurrence {
	days := r.Weekdays()
	out := make([]Occurrence, 0, len(days))
	for _, d := range days {
		delta := (int(d) - int(now.Weekday()) + 7) % 7
		at := r.At.On(now.AddDate(0, 0, delta))
		if !at.After(now) {
			at = at.AddDate(0, 0, 7)
		}
		out = append(out, Occurrence{At: at, Every: Week})
	}
	return out
}

func expandMealRelative(r MealRelative, now time.Time) []Occurrence {
	labels := r.Labels()
	out := make([]Occurrence, 0, len(labels))
	for _, label := range labels {
		at := r.Times[label].On(now)
		if !at.After(now) {
			at = r.Times[label].On(now.AddDate(0, 0, 1))
		}
		out = append(out, Occurrence{At: at, Label: label, Every: Day})
	}
	return out
}
