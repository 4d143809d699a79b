package timerules

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Spec es la forma plana (JSON/DB) de una regla: un tag y los campos de cada variante.
type Spec struct {
	Type          Kind              `json:"type"`
	At            *time.Time        `json:"at,omitempty"`
	Start         *time.Time        `json:"start,omitempty"`
	IntervalHours float64           `json:"interval_hours,omitempty"`
	Weekdays      []int             `json:"weekdays,omitempty"`
	Time          string            `json:"time,omitempty"`
	MealTimes     map[string]string `json:"meal_times,omitempty"` // "" = comida no seleccionada
}

// Rule convierte y valida.
func (s Spec) Rule() (Rule, error) {
	var r Rule
	switch Kind(strings.TrimSpace(string(s.Type))) {
	case KindOnce:
		if s.At == nil {
			return nil, &RuleError{Field: "at", Reason: "required"}
		}
		r = Once{At: *s.At}
	case KindFixedInterval:
		if s.Start == nil {
			return nil, &RuleError{Field: "start", Reason: "required"}
		}
		r = FixedInterval{Start: *s.Start, Hours: s.IntervalHours}
	case KindWeekly:
		at, err := ParseTimeOfDay(s.Time)
		if err != nil {
			return nil, &RuleError{Field: "time", Reason: err.Error()}
		}
		days := make([]time.Weekday, 0, len(s.Weekdays))
		for _, d := range s.Weekdays {
			days = append(days, time.Weekday(d))
		}
		r = Weekly{Days: days, At: at}
	case KindMealRelative:
		times := make(map[string]*TimeOfDay, len(s.MealTimes))
		for label, raw := range s.MealTimes {
			label = strings.TrimSpace(label)
			if strings.TrimSpace(raw) == "" {
				times[label] = nil
				continue
			}
			t, err := ParseTimeOfDay(raw)
			if err != nil {
				return nil, &RuleError{Field: "meal_times." + label, Reason: err.Error()}
			}
			times[label] = &t
		}
		r = MealRelative{Times: times}
	case "":
		return nil, &RuleError{Field: "type", Reason: "required"}
	default:
		return nil, &RuleError{Field: "type", Reason: "unknown rule type " + string(s.Type)}
	}

	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func SpecOf(r Rule) Spec {
	switch rule := r.(type) {
	case Once:
		at := rule.At
		return Spec{Type: KindOnce, At: &at}
	case FixedInterval:
		start := rule.Start
		return Spec{Type: KindFixedInterval, Start: &start, IntervalHours: rule.Hours}
	case Weekly:
		days := make([]int, 0, len(rule.Days))
		for _, d := range rule.Weekdays() {
			days = append(days, int(d))
		}
		sort.Ints(days)
		return Spec{Type: KindWeekly, Weekdays: days, Time: rule.At.String()}
	case MealRelative:
		times := make(map[string]string, len(rule.Times))
		for label, t := range rule.Times {
			if t == nil {
				times[label] = ""
				continue
			}
			times[label] = t.String()
		}
		return Spec{Type: KindMealRelative, MealTimes: times}
	default:
		return Spec{}
	}
}

// MarshalRule codifica la regla para persistirla.
func MarshalRule(r Rule) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil rule", ErrInvalidRule)
	}
	return json.Marshal(SpecOf(r))
}

func UnmarshalRule(b []byte) (Rule, error) {
	var s Spec
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode rule: %w", err)
	}
	return s.Rule()
}

// Summary es un texto corto de la regla, usado en búsquedas y logs.
func Summary(r Rule) string {
	switch rule := r.(type) {
	case Once:
		return "once " + rule.At.Format("2006-01-02 15:04")
	case FixedInterval:
		return "every " + rule.Interval().String() + " from " + rule.Start.Format("2006-01-02 15:04")
	case Weekly:
		names := make([]string, 0, len(rule.Days))
		for _, d := range rule.Weekdays() {
			names = append(names, d.String()[:3])
		}
		return "weekly " + strings.Join(names, ",") + " " + rule.At.String()
	case MealRelative:
		parts := make([]string, 0, len(rule.Times))
		for _, label := range rule.Labels() {
			parts = append(parts, label+" "+rule.Times[label].String())
		}
		return "meals " + strings.Join(parts, ", ")
	default:
		return ""
	}
}
