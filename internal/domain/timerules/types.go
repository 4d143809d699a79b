package timerules

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Kind string

const (
	KindOnce          Kind = "once"
	KindFixedInterval Kind = "fixed_interval"
	KindWeekly        Kind = "weekly"
	KindMealRelative  Kind = "meal_relative"
)

// Horizon limita la expansión de FixedInterval, medido desde Start.
const Horizon = 30 * 24 * time.Hour

// MinInterval es el intervalo mínimo aceptado para FixedInterval.
const MinInterval = time.Minute

const (
	Week = 7 * 24 * time.Hour
	Day  = 24 * time.Hour
)

// TimeOfDay es una hora local "HH:MM" sin fecha.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return TimeOfDay{}, fmt.Errorf("invalid time %q (want HH:MM)", s)
	}
	h, err := strconv.Atoi(strings.TrimSpace(hh))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid hour %q", hh)
	}
	m, err := strconv.Atoi(strings.TrimSpace(mm))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid minute %q", mm)
	}
	t := TimeOfDay{Hour: h, Minute: m}
	if !t.Valid() {
		return TimeOfDay{}, fmt.Errorf("time out of range %q", s)
	}
	return t, nil
}

func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On devuelve el instante de t en el día calendario de day (misma zona).
func (t TimeOfDay) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, day.Location())
}

// Occurrence es un instante calculado. Every > 0 indica una semilla que
// se repite con ese periodo (Weekly, MealRelative).
type Occurrence struct {
	At    time.Time
	Label string
	Every time.Duration
}
