package timerules

import (
	"errors"
	"testing"
	"time"
)

// miércoles 6 de marzo de 2024, 10:00 UTC
var refNow = time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)

func mustExpand(t *testing.T, r Rule, now time.Time) []Occurrence {
	t.Helper()
	out, err := Expand(r, now)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	return out
}

func TestExpand_Once(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		at   time.Time
		want int
	}{
		{"future", refNow.Add(time.Hour), 1},
		{"past", refNow.Add(-time.Hour), 0},
		{"equal now", refNow, 0},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			out := mustExpand(t, Once{At: tc.at}, refNow)
			if len(out) != tc.want {
				t.Fatalf("expected %d occurrences, got %d", tc.want, len(out))
			}
			if tc.want == 1 && (!out[0].At.Equal(tc.at) || out[0].Every != 0) {
				t.Fatalf("unexpected occurrence %+v", out[0])
			}
		})
	}
}

func TestExpand_FixedInterval_PastStartAlignsAfterNow(t *testing.T) {
	start := refNow.Add(-time.Hour)
	out := mustExpand(t, FixedInterval{Start: start, Hours: 8}, refNow)

	if len(out) == 0 {
		t.Fatalf("expected occurrences")
	}
	if want := refNow.Add(7 * time.Hour); !out[0].At.Equal(want) {
		t.Fatalf("expected first at %s, got %s", want, out[0].At)
	}
	// 720h / 8h = 90 pasos desde start, todos después de now
	if len(out) != 90 {
		t.Fatalf("expected 90 occurrences, got %d", len(out))
	}
	if last := out[len(out)-1].At; !last.Equal(start.Add(Horizon)) {
		t.Fatalf("expected last at horizon %s, got %s", start.Add(Horizon), last)
	}
}

func TestExpand_FixedInterval_FutureStart(t *testing.T) {
	start := refNow.Add(2 * time.Hour)
	out := mustExpand(t, FixedInterval{Start: start, Hours: 24}, refNow)

	if !out[0].At.Equal(start) {
		t.Fatalf("expected first at start, got %s", out[0].At)
	}
	if len(out) != 31 {
		t.Fatalf("expected 31 occurrences, got %d", len(out))
	}
}

func TestExpand_FixedInterval_HorizonExceeded(t *testing.T) {
	start := refNow.Add(-31 * 24 * time.Hour)
	out := mustExpand(t, FixedInterval{Start: start, Hours: 6}, refNow)
	if len(out) != 0 {
		t.Fatalf("expected no occurrences, got %d", len(out))
	}
}

func TestExpand_FixedInterval_Properties(t *testing.T) {
	t.Parallel()

	hours := []float64{0.5, 1, 6, 8, 12, 36}
	offsets := []time.Duration{-50 * time.Hour, -8 * time.Hour, -90 * time.Minute, 0, 3 * time.Hour}

	for _, h := range hours {
		for _, off := range offsets {
			r := FixedInterval{Start: refNow.Add(off), Hours: h}
			out := mustExpand(t, r, refNow)
			end := r.Start.Add(Horizon)
			for i, o := range out {
				if !o.At.After(refNow) {
					t.Fatalf("h=%v off=%v: occurrence %d at %s not after now", h, off, i, o.At)
				}
				if o.At.After(end) {
					t.Fatalf("h=%v off=%v: occurrence %d at %s past horizon", h, off, i, o.At)
				}
				if i > 0 && o.At.Sub(out[i-1].At) != r.Interval() {
					t.Fatalf("h=%v off=%v: gap %s != %s", h, off, o.At.Sub(out[i-1].At), r.Interval())
				}
			}
			if len(out) > 0 && off <= 0 && out[0].At.Sub(refNow) > r.Interval() {
				t.Fatalf("h=%v off=%v: first occurrence too far from now", h, off)
			}
		}
	}
}

func TestExpand_FixedInterval_RejectsNonPositive(t *testing.T) {
	for _, h := range []float64{0, -2} {
		_, err := Expand(FixedInterval{Start: refNow, Hours: h}, refNow)
		if !errors.Is(err, ErrInvalidRule) {
			t.Fatalf("hours=%v: expected ErrInvalidRule, got %v", h, err)
		}
	}
}

func TestExpand_Weekly(t *testing.T) {
	at := TimeOfDay{Hour: 9}
	out := mustExpand(t, Weekly{Days: []time.Weekday{time.Wednesday, time.Monday, time.Wednesday}, At: at}, refNow)

	if len(out) != 2 {
		t.Fatalf("expected one seed per weekday, got %d", len(out))
	}
	// lunes 11 y miércoles 13 (hoy ya pasó las 09:00)
	if want := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC); !out[0].At.Equal(want) {
		t.Fatalf("expected %s, got %s", want, out[0].At)
	}
	if want := time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC); !out[1].At.Equal(want) {
		t.Fatalf("expected %s, got %s", want, out[1].At)
	}
	for _, o := range out {
		if o.Every != Week {
			t.Fatalf("expected weekly period, got %s", o.Every)
		}
	}
}

func TestExpand_Weekly_PassedTimeRollsSevenDays(t *testing.T) {
	t.Parallel()

	at := TimeOfDay{Hour: 9, Minute: 30}
	for d := time.Sunday; d <= time.Saturday; d++ {
		rule := Weekly{Days: []time.Weekday{d}, At: at}

		day := refNow.AddDate(0, 0, (int(d)-int(refNow.Weekday())+7)%7)
		before := time.Date(day.Year(), day.Month(), day.Day(), 8, 0, 0, 0, time.UTC)
		after := time.Date(day.Year(), day.Month(), day.Day(), 11, 0, 0, 0, time.UTC)

		a := mustExpand(t, rule, before)
		b := mustExpand(t, rule, after)

		if a[0].At.Weekday() != d || a[0].At.Hour() != 9 || a[0].At.Minute() != 30 {
			t.Fatalf("day %s: bad seed %s", d, a[0].At)
		}
		if b[0].At.Sub(a[0].At) != 7*24*time.Hour {
			t.Fatalf("day %s: expected +7d, got %s -> %s", d, a[0].At, b[0].At)
		}
	}
}

func TestExpand_Weekly_EqualNowRolls(t *testing.T) {
	now := time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)
	out := mustExpand(t, Weekly{Days: []time.Weekday{time.Wednesday}, At: TimeOfDay{Hour: 9}}, now)
	if want := now.AddDate(0, 0, 7); !out[0].At.Equal(want) {
		t.Fatalf("expected %s, got %s", want, out[0].At)
	}
}

func TestExpand_Weekly_RejectsEmptyOrOutOfRange(t *testing.T) {
	rules := []Weekly{
		{Days: nil, At: TimeOfDay{Hour: 9}},
		{Days: []time.Weekday{7}, At: TimeOfDay{Hour: 9}},
		{Days: []time.Weekday{time.Monday}, At: TimeOfDay{Hour: 25}},
	}
	for i, r := range rules {
		if _, err := Expand(r, refNow); !errors.Is(err, ErrInvalidRule) {
			t.Fatalf("case %d: expected ErrInvalidRule, got %v", i, err)
		}
	}
}

func TestExpand_MealRelative(t *testing.T) {
	breakfast := TimeOfDay{Hour: 8}
	lunch := TimeOfDay{Hour: 13}
	out := mustExpand(t, MealRelative{Times: map[string]*TimeOfDay{
		"desayuno": &breakfast,
		"almuerzo": &lunch,
		"cena":     nil,
	}}, refNow)

	if len(out) != 2 {
		t.Fatalf("expected 2 seeds, got %d", len(out))
	}
	if out[0].Label != "almuerzo" || !out[0].At.Equal(time.Date(2024, 3, 6, 13, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected first seed %+v", out[0])
	}
	if out[1].Label != "desayuno" || !out[1].At.Equal(time.Date(2024, 3, 7, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected second seed %+v", out[1])
	}
	for _, o := range out {
		if o.Every != Day {
			t.Fatalf("expected daily period, got %s", o.Every)
		}
	}
}

func TestExpand_MealRelative_RejectsNoSelection(t *testing.T) {
	_, err := Expand(MealRelative{Times: map[string]*TimeOfDay{"cena": nil}}, refNow)
	var re *RuleError
	if !errors.As(err, &re) || re.Field != "meal_times" {
		t.Fatalf("expected meal_times RuleError, got %v", err)
	}
}

func TestExpand_NilRule(t *testing.T) {
	if _, err := Expand(nil, refNow); !errors.Is(err, ErrInvalidRule) {
		t.Fatalf("expected ErrInvalidRule, got %v", err)
	}
}

func TestElapsed(t *testing.T) {
	if !Elapsed(Once{At: refNow}, refNow) {
		t.Fatalf("once at now should be elapsed")
	}
	if Elapsed(Once{At: refNow.Add(time.Second)}, refNow) {
		t.Fatalf("future once should not be elapsed")
	}
	if Elapsed(FixedInterval{Start: refNow.Add(-100 * 24 * time.Hour), Hours: 1}, refNow) {
		t.Fatalf("fixed interval never finishes by itself")
	}
}
