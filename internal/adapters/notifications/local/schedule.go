package local

import "time"

// oneShot dispara una vez en at; después Next devuelve cero y cron no lo vuelve a correr.
type oneShot struct {
	at time.Time
}

func (s oneShot) Next(t time.Time) time.Time {
	if t.Before(s.at) {
		return s.at
	}
	return time.Time{}
}

// repeat dispara en first, first+period, first+2*period...
type repeat struct {
	first  time.Time
	period time.Duration
}

func (s repeat) Next(t time.Time) time.Time {
	if t.Before(s.first) {
		return s.first
	}
	n := t.Sub(s.first)/s.period + 1
	return s.first.Add(n * s.period)
}
