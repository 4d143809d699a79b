package local

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"care-facility-meds/internal/domain/reminders"
	"care-facility-meds/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"
)

const (
	DefaultRatePerSec = 5
	deliverTimeout    = 15 * time.Second
)

var ErrStopped = errors.New("local facility stopped")

type Options struct {
	Location   *time.Location
	RatePerSec int
	Logger     logger.Logger
}

// Facility programa recordatorios en proceso sobre robfig/cron y los
// entrega a un Sink. No sobrevive a reinicios.
type Facility struct {
	mu      sync.Mutex
	c       *cron.Cron
	entries map[string]cron.EntryID
	stopped bool

	sink    Sink
	limiter *rate.Limiter
	log     logger.Logger
	now     func() time.Time
}

func New(sink Sink, opts Options) *Facility {
	if sink == nil {
		sink = LogSink{Log: opts.Logger}
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	rps := opts.RatePerSec
	if rps <= 0 {
		rps = DefaultRatePerSec
	}

	log = log.With(map[string]any{"component": "local_facility"})
	return &Facility{
		c: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cronLogger{log: log})),
		),
		entries: make(map[string]cron.EntryID),
		sink:    sink,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		log:     log,
		now:     time.Now,
	}
}

func (f *Facility) Start() { f.c.Start() }

// Stop detiene el cron y espera a los envíos en curso (o a ctx).
func (f *Facility) Stop(ctx context.Context) error {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()

	done := f.c.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Facility) RegisterOneShot(ctx context.Context, n reminders.Notification, fireAt time.Time) (string, error) {
	if fireAt.IsZero() {
		return "", errors.New("fire time is required")
	}
	if !fireAt.After(f.now()) {
		// vencido: se entrega ya
		id := uuid.NewString()
		go f.deliver(id, n)
		return id, nil
	}
	return f.register(oneShot{at: fireAt}, n, true)
}

func (f *Facility) RegisterRepeating(ctx context.Context, n reminders.Notification, first time.Time, period time.Duration) (string, error) {
	if first.IsZero() {
		return "", errors.New("first fire time is required")
	}
	if period < time.Minute {
		return "", fmt.Errorf("period %s below one minute", period)
	}
	return f.register(repeat{first: first, period: period}, n, false)
}

// Cancel ignora IDs desconocidos o ya disparados.
func (f *Facility) Cancel(ctx context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, id := range ids {
		entry, ok := f.entries[id]
		if !ok {
			continue
		}
		f.c.Remove(entry)
		delete(f.entries, id)
	}
	return nil
}

// Pending devuelve cuántos recordatorios siguen registrados.
func (f *Facility) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// NextFire devuelve el próximo disparo de id.
func (f *Facility) NextFire(id string) (time.Time, bool) {
	f.mu.Lock()
	entry, ok := f.entries[id]
	f.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}

	e := f.c.Entry(entry)
	if !e.Valid() {
		return time.Time{}, false
	}
	if e.Next.IsZero() {
		// cron aún no lo agendó (no arrancado)
		return e.Schedule.Next(f.now()), true
	}
	return e.Next, true
}

func (f *Facility) register(s cron.Schedule, n reminders.Notification, once bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.stopped {
		return "", ErrStopped
	}

	id := uuid.NewString()
	entry := f.c.Schedule(s, cron.FuncJob(func() {
		if once {
			f.forget(id)
		}
		f.deliver(id, n)
	}))
	f.entries[id] = entry
	return id, nil
}

func (f *Facility) forget(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if entry, ok := f.entries[id]; ok {
		f.c.Remove(entry)
		delete(f.entries, id)
	}
}

func (f *Facility) deliver(id string, n reminders.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()

	if err := f.limiter.Wait(ctx); err != nil {
		f.log.Warn("reminder dropped by rate limit", map[string]any{"reminder_id": id, "error": err.Error()})
		return
	}
	if err := f.sink.Deliver(ctx, n); err != nil {
		f.log.Error("reminder delivery failed", map[string]any{
			"reminder_id": id,
			"schedule_id": n.Data["schedule_id"],
			"error":       err.Error(),
		})
		return
	}
	f.log.Debug("reminder delivered", map[string]any{"reminder_id": id, "kind": n.Data["kind"]})
}

// cronLogger adapta logger.Logger a cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, kv(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := kv(keysAndValues)
	fields["error"] = err.Error()
	l.log.Error("cron: "+msg, fields)
}

func kv(pairs []interface{}) map[string]any {
	out := make(map[string]any, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		k, ok := pairs[i].(string)
		if !ok {
			continue
		}
		out[k] = pairs[i+1]
	}
	return out
}
