package reminders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"care-facility-meds/internal/domain/timerules"
)

// -------------------------
// Test facility (in-memory)
// -------------------------

type registered struct {
	n      Notification
	fireAt time.Time
	period time.Duration
}

type testFacility struct {
	seq       int
	active    map[string]registered
	failAfter int // <0 = nunca falla
	cancelErr error
}

func newTestFacility() *testFacility {
	return &testFacility{active: map[string]registered{}, failAfter: -1}
}

func (f *testFacility) register(r registered) (string, error) {
	if f.failAfter >= 0 && f.seq >= f.failAfter {
		return "", errors.New("facility down")
	}
	f.seq++
	id := fmt.Sprintf("r-%d", f.seq)
	f.active[id] = r
	return id, nil
}

func (f *testFacility) RegisterOneShot(ctx context.Context, n Notification, fireAt time.Time) (string, error) {
	return f.register(registered{n: n, fireAt: fireAt})
}

func (f *testFacility) RegisterRepeating(ctx context.Context, n Notification, first time.Time, period time.Duration) (string, error) {
	return f.register(registered{n: n, fireAt: first, period: period})
}

func (f *testFacility) Cancel(ctx context.Context, ids []string) error {
	for _, id := range ids {
		delete(f.active, id)
	}
	return f.cancelErr
}

var now = time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)

func newTestScheduler(f Facility) *Scheduler {
	return NewScheduler(f, nil).WithClock(func() time.Time { return now })
}

func tpl() Template {
	return Template{
		Title: "Tomar: Ibuprofeno",
		Body:  "Paciente: Ana",
		Data:  map[string]string{"schedule_id": "s-1", "dose": "5"},
	}
}

func TestSchedule_OneShotPairs(t *testing.T) {
	f := newTestFacility()
	s := newTestScheduler(f)

	occ := []timerules.Occurrence{
		{At: now.Add(time.Hour)},
		{At: now.Add(2 * time.Hour)},
	}
	ids, err := s.Schedule(context.Background(), tpl(), occ)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(ids) != 4 {
		t.Fatalf("expected 4 reminders, got %d", len(ids))
	}

	pre := f.active[ids[0]]
	if !pre.fireAt.Equal(now.Add(time.Hour - time.Minute)) {
		t.Fatalf("pre-alert should fire 60s before, got %s", pre.fireAt)
	}
	if !strings.HasPrefix(pre.n.Title, PreAlertPrefix) || pre.n.Data["kind"] != KindPreAlert {
		t.Fatalf("unexpected pre-alert %+v", pre.n)
	}
	main := f.active[ids[1]]
	if main.n.Title != "Tomar: Ibuprofeno" || main.n.Data["dose"] != "5" || main.n.Data["kind"] != KindMain {
		t.Fatalf("unexpected main %+v", main.n)
	}
}

func TestSchedule_SkipsPastPreAlert(t *testing.T) {
	f := newTestFacility()
	s := newTestScheduler(f)

	ids, err := s.Schedule(context.Background(), tpl(), []timerules.Occurrence{{At: now.Add(30 * time.Second)}})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("expected only the main alert, got %d", len(ids))
	}
	if f.active[ids[0]].n.Data["kind"] != KindMain {
		t.Fatalf("expected main alert")
	}
}

func TestSchedule_RepeatingSeeds(t *testing.T) {
	f := newTestFacility()
	s := newTestScheduler(f)

	seed := now.Add(3 * time.Hour)
	ids, err := s.Schedule(context.Background(), tpl(), []timerules.Occurrence{
		{At: seed, Label: "almuerzo", Every: timerules.Day},
	})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected pre+main+repeat, got %d", len(ids))
	}

	rep := f.active[ids[2]]
	if rep.period != timerules.Day || !rep.fireAt.Equal(seed.Add(timerules.Day)) {
		t.Fatalf("unexpected repeating reminder %+v", rep)
	}
	if rep.n.Title != "Tomar: Ibuprofeno (almuerzo)" || rep.n.Data["label"] != "almuerzo" {
		t.Fatalf("unexpected repeating notification %+v", rep.n)
	}
}

func TestSchedule_FailureCancelsPartialBatch(t *testing.T) {
	f := newTestFacility()
	f.failAfter = 3
	s := newTestScheduler(f)

	occ := []timerules.Occurrence{{At: now.Add(time.Hour)}, {At: now.Add(2 * time.Hour)}}
	ids, err := s.Schedule(context.Background(), tpl(), occ)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, ErrFacility) {
		t.Fatalf("expected ErrFacility, got %v", err)
	}
	var fe *FacilityError
	if !errors.As(err, &fe) || fe.Op != "register_main" {
		t.Fatalf("expected FacilityError on register_main, got %v", err)
	}
	if ids != nil {
		t.Fatalf("expected no ids on failure")
	}
	if len(f.active) != 0 {
		t.Fatalf("expected compensating cancel, %d reminders remain", len(f.active))
	}
}

func TestCancel_SwallowsErrors(t *testing.T) {
	f := newTestFacility()
	f.cancelErr = errors.New("boom")
	s := newTestScheduler(f)

	ids, _ := s.Schedule(context.Background(), tpl(), []timerules.Occurrence{{At: now.Add(time.Hour)}})
	s.Cancel(context.Background(), ids)

	if len(f.active) != 0 {
		t.Fatalf("expected reminders cancelled")
	}
}
