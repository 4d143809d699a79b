package local

import (
	"context"
	"testing"
	"time"

	"care-facility-meds/internal/domain/reminders"
)

func TestOneShotNext(t *testing.T) {
	at := time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)
	s := oneShot{at: at}

	if got := s.Next(at.Add(-time.Minute)); !got.Equal(at) {
		t.Fatalf("expected %s, got %s", at, got)
	}
	if got := s.Next(at); !got.IsZero() {
		t.Fatalf("expected zero after firing, got %s", got)
	}
}

func TestRepeatNext(t *testing.T) {
	first := time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)
	s := repeat{first: first, period: 8 * time.Hour}

	cases := []struct {
		at   time.Time
		want time.Time
	}{
		{first.Add(-time.Hour), first},
		{first, first.Add(8 * time.Hour)},
		{first.Add(time.Hour), first.Add(8 * time.Hour)},
		{first.Add(16 * time.Hour), first.Add(24 * time.Hour)},
	}
	for _, c := range cases {
		if got := s.Next(c.at); !got.Equal(c.want) {
			t.Fatalf("Next(%s) = %s, want %s", c.at, got, c.want)
		}
	}
}

func TestRegisterAndCancel(t *testing.T) {
	f := New(nil, Options{Location: time.UTC})
	ctx := context.Background()
	n := reminders.Notification{Title: "Tomar: Ibuprofeno"}

	fireAt := time.Now().Add(time.Hour)
	a, err := f.RegisterOneShot(ctx, n, fireAt)
	if err != nil {
		t.Fatalf("RegisterOneShot: %v", err)
	}
	b, err := f.RegisterRepeating(ctx, n, fireAt, 24*time.Hour)
	if err != nil {
		t.Fatalf("RegisterRepeating: %v", err)
	}
	if a == b {
		t.Fatalf("expected distinct ids")
	}
	if f.Pending() != 2 {
		t.Fatalf("expected 2 pending, got %d", f.Pending())
	}

	next, ok := f.NextFire(a)
	if !ok || !next.Equal(fireAt) {
		t.Fatalf("expected next fire %s, got %s (ok=%v)", fireAt, next, ok)
	}

	if err := f.Cancel(ctx, []string{a, "unknown"}); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if f.Pending() != 1 {
		t.Fatalf("expected 1 pending after cancel, got %d", f.Pending())
	}
	if _, ok := f.NextFire(a); ok {
		t.Fatalf("cancelled reminder still registered")
	}
}

func TestRegisterRepeating_RejectsShortPeriod(t *testing.T) {
	f := New(nil, Options{})
	if _, err := f.RegisterRepeating(context.Background(), reminders.Notification{}, time.Now().Add(time.Hour), time.Second); err == nil {
		t.Fatalf("expected error for sub-minute period")
	}
}

func TestOneShotFires(t *testing.T) {
	got := make(chan reminders.Notification, 1)
	f := New(SinkFunc(func(ctx context.Context, n reminders.Notification) error {
		got <- n
		return nil
	}), Options{Location: time.UTC})
	f.Start()
	t.Cleanup(func() { _ = f.Stop(context.Background()) })

	n := reminders.Notification{Title: "Tomar: Omeprazol", Data: map[string]string{"kind": reminders.KindMain}}
	if _, err := f.RegisterOneShot(context.Background(), n, time.Now().Add(100*time.Millisecond)); err != nil {
		t.Fatalf("RegisterOneShot: %v", err)
	}

	select {
	case fired := <-got:
		if fired.Title != n.Title {
			t.Fatalf("unexpected notification %+v", fired)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("reminder did not fire")
	}

	deadline := time.Now().Add(time.Second)
	for f.Pending() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("fired one-shot still pending")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStoppedFacilityRejects(t *testing.T) {
	f := New(nil, Options{})
	f.Start()
	if err := f.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if _, err := f.RegisterOneShot(context.Background(), reminders.Notification{}, time.Now().Add(time.Hour)); err == nil {
		t.Fatalf("expected error after stop")
	}
}
