package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"care-facility-meds/internal/domain/inventory"
	"care-facility-meds/internal/domain/schedules"
	"care-facility-meds/internal/domain/timerules"
	"care-facility-meds/internal/platform/config"

	"github.com/shopspring/decimal"
)

func TestNew_SQLiteWithSeed(t *testing.T) {
	dir := t.TempDir()
	seedPath := filepath.Join(dir, "directory.yaml")
	seed := "doctors:\n  - id: d-1\n    name: Pérez\npatients:\n  - id: p-1\n    full_name: Ana Gómez\nmedications:\n  - id: m-1\n    name: Ibuprofeno\n"
	if err := os.WriteFile(seedPath, []byte(seed), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "meds.db"))
	t.Setenv("DIRECTORY_SEED_FILE", seedPath)
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	a, err := New(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Close(ctx) })
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	meds, err := a.Directory.Medications(ctx)
	if err != nil || len(meds) != 1 {
		t.Fatalf("expected seeded medication, got %v err=%v", meds, err)
	}

	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/doctors", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 /doctors, got %d", rec.Code)
	}

	a.Sweep(ctx)
}

func TestNew_RejectsBadThreshold(t *testing.T) {
	t.Setenv("LOW_STOCK_THRESHOLD", "many")
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for bad threshold")
	}
}

func TestMigrate_MemoryHasNoSchema(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if err := Migrate(context.Background(), cfg); err == nil {
		t.Fatalf("expected error for memory driver")
	}
}

func TestRestart_RestoresPendingReminders(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "meds.db"))
	t.Setenv("NOTIFY_DRIVER", "local")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	ctx := context.Background()

	first, err := New(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := first.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := first.Inventory.AddStock(ctx, inventory.AddStockInput{Name: "Ibuprofeno", Quantity: decimal.NewFromInt(10)}); err != nil {
		t.Fatalf("AddStock: %v", err)
	}
	created, err := first.Schedules.Create(ctx, schedules.CreateInput{
		DoctorID: "d-1", DoctorName: "Pérez",
		PatientID: "p-1", PatientName: "Ana Gómez",
		MedicationID: "m-1", MedicationName: "Ibuprofeno",
		Dose: decimal.NewFromInt(1),
		Rule: timerules.Weekly{
			Days: []time.Weekday{time.Monday, time.Wednesday},
			At:   timerules.TimeOfDay{Hour: 9},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.PendingReminders() != len(created.ReminderIDs) {
		t.Fatalf("expected %d pending, got %d", len(created.ReminderIDs), first.PendingReminders())
	}
	if err := first.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := New(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("New after restart: %v", err)
	}
	t.Cleanup(func() { _ = second.Close(ctx) })
	if err := second.Start(ctx); err != nil {
		t.Fatalf("Start after restart: %v", err)
	}

	got, err := second.Schedules.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.State != schedules.StateScheduled || len(got.ReminderIDs) != len(created.ReminderIDs) {
		t.Fatalf("expected %d reminders after restart, got %s %v", len(created.ReminderIDs), got.State, got.ReminderIDs)
	}
	if second.PendingReminders() != len(got.ReminderIDs) {
		t.Fatalf("expected %d pending after restart, got %d", len(got.ReminderIDs), second.PendingReminders())
	}
	if got.ReminderIDs[0] == created.ReminderIDs[0] {
		t.Fatalf("expected fresh reminder ids after restart")
	}

	rec, err := second.Inventory.Get(ctx, "ibuprofeno")
	if err != nil || !rec.Stock.Equal(decimal.NewFromInt(9)) {
		t.Fatalf("restart must not touch stock, got %+v err=%v", rec, err)
	}
}
