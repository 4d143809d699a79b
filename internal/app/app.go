package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"care-facility-meds/internal/adapters/notifications/local"
	"care-facility-meds/internal/adapters/notifications/pushgateway"
	"care-facility-meds/internal/adapters/notifications/telegram"
	mem "care-facility-meds/internal/adapters/storage/memory"
	pg "care-facility-meds/internal/adapters/storage/postgres"
	sq "care-facility-meds/internal/adapters/storage/sqlite"
	"care-facility-meds/internal/domain/directory"
	"care-facility-meds/internal/domain/inventory"
	"care-facility-meds/internal/domain/reminders"
	"care-facility-meds/internal/domain/schedules"
	"care-facility-meds/internal/platform/config"
	"care-facility-meds/internal/platform/logger"
	"care-facility-meds/internal/router"

	"github.com/shopspring/decimal"
)

// App agrupa los servicios ya cableados según la config.
type App struct {
	Config config.Config
	Log    logger.Logger

	Schedules *schedules.Service
	Inventory *inventory.Service
	Directory *directory.Service

	Handler http.Handler

	local   *local.Facility // nil con pushgateway
	closers []func() error
}

type stores struct {
	schedules schedules.Repository
	inventory inventory.Repository
	directory directory.Repository
	// importa el seed en stores SQL
	importSeed func(context.Context, directory.Seed) error
}

func New(ctx context.Context, cfg config.Config, log logger.Logger) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}
	a := &App{Config: cfg, Log: log}

	loc := cfg.Location()
	now := func() time.Time { return time.Now().In(loc) }

	threshold, err := decimal.NewFromString(strings.TrimSpace(cfg.LowStockThreshold))
	if err != nil || threshold.IsNegative() {
		return nil, fmt.Errorf("invalid LOW_STOCK_THRESHOLD %q", cfg.LowStockThreshold)
	}

	var seed directory.Seed
	hasSeed := strings.TrimSpace(cfg.DirectorySeedFile) != ""
	if hasSeed {
		seed, err = directory.LoadSeed(cfg.DirectorySeedFile)
		if err != nil {
			return nil, err
		}
	}

	st, err := a.openStores(ctx, cfg, seed)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	if hasSeed && st.importSeed != nil {
		if err := st.importSeed(ctx, seed); err != nil {
			_ = a.Close(ctx)
			return nil, fmt.Errorf("import directory seed: %w", err)
		}
	}

	facility, err := a.openFacility(cfg, loc)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	a.Inventory = inventory.NewService(st.inventory).
		WithLowStockThreshold(threshold).
		WithClock(now)
	a.Directory = directory.NewService(st.directory)

	scheduler := reminders.NewScheduler(facility, log).WithClock(now)
	a.Schedules = schedules.NewService(st.schedules, scheduler, a.Inventory, log).WithClock(now)
	if hasSeed {
		a.Schedules.WithDirectory(a.Directory)
	}

	a.Handler = router.NewRouter(router.Options{
		Schedules: a.Schedules,
		Inventory: a.Inventory,
		Directory: a.Directory,
		Logger:    log,
	})

	log.Info("app wired", map[string]any{
		"storage":   cfg.StorageDriver,
		"notify":    cfg.NotifyDriver,
		"timezone":  loc.String(),
		"directory": hasSeed,
	})
	return a, nil
}

func (a *App) openStores(ctx context.Context, cfg config.Config, seed directory.Seed) (stores, error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		db, err := openPostgres(ctx, cfg)
		if err != nil {
			return stores{}, fmt.Errorf("open postgres: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := pg.Migrate(ctx, db); err != nil {
			return stores{}, err
		}
		dir := pg.NewDirectoryRepo(db)
		return stores{
			schedules:  pg.NewSchedulesRepo(db),
			inventory:  pg.NewInventoryRepo(db),
			directory:  dir,
			importSeed: dir.Import,
		}, nil

	case config.StorageSQLite:
		db, err := sq.Open(cfg.SQLitePath)
		if err != nil {
			return stores{}, fmt.Errorf("open sqlite: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := sq.Migrate(ctx, db); err != nil {
			return stores{}, err
		}
		dir := sq.NewDirectoryRepo(db)
		return stores{
			schedules:  sq.NewSchedulesRepo(db),
			inventory:  sq.NewInventoryRepo(db),
			directory:  dir,
			importSeed: dir.Import,
		}, nil

	default:
		return stores{
			schedules: mem.NewScheduleRepo(),
			inventory: mem.NewInventoryRepo(),
			directory: mem.NewDirectoryRepo(seed),
		}, nil
	}
}

func (a *App) openFacility(cfg config.Config, loc *time.Location) (reminders.Facility, error) {
	opts := local.Options{Location: loc, RatePerSec: cfg.NotifyRatePerSec, Logger: a.Log}

	switch cfg.NotifyDriver {
	case config.NotifyPushGateway:
		return pushgateway.New(pushgateway.Config{
			BaseURL: cfg.PushGatewayURL,
			APIKey:  cfg.PushGatewayKey,
			Timeout: cfg.PushTimeout,
		})

	case config.NotifyTelegram:
		sink, err := telegram.New(telegram.Config{Token: cfg.TelegramToken, ChatID: cfg.TelegramChatID})
		if err != nil {
			return nil, fmt.Errorf("telegram sink: %w", err)
		}
		a.local = local.New(sink, opts)
		return a.local, nil

	default:
		a.local = local.New(local.LogSink{Log: a.Log}, opts)
		return a.local, nil
	}
}

// Start arranca el facility local (si aplica). Ese facility vive en memoria, así
// que los horarios activos guardados se vuelven a registrar en él.
func (a *App) Start(ctx context.Context) error {
	if a.local == nil {
		return nil
	}
	a.local.Start()

	n, err := a.Schedules.Resync(ctx)
	if err != nil {
		return fmt.Errorf("resync reminders: %w", err)
	}
	a.Log.Info("reminders restored", map[string]any{"schedules": n, "pending": a.local.Pending()})
	return nil
}

// PendingReminders es la cantidad de recordatorios vivos en el facility local.
func (a *App) PendingReminders() int {
	if a.local == nil {
		return 0
	}
	return a.local.Pending()
}

// Sweep finaliza los horarios Once vencidos.
func (a *App) Sweep(ctx context.Context) {
	n, err := a.Schedules.Sweep(ctx)
	if err != nil {
		a.Log.Warn("sweep failed", map[string]any{"error": err.Error()})
		return
	}
	if n > 0 {
		a.Log.Debug("sweep done", map[string]any{"finished": n})
	}
}

func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.local != nil {
		if err := a.local.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Migrate aplica el esquema del driver SQL configurado.
func Migrate(ctx context.Context, cfg config.Config) error {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		db, err := openPostgres(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		return pg.Migrate(ctx, db)
	case config.StorageSQLite:
		db, err := sq.Open(cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer db.Close()
		return sq.Migrate(ctx, db)
	default:
		return fmt.Errorf("storage driver %q has no schema", cfg.StorageDriver)
	}
}

func openPostgres(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	timeout := cfg.DBConnectTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return pg.Open(ctx, cfg.DBDSN, pg.Options{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
}
