package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"care-facility-meds/internal/app"
	"care-facility-meds/internal/platform/config"
	"care-facility-meds/internal/platform/logger"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// @title care-facility-meds API
// @version 1.0
// @description Horarios de medicación, recordatorios e inventario para residencias.
// @BasePath /
func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "care-facility-meds",
		Short: "Medication schedules, reminders and inventory for care facilities",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "optional .env config file")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(migrateCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg)
		},
	}
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the SQL schema for the configured storage driver",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := newLogger(cfg)
			if err := app.Migrate(cmd.Context(), cfg); err != nil {
				log.Error("migrate failed", map[string]any{"error": err.Error()})
				return err
			}
			log.Info("migrate done", map[string]any{"storage": cfg.StorageDriver})
			return nil
		},
	}
}

func runServer(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := newLogger(cfg)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("bootstrap failed", map[string]any{"error": err.Error()})
		return err
	}
	if err := a.Start(ctx); err != nil {
		// los horarios que fallaron quedan pausados; el servidor arranca igual
		log.Warn("start", map[string]any{"error": err.Error()})
	}

	// barrido periódico de horarios Once vencidos
	sweeper := cron.New(cron.WithLocation(cfg.Location()))
	if _, err := sweeper.AddFunc("@every "+cfg.SweepInterval.String(), func() { a.Sweep(ctx) }); err != nil {
		_ = a.Close(ctx)
		return err
	}
	sweeper.Start()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      a.Handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": cfg.Addr()})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Warn("sd_notify ready failed", map[string]any{"error": err.Error()})
	} else if ok {
		log.Debug("sd_notify ready sent", nil)
	}

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down", nil)
	case serveErr = <-errCh:
		log.Error("server error", map[string]any{"error": serveErr.Error()})
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", map[string]any{"error": err.Error()})
	}
	<-sweeper.Stop().Done()
	if err := a.Close(shutdownCtx); err != nil {
		log.Warn("close app", map[string]any{"error": err.Error()})
	}
	return serveErr
}

func newLogger(cfg config.Config) logger.Logger {
	return logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})
}
