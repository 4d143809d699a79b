package router

import (
	"net/http"

	_ "care-facility-meds/internal/docs"
	"care-facility-meds/internal/domain/directory"
	"care-facility-meds/internal/domain/inventory"
	"care-facility-meds/internal/domain/schedules"
	"care-facility-meds/internal/middleware"
	"care-facility-meds/internal/platform/logger"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Options: cada servicio es opcional; si falta, sus rutas no se montan.
type Options struct {
	Schedules *schedules.Service
	Inventory *inventory.Service
	Directory *directory.Service

	Logger logger.Logger
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Rutas por módulo
	if opts.Schedules != nil {
		schedules.RegisterRoutes(r, opts.Schedules)
	}
	if opts.Inventory != nil {
		inventory.RegisterRoutes(r, opts.Inventory)
	}
	if opts.Directory != nil {
		directory.RegisterRoutes(r, opts.Directory)
	}

	return r
}
