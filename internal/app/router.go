package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/nordwind-erp/nordwind-erp/internal/documents"
	"github.com/nordwind-erp/nordwind-erp/internal/masterdata/items"
	"github.com/nordwind-erp/nordwind-erp/internal/masterdata/warehouses"
	"github.com/nordwind-erp/nordwind-erp/internal/stock"
	"github.com/nordwind-erp/nordwind-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	StockHandler      *stock.Handler
	DocumentsHandler  *documents.Handler
	ItemsHandler      *items.Handler
	WarehousesHandler *warehouses.Handler
	JobsHandler       *jobs.Handler
}

// NewRouter constructs the chi.Router with Nordwind defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		params.StockHandler.MountRoutes(r)
		params.DocumentsHandler.MountRoutes(r)
		params.ItemsHandler.MountRoutes(r)
		params.WarehousesHandler.MountRoutes(r)
	})

	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	return r
}
