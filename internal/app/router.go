package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/haiderali7066/Grocery-store-ERP/internal/catalog"
	"github.com/haiderali7066/Grocery-store-ERP/internal/inventory"
	"github.com/haiderali7066/Grocery-store-ERP/internal/observability"
	"github.com/haiderali7066/Grocery-store-ERP/internal/pos"
	"github.com/haiderali7066/Grocery-store-ERP/internal/refunds"
	"github.com/haiderali7066/Grocery-store-ERP/internal/reporting"
	"github.com/haiderali7066/Grocery-store-ERP/internal/wallet"
	"github.com/haiderali7066/Grocery-store-ERP/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	CatalogHandler   *catalog.Handler
	InventoryHandler *inventory.Handler
	POSHandler       *pos.Handler
	RefundsHandler   *refunds.Handler
	WalletHandler    *wallet.Handler
	ReportingHandler *reporting.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		if params.CatalogHandler != nil {
			params.CatalogHandler.MountRoutes(r)
		}
		r.Route("/admin", func(r chi.Router) {
			if params.InventoryHandler != nil {
				params.InventoryHandler.MountRoutes(r)
			}
			if params.POSHandler != nil {
				params.POSHandler.MountRoutes(r)
			}
			if params.RefundsHandler != nil {
				params.RefundsHandler.MountRoutes(r)
			}
			if params.WalletHandler != nil {
				params.WalletHandler.MountRoutes(r)
			}
			if params.ReportingHandler != nil {
				params.ReportingHandler.MountRoutes(r)
			}
		})
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
