package app

import (
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-pharma/meridian-erp/internal/finance"
	"github.com/meridian-pharma/meridian-erp/internal/importcost"
	"github.com/meridian-pharma/meridian-erp/internal/inventory"
	"github.com/meridian-pharma/meridian-erp/internal/ledger"
	"github.com/meridian-pharma/meridian-erp/internal/observability"
	"github.com/meridian-pharma/meridian-erp/internal/procurement"
	"github.com/meridian-pharma/meridian-erp/internal/sales"
	"github.com/meridian-pharma/meridian-erp/jobs"
	"github.com/meridian-pharma/meridian-erp/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	FinanceHandler     *finance.Handler
	SalesHandler       *sales.Handler
	ProcurementHandler *procurement.Handler
	InventoryHandler   *inventory.Handler
	ImportCostHandler  *importcost.Handler
	LedgerHandler      *ledger.Handler
	ReportHandler      *report.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with the default API surface.
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
		r.Route("/finance", params.FinanceHandler.MountRoutes)
		r.Route("/sales", params.SalesHandler.MountRoutes)
		r.Route("/procurement", params.ProcurementHandler.MountRoutes)
		r.Route("/inventory", params.InventoryHandler.MountRoutes)
		r.Route("/import-costs", params.ImportCostHandler.MountRoutes)
		r.Route("/ledger", params.LedgerHandler.MountRoutes)
	})

	if params.ReportHandler != nil {
		r.Route("/report", params.ReportHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
