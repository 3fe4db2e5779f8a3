package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-erp/meridian-erp/internal/ap"
	"github.com/meridian-erp/meridian-erp/internal/ar"
	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/inventory/adjustments"
	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/journal"
	"github.com/meridian-erp/meridian-erp/internal/ledger/statements"
	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/internal/parties"
	"github.com/meridian-erp/meridian-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	AccountsHandler    *accounts.Handler
	JournalHandler     *journal.Handler
	StatementsHandler  *statements.Handler
	PartiesHandler     *parties.Handler
	InventoryHandler   *inventory.Handler
	AdjustmentsHandler *adjustments.Handler
	ARHandler          *ar.Handler
	APHandler          *ap.Handler
	JobsHandler        *jobs.Handler
	Metrics            *observability.Metrics
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

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/accounts", func(r chi.Router) {
		params.AccountsHandler.MountRoutes(r)
	})
	r.Route("/journals", func(r chi.Router) {
		params.JournalHandler.MountRoutes(r)
	})
	r.Route("/statements", func(r chi.Router) {
		params.StatementsHandler.MountRoutes(r)
	})
	r.Route("/parties", func(r chi.Router) {
		params.PartiesHandler.MountRoutes(r)
	})
	r.Route("/inventory", func(r chi.Router) {
		params.InventoryHandler.MountRoutes(r)
	})
	r.Route("/adjustments", func(r chi.Router) {
		params.AdjustmentsHandler.MountRoutes(r)
	})
	r.Route("/ar", func(r chi.Router) {
		params.ARHandler.MountRoutes(r)
	})
	r.Route("/ap", func(r chi.Router) {
		params.APHandler.MountRoutes(r)
	})
	if params.JobsHandler != nil {
		r.Route("/jobs", func(r chi.Router) {
			params.JobsHandler.MountRoutes(r)
		})
	}

	return r
}
