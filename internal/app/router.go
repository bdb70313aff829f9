package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bmarket-ims/bmarket/internal/actors"
	"github.com/bmarket-ims/bmarket/internal/catalog"
	"github.com/bmarket-ims/bmarket/internal/observability"
	"github.com/bmarket-ims/bmarket/internal/orders"
	"github.com/bmarket-ims/bmarket/internal/projections"
	"github.com/bmarket-ims/bmarket/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	ActorsHandler      *actors.Handler
	CatalogHandler     *catalog.Handler
	OrdersHandler      *orders.Handler
	ProjectionsHandler *projections.Handler
	JobHandler         *jobs.Handler
	Pool               *pgxpool.Pool
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

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if params.Pool != nil {
			if err := params.Pool.Ping(r.Context()); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		params.ActorsHandler.MountRoutes(r)
	})

	authenticate := actors.Authenticate(params.Config.JWTSecret)

	r.Route("/catalog", func(r chi.Router) {
		r.Use(authenticate)
		params.CatalogHandler.MountRoutes(r)
	})
	r.Route("/orders", func(r chi.Router) {
		r.Use(authenticate)
		params.OrdersHandler.MountRoutes(r)
	})
	r.Route("/views", func(r chi.Router) {
		r.Use(authenticate)
		params.ProjectionsHandler.MountRoutes(r)
	})
	if params.JobHandler != nil {
		r.Route("/jobs", func(r chi.Router) {
			r.Use(authenticate)
			params.JobHandler.MountRoutes(r)
		})
	}

	return r
}
