package app

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tantu-erp/tantu/internal/billing"
	"github.com/tantu-erp/tantu/internal/catalog/mills"
	"github.com/tantu-erp/tantu/internal/catalog/products"
	"github.com/tantu-erp/tantu/internal/customers"
	"github.com/tantu-erp/tantu/internal/deliveries"
	"github.com/tantu-erp/tantu/internal/observability"
	"github.com/tantu-erp/tantu/internal/orders"
	"github.com/tantu-erp/tantu/internal/platform/httpx"
	"github.com/tantu-erp/tantu/jobs"
	"github.com/tantu-erp/tantu/report"
)

// RouterParams groups dependencies for building the HTTP router. Nil
// handlers are skipped.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	CustomersHandler  *customers.Handler
	MillsHandler      *mills.Handler
	ProductsHandler   *products.Handler
	OrdersHandler     *orders.Handler
	DeliveriesHandler *deliveries.Handler
	BillingHandler    *billing.Handler
	ReportHandler     *report.Handler
	JobHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router with the API under /api.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
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
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	var origins []string
	if params.Config != nil {
		origins = params.Config.CORSAllowedOrigins
	}
	r.Route("/api", func(api chi.Router) {
		api.Use(CORS(origins))
		if params.CustomersHandler != nil {
			params.CustomersHandler.MountRoutes(api)
		}
		if params.MillsHandler != nil {
			params.MillsHandler.MountRoutes(api)
		}
		if params.ProductsHandler != nil {
			params.ProductsHandler.MountRoutes(api)
		}
		if params.OrdersHandler != nil {
			params.OrdersHandler.MountRoutes(api)
		}
		if params.DeliveriesHandler != nil {
			params.DeliveriesHandler.MountRoutes(api)
		}
		if params.BillingHandler != nil {
			params.BillingHandler.MountRoutes(api)
		}
		if params.ReportHandler != nil {
			api.Route("/report", params.ReportHandler.MountRoutes)
		}
		api.NotFound(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no route for "+r.URL.Path)
		})
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	if params.Config != nil && params.Config.StaticDir != "" {
		r.Handle("/*", staticCacheHandler(spaHandler(params.Config.StaticDir)))
	}

	return r
}

// spaHandler serves files from dir and falls back to index.html so that
// client-side routes resolve.
func spaHandler(dir string) http.Handler {
	fileServer := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clean := filepath.Clean("/" + strings.TrimPrefix(r.URL.Path, "/"))
		if info, err := os.Stat(filepath.Join(dir, clean)); err != nil || info.IsDir() {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

// staticCacheHandler caches static assets in the browser for one hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
