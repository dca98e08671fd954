package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/salesboard/salesboard/internal/connection"
	"github.com/salesboard/salesboard/internal/dashboard"
	"github.com/salesboard/salesboard/internal/dataimport"
	"github.com/salesboard/salesboard/internal/explorer"
	"github.com/salesboard/salesboard/internal/observability"
	saleslochttp "github.com/salesboard/salesboard/internal/salesloc/http"
	"github.com/salesboard/salesboard/internal/shared"
	"github.com/salesboard/salesboard/internal/splitcv"
	"github.com/salesboard/salesboard/internal/view"
	"github.com/salesboard/salesboard/jobs"
	"github.com/salesboard/salesboard/report"
	"github.com/salesboard/salesboard/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Templates      *view.Engine
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	SalesLocHandler   *saleslochttp.Handler
	DashboardHandler  *dashboard.Handler
	ConnectionHandler *connection.Handler
	ImportHandler     *dataimport.Handler
	ExplorerHandler   *explorer.Handler
	SplitCVHandler    *splitcv.Handler
	ReportHandler     *report.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with salesboard defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	r.Group(func(r chi.Router) {
		for _, mw := range MiddlewareStack(MiddlewareConfig{
			Logger:         params.Logger,
			Config:         params.Config,
			SessionManager: params.SessionManager,
			CSRFManager:    params.CSRFManager,
			Metrics:        params.Metrics,
		}) {
			r.Use(mw)
		}

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			if err := params.Templates.Render(w, "pages/home.html", view.PageData(r, "", nil)); err != nil {
				params.Logger.Error("render home", slog.Any("error", err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		})
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			data := view.PageData(r, "Page not found", "Nothing lives at "+r.URL.Path+".")
			if err := params.Templates.RenderStatus(w, http.StatusNotFound, "pages/error.html", data); err != nil {
				http.NotFound(w, r)
			}
		})

		if params.SalesLocHandler != nil {
			params.SalesLocHandler.MountRoutes(r)
		}
		if params.DashboardHandler != nil {
			params.DashboardHandler.MountRoutes(r)
		}
		if params.ConnectionHandler != nil {
			params.ConnectionHandler.MountRoutes(r)
		}
		if params.ImportHandler != nil {
			params.ImportHandler.MountRoutes(r)
		}
		if params.ExplorerHandler != nil {
			params.ExplorerHandler.MountRoutes(r)
		}
		if params.SplitCVHandler != nil {
			params.SplitCVHandler.MountRoutes(r)
		}
		if params.ReportHandler != nil {
			params.ReportHandler.MountRoutes(r)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
// Static assets are cached for 1 hour in browser.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
