package saleslochttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers sales-by-location endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/reports/sales-by-location", h.handlePage)
	r.Get("/api/reports/sales-by-location", h.handleAPI)
	r.Get("/api/reports/sales-by-location/options", h.handleOptions)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/reports/sales-by-location/export.csv", h.handleCSV)
		gr.Get("/reports/sales-by-location/export.pdf", h.handlePDF)
	})
}
