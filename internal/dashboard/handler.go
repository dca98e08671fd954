package dashboard

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/salesboard/salesboard/internal/charts"
	"github.com/salesboard/salesboard/internal/view"
)

// Sampler is the data contract used by the handler.
type Sampler interface {
	Sample(ctx context.Context, limit int) ([]SampleRow, error)
}

// Handler renders the sales dashboard.
type Handler struct {
	logger    *slog.Logger
	sampler   Sampler
	templates *view.Engine
	limit     int
}

// NewHandler constructs the dashboard handler.
func NewHandler(logger *slog.Logger, sampler Sampler, templates *view.Engine, limit int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if limit <= 0 {
		limit = 5000
	}
	return &Handler{logger: logger, sampler: sampler, templates: templates, limit: limit}
}

// MountRoutes registers dashboard endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/dashboard", h.handleDashboard)
}

// View is the page model.
type View struct {
	Limit    int
	Overview Overview
	DailySVG template.HTML
	TopSVG   template.HTML
	Error    string
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	vm := View{Limit: h.limit}
	rows, err := h.sampler.Sample(ctx, h.limit)
	if err != nil {
		h.logger.Error("sample fact table", slog.Any("error", err))
		vm.Error = "Could not read the fact table. Check the connection page."
	} else {
		vm.Overview = Summarize(rows)
		vm.DailySVG, vm.TopSVG = h.renderCharts(vm.Overview)
	}

	if err := h.templates.Render(w, "pages/dashboard.html", view.PageData(r, "Dashboard", vm)); err != nil {
		h.logger.Error("render dashboard", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) renderCharts(ov Overview) (template.HTML, template.HTML) {
	var daily, top template.HTML
	if len(ov.Daily) > 0 {
		labels := make([]string, len(ov.Daily))
		series := make([]float64, len(ov.Daily))
		for i, d := range ov.Daily {
			labels[i] = d.Day.Format("2006-01-02")
			series[i] = float64(d.Count)
		}
		svg, err := charts.Line(charts.DefaultWidth, charts.DefaultHeight, series, labels, charts.LineOpts{
			Title:       "Daily transactions",
			Description: "Sampled rows per created date",
			ShowDots:    len(series) <= 31,
			MaxLabels:   8,
		})
		if err != nil {
			h.logger.Warn("render daily chart", slog.Any("error", err))
		}
		daily = svg
	}
	if len(ov.TopProducts) > 0 {
		points := make([]charts.Point, len(ov.TopProducts))
		for i, p := range ov.TopProducts {
			points[i] = charts.Point{Label: p.Name, Value: float64(p.Count)}
		}
		labels, values := charts.Split(points)
		svg, err := charts.RankedBars(charts.DefaultWidth, values, labels, charts.BarOpts{
			Title:       "Top products",
			Description: "Products with the most sampled rows",
		})
		if err != nil {
			h.logger.Warn("render top products chart", slog.Any("error", err))
		}
		top = svg
	}
	return daily, top
}

// HandleDashboardForTest exposes the dashboard handler for tests.
func (h *Handler) HandleDashboardForTest(w http.ResponseWriter, r *http.Request) {
	h.handleDashboard(w, r)
}
