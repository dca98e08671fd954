package saleslochttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/salesboard/salesboard/internal/charts"
	"github.com/salesboard/salesboard/internal/platform/httpx"
	"github.com/salesboard/salesboard/internal/salesloc"
	"github.com/salesboard/salesboard/internal/view"
)

const (
	requestTimeout = 30 * time.Second
	chartLocations = 15
)

// ReportService is the report contract used by the handler.
type ReportService interface {
	Options(ctx context.Context) (salesloc.Options, error)
	Run(ctx context.Context, req salesloc.Request) (salesloc.Result, error)
}

// PDFRenderer converts an HTML document to PDF bytes.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Handler serves the sales-by-location page, exports and JSON API.
type Handler struct {
	logger    *slog.Logger
	service   ReportService
	templates *view.Engine
	pdf       PDFRenderer
	csvPool   sync.Pool
	now       func() time.Time
}

// NewHandler constructs the handler. pdf may be nil, which disables the PDF export.
func NewHandler(logger *slog.Logger, service ReportService, templates *view.Engine, pdf PDFRenderer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		pdf:       pdf,
		now:       time.Now,
	}
	h.csvPool.New = func() any { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

type pageView struct {
	Form        salesloc.FormInput
	DateFields  []salesloc.DateField
	Options     salesloc.Options
	Error       string
	Result      *salesloc.Result
	ChartSVG    template.HTML
	ExportQuery url.Values
}

type pdfView struct {
	salesloc.Result
	Generated time.Time
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	logger := h.requestLogger(r)
	vm := pageView{DateFields: salesloc.DateFields()}

	opts, err := h.service.Options(ctx)
	if err != nil {
		logger.Warn("load filter options", slog.Any("error", err))
		vm.Error = "Could not load product and location lists."
		opts = salesloc.Options{}
	}
	vm.Options = opts

	query := r.URL.Query()
	if !submitted(query) {
		vm.Form = h.defaultForm()
		h.render(w, r, vm)
		return
	}

	vm.Form = salesloc.FormFromValues(query)
	criteria, err := salesloc.Collect(vm.Form)
	if err != nil {
		vm.Error = filterMessage(err)
		h.renderStatus(w, r, http.StatusBadRequest, vm)
		return
	}

	result, err := h.service.Run(ctx, salesloc.Request{Criteria: criteria, Options: opts, Logger: logger})
	if err != nil {
		vm.Error = queryMessage(err)
		h.render(w, r, vm)
		return
	}

	vm.Result = &result
	vm.ExportQuery = vm.Form.Values()
	if !result.Empty() {
		svg, err := locationChart(result.Rows)
		if err != nil {
			logger.Warn("render location chart", slog.Any("error", err))
		}
		vm.ChartSVG = svg
	}
	h.render(w, r, vm)
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	result, ok := h.runExport(w, r)
	if !ok {
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := salesloc.WriteCSV(buf, result.Rows); err != nil {
		h.handleServerError(w, "write csv", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", salesloc.CSVFilename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		h.handleServerError(w, "pdf exporter", errors.New("pdf exporter not configured"))
		return
	}
	result, ok := h.runExport(w, r)
	if !ok {
		return
	}

	var html bytes.Buffer
	if err := h.templates.RenderTo(&html, "reports/sales_by_location.html", pdfView{Result: result, Generated: h.now()}); err != nil {
		h.handleServerError(w, "render pdf html", err)
		return
	}
	pdf, err := h.pdf.RenderHTML(r.Context(), html.String())
	if err != nil {
		h.logError("render pdf", err)
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}

	filename := fmt.Sprintf("sales_by_location_%s.pdf", h.now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(pdf); err != nil {
		h.logError("stream pdf", err)
	}
}

type apiResponse struct {
	Rows    []salesloc.AggregatedRow `json:"rows"`
	Summary salesloc.SummaryStats    `json:"summary"`
}

func (h *Handler) handleAPI(w http.ResponseWriter, r *http.Request) {
	criteria, err := salesloc.Collect(salesloc.FormFromValues(r.URL.Query()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := h.service.Run(ctx, salesloc.Request{Criteria: criteria, Logger: h.requestLogger(r)})
	if err != nil {
		var qe *salesloc.QueryError
		if errors.As(err, &qe) {
			httpx.Problem(w, http.StatusInternalServerError, "Query failed", qe.UserMessage())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, apiResponse{Rows: result.Rows, Summary: result.Summary})
}

func (h *Handler) handleOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.service.Options(r.Context())
	if err != nil {
		h.logError("load filter options", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, opts)
}

// runExport validates and runs the report; on failure it has already written the response.
func (h *Handler) runExport(w http.ResponseWriter, r *http.Request) (salesloc.Result, bool) {
	criteria, err := salesloc.Collect(salesloc.FormFromValues(r.URL.Query()))
	if err != nil {
		http.Error(w, filterMessage(err), http.StatusBadRequest)
		return salesloc.Result{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := h.service.Run(ctx, salesloc.Request{Criteria: criteria, Logger: h.requestLogger(r)})
	if err != nil {
		h.handleServerError(w, "run export", err)
		return salesloc.Result{}, false
	}
	return result, true
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, vm pageView) {
	h.renderStatus(w, r, http.StatusOK, vm)
}

func (h *Handler) renderStatus(w http.ResponseWriter, r *http.Request, status int, vm pageView) {
	data := view.PageData(r, "Sales by location", vm)
	if err := h.templates.RenderStatus(w, status, "pages/sales_by_location.html", data); err != nil {
		h.handleServerError(w, "render template", err)
	}
}

func (h *Handler) defaultForm() salesloc.FormInput {
	today := h.now()
	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	return salesloc.FormInput{
		DateField: string(salesloc.DateFieldCreated),
		StartDate: first.Format("2006-01-02"),
		EndDate:   today.Format("2006-01-02"),
	}
}

func (h *Handler) requestLogger(r *http.Request) *slog.Logger {
	return h.logger.With(slog.String("path", r.URL.Path))
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}

func submitted(q url.Values) bool {
	return q.Has("run") || q.Has(salesloc.FieldStartDate) || q.Has(salesloc.FieldEndDate)
}

func filterMessage(err error) string {
	var fe *salesloc.FilterError
	if errors.As(err, &fe) {
		switch fe.Field {
		case salesloc.FieldStartDate, salesloc.FieldEndDate:
			if fe.Reason == "required" {
				return "Please choose both a start and an end date."
			}
			if fe.Field == salesloc.FieldEndDate && fe.Reason == "end date is before start date" {
				return "The end date must not be before the start date."
			}
			return "Dates must use the YYYY-MM-DD format."
		case salesloc.FieldDateField:
			return "Please choose a valid date type."
		case salesloc.FieldProducts:
			return "One of the selected products is not valid."
		}
	}
	return "The filter is not valid."
}

func queryMessage(err error) string {
	var qe *salesloc.QueryError
	if errors.As(err, &qe) {
		return qe.UserMessage()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "The report took too long to run."
	}
	return "The report could not be produced."
}

func locationChart(rows []salesloc.AggregatedRow) (template.HTML, error) {
	totals := salesloc.TotalsByLocation(rows)
	if len(totals) > chartLocations {
		totals = totals[:chartLocations]
	}
	points := make([]charts.Point, len(totals))
	for i, t := range totals {
		label := t.LocationCode
		if label == "" {
			label = "(none)"
		}
		points[i] = charts.Point{Label: label, Value: t.Quantity.InexactFloat64()}
	}
	labels, values := charts.Split(points)
	return charts.RankedBars(charts.DefaultWidth, values, labels, charts.BarOpts{
		Title:       "Quantity by location",
		Description: "Total contributed quantity per location for the selected filters",
		LabelWidth:  120,
	})
}

// HandlePageForTest exposes the page handler for tests.
func (h *Handler) HandlePageForTest(w http.ResponseWriter, r *http.Request) { h.handlePage(w, r) }

// HandleCSVForTest exposes the CSV handler for tests.
func (h *Handler) HandleCSVForTest(w http.ResponseWriter, r *http.Request) { h.handleCSV(w, r) }

// HandlePDFForTest exposes the PDF handler for tests.
func (h *Handler) HandlePDFForTest(w http.ResponseWriter, r *http.Request) { h.handlePDF(w, r) }
