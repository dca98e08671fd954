package explorer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/salesboard/salesboard/internal/platform/httpx"
	"github.com/salesboard/salesboard/internal/view"
)

const queryTimeout = 60 * time.Second

// Backend is the data contract used by the handler.
type Backend interface {
	ListTables(ctx context.Context) ([]string, error)
	Preview(ctx context.Context, table string, limit int) (*ResultSet, error)
	Run(ctx context.Context, query string) (*ResultSet, error)
	MaxRows() int
}

// Handler serves the table browser and the SQL console.
type Handler struct {
	logger    *slog.Logger
	backend   Backend
	templates *view.Engine
	now       func() time.Time
}

// NewHandler constructs the explorer handler.
func NewHandler(logger *slog.Logger, backend Backend, templates *view.Engine) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, backend: backend, templates: templates, now: time.Now}
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

// MountRoutes registers explorer endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/data/tables", h.handleTables)
	r.Get("/data/sql", h.handleSQLForm)
	r.With(httprate.LimitByIP(30, time.Minute)).Post("/data/sql", h.handleSQL)
}

// TablesView is the table browser page model.
type TablesView struct {
	Error    string
	Tables   []string
	Selected string
	MinLimit int
	MaxLimit int
	Limit    int
	Preview  *ResultSet
}

// SQLView is the SQL console page model.
type SQLView struct {
	Query   string
	MaxRows int
	Error   string
	Result  *ResultSet
}

func (h *Handler) handleTables(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	vm := TablesView{
		Selected: r.URL.Query().Get("table"),
		MinLimit: MinPreviewRows,
		MaxLimit: MaxPreviewRows,
		Limit:    ClampLimit(limit),
	}
	status := http.StatusOK

	tables, err := h.backend.ListTables(ctx)
	if err != nil {
		h.logError("list tables", err)
		vm.Error = Describe(err)
		h.render(w, r, http.StatusInternalServerError, "pages/tables.html", "Tables", vm)
		return
	}
	vm.Tables = tables
	if vm.Selected == "" && len(tables) > 0 {
		vm.Selected = tables[0]
	}

	if vm.Selected != "" {
		preview, err := h.backend.Preview(ctx, vm.Selected, vm.Limit)
		switch {
		case err == nil:
			vm.Preview = preview
		case errors.Is(err, ErrUnknownTable):
			vm.Error = Describe(err)
			status = http.StatusNotFound
		default:
			h.logError("preview table", err)
			vm.Error = Describe(err)
		}
	}
	h.render(w, r, status, "pages/tables.html", "Tables", vm)
}

func (h *Handler) handleSQLForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "pages/sql.html", "SQL", SQLView{MaxRows: h.backend.MaxRows()})
}

func (h *Handler) handleSQL(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.RespondError(w, fmt.Errorf("parse form: %w", httpx.ErrValidation))
		return
	}
	vm := SQLView{Query: r.PostForm.Get("query"), MaxRows: h.backend.MaxRows()}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	rs, err := h.backend.Run(ctx, vm.Query)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		h.logger.Warn("sql console query failed", slog.Any("error", err))
		vm.Error = Describe(err)
		h.render(w, r, status, "pages/sql.html", "SQL", vm)
		return
	}

	if r.PostForm.Get("format") == "csv" {
		var buf bytes.Buffer
		if err := WriteCSV(&buf, rs); err != nil {
			h.handleServerError(w, "write csv", err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", CSVFilename(h.now())))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
		return
	}

	vm.Result = rs
	h.render(w, r, http.StatusOK, "pages/sql.html", "SQL", vm)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name, title string, vm any) {
	if err := h.templates.RenderStatus(w, status, name, view.PageData(r, title, vm)); err != nil {
		h.handleServerError(w, "render template", err)
	}
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) logError(context string, err error) {
	h.logger.Error(context, slog.Any("error", err))
}

// HandleTablesForTest exposes the table browser for tests.
func (h *Handler) HandleTablesForTest(w http.ResponseWriter, r *http.Request) { h.handleTables(w, r) }

// HandleSQLForTest exposes the SQL console POST handler for tests.
func (h *Handler) HandleSQLForTest(w http.ResponseWriter, r *http.Request) { h.handleSQL(w, r) }
