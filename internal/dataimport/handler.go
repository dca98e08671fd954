package dataimport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/salesboard/salesboard/internal/platform/httpx"
	"github.com/salesboard/salesboard/internal/view"
)

const (
	previewRows   = 20
	importTimeout = 5 * time.Minute
)

// Loader is the import contract used by the handler.
type Loader interface {
	Import(ctx context.Context, table string, p *Parsed) (Result, error)
	FactTable() string
}

// Handler serves the CSV upload page.
type Handler struct {
	logger    *slog.Logger
	loader    Loader
	templates *view.Engine
	maxBytes  int64
}

// NewHandler constructs the upload handler.
func NewHandler(logger *slog.Logger, loader Loader, templates *view.Engine, maxBytes int64) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = 32 << 20
	}
	return &Handler{logger: logger, loader: loader, templates: templates, maxBytes: maxBytes}
}

// MountRoutes registers import endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/data/import", h.handleForm)
	r.With(httprate.LimitByIP(20, time.Minute)).Post("/data/import", h.handleUpload)
}

// PreviewView describes the parsed file.
type PreviewView struct {
	TotalRows     int
	Columns       []string
	Rows          [][]string
	DelimiterName string
	Encoding      string
}

// View is the page model.
type View struct {
	Table     string
	FactTable string
	MaxMB     int
	Error     string
	Result    *Result
	Preview   *PreviewView
}

func (h *Handler) baseView() View {
	return View{
		Table:     h.loader.FactTable(),
		FactTable: h.loader.FactTable(),
		MaxMB:     int(h.maxBytes >> 20),
	}
}

func (h *Handler) handleForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, h.baseView())
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	vm := h.baseView()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	data, table, mode, err := h.readUpload(r)
	if table != "" {
		vm.Table = table
	}
	if err != nil {
		vm.Error = uploadMessage(err)
		h.render(w, r, httpx.StatusFor(err), vm)
		return
	}

	parsed, err := Parse(data)
	if err != nil {
		vm.Error = uploadMessage(err)
		h.render(w, r, http.StatusBadRequest, vm)
		return
	}
	vm.Preview = &PreviewView{
		TotalRows:     len(parsed.Records),
		Columns:       parsed.Columns,
		Rows:          parsed.Head(previewRows),
		DelimiterName: DelimiterName(parsed.Delimiter),
		Encoding:      parsed.Encoding,
	}
	if mode != "import" {
		h.render(w, r, http.StatusOK, vm)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), importTimeout)
	defer cancel()

	res, err := h.loader.Import(ctx, vm.Table, parsed)
	if err != nil {
		status := httpx.StatusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("import csv", slog.String("table", vm.Table), slog.Any("error", err))
		}
		vm.Error = uploadMessage(err)
		h.render(w, r, status, vm)
		return
	}
	vm.Result = &res
	h.render(w, r, http.StatusOK, vm)
}

func (h *Handler) readUpload(r *http.Request) ([]byte, string, string, error) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", "", fmt.Errorf("upload exceeds %d bytes: %w", tooLarge.Limit, httpx.ErrTooLarge)
		}
		return nil, "", "", fmt.Errorf("read upload: %w", httpx.ErrValidation)
	}
	table := r.FormValue("table")
	mode := r.FormValue("mode")

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, table, mode, fmt.Errorf("choose a CSV file: %w", httpx.ErrValidation)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, table, mode, fmt.Errorf("read upload: %w", httpx.ErrValidation)
	}
	return data, table, mode, nil
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, vm View) {
	if err := h.templates.RenderStatus(w, status, "pages/import.html", view.PageData(r, "Import CSV", vm)); err != nil {
		h.logger.Error("render import page", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func uploadMessage(err error) string {
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr):
		if pgErr.Code == "42703" {
			return "The file has columns the target table does not: " + pgErr.Message
		}
		return "The database rejected the import: " + pgErr.Message
	case errors.Is(err, ErrInvalidTable):
		return "Table names must start with a letter or underscore and contain only letters, digits and underscores."
	case errors.Is(err, ErrEmptyFile):
		return "The file has no header row."
	case errors.Is(err, ErrMalformed), errors.Is(err, httpx.ErrValidation), errors.Is(err, httpx.ErrTooLarge):
		return err.Error()
	}
	return "The import failed. Nothing was written."
}

// HandleUploadForTest exposes the upload handler for tests.
func (h *Handler) HandleUploadForTest(w http.ResponseWriter, r *http.Request) { h.handleUpload(w, r) }
