package splitcv

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/salesboard/salesboard/internal/platform/httpx"
	"github.com/salesboard/salesboard/internal/view"
)

const (
	maxUpload    = 16 << 20
	xlsxMIMEType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Handler serves the split CV calculator.
type Handler struct {
	logger    *slog.Logger
	templates *view.Engine
	now       func() time.Time
}

// NewHandler constructs the calculator handler.
func NewHandler(logger *slog.Logger, templates *view.Engine) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, templates: templates, now: time.Now}
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

// MountRoutes registers calculator endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/tools/split-cv", h.handleForm)
	r.Post("/tools/split-cv", h.handleUpload)
}

// View is the page model.
type View struct {
	Required []string
	Columns  []string
	Error    string
	Result   *Result
}

func newView() View {
	return View{Required: RequiredColumns, Columns: DisplayColumns}
}

func (h *Handler) handleForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, newView())
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	vm := newView()
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		vm.Error = "Could not read the upload. Files are limited to 16 MB."
		h.render(w, r, http.StatusBadRequest, vm)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		vm.Error = "Choose an .xlsx file."
		h.render(w, r, http.StatusBadRequest, vm)
		return
	}
	defer file.Close()

	sheet, err := ReadSheet(file)
	if err != nil {
		h.fail(w, r, vm, err)
		return
	}
	res, err := Calculate(sheet)
	if err != nil {
		h.fail(w, r, vm, err)
		return
	}

	if r.FormValue("format") == "xlsx" {
		var buf bytes.Buffer
		if err := WriteResult(&buf, sheet, res); err != nil {
			h.fail(w, r, vm, err)
			return
		}
		w.Header().Set("Content-Type", xlsxMIMEType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ResultFilename(h.now())))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
		return
	}

	vm.Result = &res
	h.render(w, r, http.StatusOK, vm)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, vm View, err error) {
	status := httpx.StatusFor(err)
	switch {
	case errors.Is(err, ErrUnreadable):
		vm.Error = "The file is not a readable .xlsx workbook."
	case errors.Is(err, httpx.ErrValidation):
		vm.Error = "Check the file: " + err.Error() + "."
	default:
		h.logger.Error("split cv", slog.Any("error", err))
		vm.Error = "The file could not be processed."
	}
	h.render(w, r, status, vm)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, vm View) {
	if err := h.templates.RenderStatus(w, status, "pages/split_cv.html", view.PageData(r, "Split CV", vm)); err != nil {
		h.logger.Error("render split cv page", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// HandleUploadForTest exposes the upload handler for tests.
func (h *Handler) HandleUploadForTest(w http.ResponseWriter, r *http.Request) { h.handleUpload(w, r) }
