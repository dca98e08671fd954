package connection

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/salesboard/salesboard/internal/platform/db"
	"github.com/salesboard/salesboard/internal/platform/httpx"
	"github.com/salesboard/salesboard/internal/view"
)

const probeTimeout = 10 * time.Second

// Prober is the contract used by the handler.
type Prober interface {
	ServerTime(ctx context.Context) (time.Time, error)
	Test(ctx context.Context, desc db.Descriptor) (TestResult, error)
}

// Handler serves the connection page.
type Handler struct {
	logger     *slog.Logger
	prober     Prober
	templates  *view.Engine
	descriptor db.Descriptor
}

// NewHandler constructs the handler. The descriptor is redacted before display.
func NewHandler(logger *slog.Logger, prober Prober, templates *view.Engine, desc db.Descriptor) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, prober: prober, templates: templates, descriptor: desc.Redacted()}
}

// MountRoutes registers connection endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/connection", h.handlePage)
	r.With(httprate.LimitByIP(10, time.Minute)).Post("/connection/test", h.handleTest)
}

// View is the page model.
type View struct {
	Descriptor db.Descriptor
	ServerTime time.Time
	Error      string
	TestForm   Form
	SSLModes   []string
	TestError  string
	Test       *TestResult
}

func (h *Handler) baseView(ctx context.Context) View {
	vm := View{
		Descriptor: h.descriptor,
		SSLModes:   SSLModes,
		TestForm: Form{
			Host:     h.descriptor.Host,
			Port:     strconv.Itoa(h.descriptor.Port),
			Database: h.descriptor.Database,
			User:     h.descriptor.User,
			SSLMode:  h.descriptor.SSLMode,
		},
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	now, err := h.prober.ServerTime(ctx)
	if err != nil {
		h.logger.Error("read server time", slog.Any("error", err))
		vm.Error = describe(err)
		return vm
	}
	vm.ServerTime = now
	return vm
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	vm := h.baseView(r.Context())
	status := http.StatusOK
	if vm.Error != "" {
		status = http.StatusServiceUnavailable
	}
	h.render(w, r, status, vm)
}

func (h *Handler) handleTest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	vm := h.baseView(r.Context())
	vm.TestForm = Form{
		Host:     r.PostForm.Get("host"),
		Port:     r.PostForm.Get("port"),
		Database: r.PostForm.Get("database"),
		User:     r.PostForm.Get("user"),
		Password: r.PostForm.Get("password"),
		SSLMode:  r.PostForm.Get("sslmode"),
	}

	desc, err := vm.TestForm.Descriptor()
	vm.TestForm.Password = ""
	if err != nil {
		vm.TestError = "Connection details are invalid: " + err.Error()
		h.render(w, r, http.StatusBadRequest, vm)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()
	res, err := h.prober.Test(ctx, desc)
	if err != nil {
		h.logger.Warn("test connection failed", slog.String("host", desc.Host), slog.Any("error", err))
		vm.TestError = describe(err)
		h.render(w, r, http.StatusOK, vm)
		return
	}
	vm.Test = &res
	h.render(w, r, http.StatusOK, vm)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, vm View) {
	if err := h.templates.RenderStatus(w, status, "pages/connection.html", view.PageData(r, "Connection", vm)); err != nil {
		h.logger.Error("render connection page", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func describe(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "28P01", "28000":
			return "Authentication failed for that user."
		case "3D000":
			return "That database does not exist."
		}
		return "Connection failed: " + pgErr.Message
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Timed out while connecting."
	}
	return "Could not connect to the database server."
}

// HandlePageForTest exposes the page handler for tests.
func (h *Handler) HandlePageForTest(w http.ResponseWriter, r *http.Request) { h.handlePage(w, r) }

// HandleTestForTest exposes the test handler for tests.
func (h *Handler) HandleTestForTest(w http.ResponseWriter, r *http.Request) { h.handleTest(w, r) }
