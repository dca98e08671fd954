package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/salesboard/salesboard/internal/shared"
	"github.com/salesboard/salesboard/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Data        any
}

var printer = message.NewPrinter(language.English)

// NewEngine parses templates at build-time.
func NewEngine() (*Engine, error) {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04")
		},
		"formatNumber":  FormatNumber,
		"formatDecimal": FormatDecimal,
		"contains": func(list []string, v string) bool {
			for _, item := range list {
				if item == v {
					return true
				}
			}
			return false
		},
		"query": func(v url.Values) template.URL {
			return template.URL(v.Encode())
		},
		"active": func(current, prefix string) bool {
			if prefix == "/" {
				return current == "/"
			}
			return strings.HasPrefix(current, prefix)
		},
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html", "templates/reports/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	return e.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus renders with an explicit status code. Output is buffered so a
// failing template never leaves a half written page behind.
func (e *Engine) RenderStatus(w http.ResponseWriter, status int, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// RenderTo executes a template into an arbitrary writer, e.g. for PDF input.
func (e *Engine) RenderTo(w io.Writer, name string, data any) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	return e.templates.ExecuteTemplate(w, name, data)
}

// FormatNumber renders an integer with thousands separators.
func FormatNumber(n int) string {
	return printer.Sprintf("%d", n)
}

// FormatDecimal renders a decimal with thousands separators, keeping up to
// four fractional digits and dropping trailing zeros.
func FormatDecimal(d decimal.Decimal) string {
	rounded := d.Round(4)
	intPart := rounded.Truncate(0)
	frac := rounded.Sub(intPart).Abs()

	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}
	out := sign + printer.Sprintf("%d", intPart.Abs().IntPart())
	if !frac.IsZero() {
		fs := frac.String() // "0.xxxx"
		out += fs[1:]
	}
	return out
}

// PageData assembles TemplateData for r, consuming one pending flash message.
func PageData(r *http.Request, title string, data any) TemplateData {
	ctx := r.Context()
	var flash *shared.FlashMessage
	if sess := shared.SessionFromContext(ctx); sess != nil {
		flash = sess.PopFlash()
	}
	return TemplateData{
		Title:       title,
		CSRFToken:   shared.CSRFTokenFromContext(ctx),
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
}
