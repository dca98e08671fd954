package view

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestRenderHome(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	require.NoError(t, engine.Render(rr, "pages/home.html", TemplateData{Title: "Home", CurrentPath: "/"}))
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "Sales by location")
}

func TestRenderUnknownTemplateWritesNothing(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	assert.Error(t, engine.Render(rr, "pages/missing.html", TemplateData{}))
	assert.Zero(t, rr.Body.Len())

	var buf bytes.Buffer
	assert.Error(t, engine.RenderTo(&buf, "reports/missing.html", nil))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", FormatNumber(0))
	assert.Equal(t, "1,234,567", FormatNumber(1234567))
}

func TestFormatDecimal(t *testing.T) {
	cases := map[string]string{
		"0":           "0",
		"15":          "15",
		"1234.5":      "1,234.5",
		"-9876543.21": "-9,876,543.21",
		"0.123456":    "0.1235",
		"-0.5":        "-0.5",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatDecimal(decimal.RequireFromString(in)), in)
	}
}
