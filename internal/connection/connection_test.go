package connection

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesboard/salesboard/internal/platform/db"
	"github.com/salesboard/salesboard/internal/platform/httpx"
	"github.com/salesboard/salesboard/internal/view"
)

func TestFormDescriptor(t *testing.T) {
	desc, err := Form{Host: " db.internal ", Port: "5433", Database: "sales", User: "report", Password: "pw", SSLMode: "disable"}.Descriptor()
	require.NoError(t, err)
	assert.Equal(t, "db.internal", desc.Host)
	assert.Equal(t, 5433, desc.Port)
	assert.Equal(t, "pw", desc.Password)

	cases := []Form{
		{Host: "db", Port: "abc", Database: "sales", User: "u"},
		{Host: "db", Port: "70000", Database: "sales", User: "u"},
		{Host: "", Port: "5432", Database: "sales", User: "u"},
		{Host: "db", Port: "5432", Database: "", User: "u"},
		{Host: "db", Port: "5432", Database: "sales", User: "u", SSLMode: "sometimes"},
	}
	for _, f := range cases {
		_, err := f.Descriptor()
		assert.ErrorIs(t, err, httpx.ErrValidation, "%+v", f)
	}
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Authentication failed for that user.", describe(&pgconn.PgError{Code: "28P01"}))
	assert.Equal(t, "That database does not exist.", describe(&pgconn.PgError{Code: "3D000"}))
	assert.Equal(t, "Timed out while connecting.", describe(context.DeadlineExceeded))
	assert.Equal(t, "Could not connect to the database server.", describe(errors.New("dial tcp: refused")))
}

type stubProber struct {
	now     time.Time
	nowErr  error
	result  TestResult
	testErr error
	tested  db.Descriptor
}

func (p *stubProber) ServerTime(ctx context.Context) (time.Time, error) { return p.now, p.nowErr }

func (p *stubProber) Test(ctx context.Context, desc db.Descriptor) (TestResult, error) {
	p.tested = desc
	return p.result, p.testErr
}

func newTestHandler(t *testing.T, p Prober) *Handler {
	t.Helper()
	templates, err := view.NewEngine()
	require.NoError(t, err)
	return NewHandler(nil, p, templates, db.Descriptor{
		Host: "pg.local", Port: 5432, Database: "salesboard", User: "app", Password: "s3cret", SSLMode: "require",
	})
}

func TestConnectionPage(t *testing.T) {
	p := &stubProber{now: time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)}
	h := newTestHandler(t, p)

	rr := httptest.NewRecorder()
	h.HandlePageForTest(rr, httptest.NewRequest(http.MethodGet, "/connection", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "pg.local")
	assert.Contains(t, body, "2024-02-03 04:05:06 UTC")
	assert.NotContains(t, body, "s3cret")
}

func TestConnectionPageDatabaseDown(t *testing.T) {
	h := newTestHandler(t, &stubProber{nowErr: errors.New("refused")})

	rr := httptest.NewRecorder()
	h.HandlePageForTest(rr, httptest.NewRequest(http.MethodGet, "/connection", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "Could not connect to the database server.")
}

func TestConnectionTest(t *testing.T) {
	p := &stubProber{now: time.Now(), result: TestResult{Database: "other", Version: "PostgreSQL 16.2", Elapsed: 12 * time.Millisecond}}
	h := newTestHandler(t, p)

	form := url.Values{"host": {"10.0.0.5"}, "port": {"5432"}, "database": {"other"}, "user": {"u"}, "password": {"pw"}, "sslmode": {"disable"}}
	req := httptest.NewRequest(http.MethodPost, "/connection/test", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.HandleTestForTest(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "10.0.0.5", p.tested.Host)
	assert.Equal(t, "pw", p.tested.Password)
	assert.Contains(t, rr.Body.String(), "PostgreSQL 16.2")
	assert.Contains(t, rr.Body.String(), "<strong>other</strong>")
}

func TestConnectionTestInvalidForm(t *testing.T) {
	p := &stubProber{now: time.Now()}
	h := newTestHandler(t, p)

	form := url.Values{"host": {"db"}, "port": {"nope"}, "database": {"x"}, "user": {"u"}}
	req := httptest.NewRequest(http.MethodPost, "/connection/test", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.HandleTestForTest(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Connection details are invalid")
	assert.Empty(t, p.tested.Host)
}
