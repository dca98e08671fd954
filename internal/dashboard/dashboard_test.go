package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesboard/salesboard/internal/view"
)

func TestSummarize(t *testing.T) {
	rows := []SampleRow{
		{CreatedDate: "2024-01-02", ProductName: "Cola", LocationCode: "L1", Quantity: "5"},
		{CreatedDate: "2024-01-02 10:11:12", ProductName: "Cola", LocationCode: "L2", Quantity: "2.5"},
		{CreatedDate: "2024/01/01", ProductName: "Tea", LocationCode: "L1", Quantity: "n/a"},
		{CreatedDate: "garbage", ProductName: "", LocationCode: "", Quantity: ""},
	}
	ov := Summarize(rows)
	assert.Equal(t, 4, ov.SampleRows)
	assert.Equal(t, "7.5", ov.TotalQuantity.String())
	assert.Equal(t, 1, ov.InvalidQuantities)
	assert.Equal(t, 2, ov.DistinctProducts)
	assert.Equal(t, 2, ov.DistinctLocations)

	require.Len(t, ov.Daily, 2)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), ov.Daily[0].Day)
	assert.Equal(t, 2, ov.Daily[1].Count)

	require.Len(t, ov.TopProducts, 2)
	assert.Equal(t, ProductCount{Name: "Cola", Count: 2}, ov.TopProducts[0])
}

func TestSummarizeKeepsTopTen(t *testing.T) {
	var rows []SampleRow
	for i := 0; i < 15; i++ {
		for j := 0; j <= i; j++ {
			rows = append(rows, SampleRow{ProductName: fmt.Sprintf("P%02d", i)})
		}
	}
	ov := Summarize(rows)
	require.Len(t, ov.TopProducts, 10)
	assert.Equal(t, "P14", ov.TopProducts[0].Name)
	assert.Equal(t, 15, ov.TopProducts[0].Count)
	assert.True(t, ov.TotalQuantity.IsZero())
}

type stubSampler struct {
	rows  []SampleRow
	err   error
	limit int
}

func (s *stubSampler) Sample(ctx context.Context, limit int) ([]SampleRow, error) {
	s.limit = limit
	return s.rows, s.err
}

func TestDashboardHandler(t *testing.T) {
	templates, err := view.NewEngine()
	require.NoError(t, err)
	sampler := &stubSampler{rows: []SampleRow{
		{CreatedDate: "2024-01-01", ProductName: "Cola", LocationCode: "L1", Quantity: "1200"},
		{CreatedDate: "2024-01-02", ProductName: "Tea", LocationCode: "L1", Quantity: "3"},
	}}
	h := NewHandler(nil, sampler, templates, 100)

	rr := httptest.NewRecorder()
	h.HandleDashboardForTest(rr, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Equal(t, 100, sampler.limit)
	assert.Contains(t, body, "1,203")
	assert.Contains(t, body, "daily-transactions-line-title")
	assert.Contains(t, body, "top-products-bar-title")
}

func TestDashboardHandlerEmptyAndError(t *testing.T) {
	templates, err := view.NewEngine()
	require.NoError(t, err)

	h := NewHandler(nil, &stubSampler{}, templates, 0)
	rr := httptest.NewRecorder()
	h.HandleDashboardForTest(rr, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "The fact table is empty.")

	h = NewHandler(nil, &stubSampler{err: errors.New("down")}, templates, 0)
	rr = httptest.NewRecorder()
	h.HandleDashboardForTest(rr, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Could not read the fact table.")
	assert.NotContains(t, rr.Body.String(), "The fact table is empty.")
}
