package salesloc

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesboard/salesboard/internal/platform/httpx"
)

func day(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func baseCriteria() FilterCriteria {
	return FilterCriteria{
		DateField: DateFieldCreated,
		Range:     DateRange{Start: day("2024-01-01"), End: day("2024-01-31")},
	}
}

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	b, err := NewBuilder("sales_fact")
	require.NoError(t, err)
	return b
}

func TestBuildWithoutSelectionsHasNoDimensionPredicates(t *testing.T) {
	q, err := newTestBuilder(t).Build(baseCriteria())
	require.NoError(t, err)

	assert.NotContains(t, q.SQL, "product_code =")
	assert.NotContains(t, q.SQL, "location_code =")
	assert.Contains(t, q.SQL, `FROM "sales_fact"`)
	assert.Contains(t, q.SQL, "WHERE CAST(created_date AS date) BETWEEN $1::date AND $2::date")
	assert.Contains(t, q.SQL, "GROUP BY period, location_code, product_code, product_name")
	assert.Contains(t, q.SQL, "COALESCE(SUM(CAST(contributed_quantity AS numeric)), 0) AS total_quantity")
	assert.Contains(t, q.SQL, "ORDER BY period DESC, location_code ASC, total_quantity DESC")
	assert.Equal(t, []any{"2024-01-01", "2024-01-31"}, q.Args)
}

func TestBuildBindsSelectionsAsParameters(t *testing.T) {
	c := baseCriteria()
	c.DateField = DateFieldBatch
	c.Products = []ProductRef{{Code: "C1", Name: "Cola"}, {Code: "C2", Name: "O'Brien"}}
	c.Locations = []string{"L1", "L2'; DROP TABLE sales_fact; --"}

	q, err := newTestBuilder(t).Build(c)
	require.NoError(t, err)

	assert.Contains(t, q.SQL, "CAST(batch_date AS date)")
	assert.Contains(t, q.SQL, "AND ((product_code = $3 AND product_name = $4) OR (product_code = $5 AND product_name = $6))")
	assert.Contains(t, q.SQL, "AND (location_code = $7 OR location_code = $8)")
	assert.NotContains(t, q.SQL, "O'Brien")
	assert.NotContains(t, q.SQL, "DROP TABLE")
	assert.Equal(t, []any{"2024-01-01", "2024-01-31", "C1", "Cola", "C2", "O'Brien", "L1", "L2'; DROP TABLE sales_fact; --"}, q.Args)
}

func TestBuildIsDeterministic(t *testing.T) {
	b := newTestBuilder(t)
	c := baseCriteria()
	c.Products = []ProductRef{{Code: "C1", Name: "Cola"}}
	c.Locations = []string{"L1"}

	first, err := b.Build(c)
	require.NoError(t, err)
	second, err := b.Build(c)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuildRejectsUnknownDateField(t *testing.T) {
	c := baseCriteria()
	c.DateField = "bogus"
	_, err := newTestBuilder(t).Build(c)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidFilter)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	var fe *FilterError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, FieldDateField, fe.Field)
}

func TestBuildRejectsMissingOrInvertedRange(t *testing.T) {
	b := newTestBuilder(t)

	c := baseCriteria()
	c.Range = DateRange{}
	_, err := b.Build(c)
	assert.ErrorIs(t, err, ErrInvalidFilter)

	c = baseCriteria()
	c.Range = DateRange{Start: day("2024-02-01"), End: day("2024-01-01")}
	_, err = b.Build(c)
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestBuildSingleDayRange(t *testing.T) {
	c := baseCriteria()
	c.Range = DateRange{Start: day("2024-01-05"), End: day("2024-01-05")}
	q, err := newTestBuilder(t).Build(c)
	require.NoError(t, err)
	assert.Equal(t, []any{"2024-01-05", "2024-01-05"}, q.Args)
}

func TestNewBuilderValidatesTable(t *testing.T) {
	_, err := NewBuilder("sales fact")
	assert.Error(t, err)

	b, err := NewBuilder("reporting.sales_fact")
	require.NoError(t, err)
	assert.Equal(t, `"reporting"."sales_fact"`, b.Table())
}

func TestEveryDateFieldHasColumn(t *testing.T) {
	for _, f := range DateFields() {
		col, ok := f.Column()
		assert.True(t, ok, f)
		assert.True(t, strings.HasSuffix(col, string(f)))
		assert.NotEmpty(t, f.Label())
	}
}
