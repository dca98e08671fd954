package salesloc

import (
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateField selects which fact-table column the date range applies to.
type DateField string

const (
	DateFieldCreated DateField = "created_date"
	DateFieldBatch   DateField = "batch_date"
	DateFieldPeriod  DateField = "period"
)

var dateColumns = map[DateField]string{
	DateFieldCreated: "created_date",
	DateFieldBatch:   "batch_date",
	DateFieldPeriod:  "period",
}

// DateFields lists the selectable fields in form order.
func DateFields() []DateField {
	return []DateField{DateFieldCreated, DateFieldBatch, DateFieldPeriod}
}

// Column returns the column a field maps to. ok is false for unknown fields.
func (f DateField) Column() (string, bool) {
	col, ok := dateColumns[f]
	return col, ok
}

// Label is the human readable name shown in the selector.
func (f DateField) Label() string {
	switch f {
	case DateFieldCreated:
		return "Created date"
	case DateFieldBatch:
		return "Batch date"
	case DateFieldPeriod:
		return "Period"
	default:
		return string(f)
	}
}

// DateRange is an inclusive calendar date range.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ProductRef identifies a product by its code and name pair.
type ProductRef struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

const (
	productLabelSep = " - "
	productValueSep = "|"
)

// Label renders the "code - name" form used by the product selector.
func (p ProductRef) Label() string {
	return p.Code + productLabelSep + p.Name
}

// Value encodes the pair for an option value. Both parts are path-escaped so
// the separator never occurs inside them and whitespace survives the trip.
func (p ProductRef) Value() string {
	return url.PathEscape(p.Code) + productValueSep + url.PathEscape(p.Name)
}

// ParseProductValue decodes a selected product. Option values produced by
// Value are decoded exactly; anything else is read as a "code - name" label
// split at its first separator. Neither form is trimmed.
func ParseProductValue(v string) (ProductRef, bool) {
	if code, name, ok := strings.Cut(v, productValueSep); ok {
		c, errC := url.PathUnescape(code)
		n, errN := url.PathUnescape(name)
		if errC == nil && errN == nil && c != "" {
			return ProductRef{Code: c, Name: n}, true
		}
	}
	return ParseProductLabel(v)
}

// ParseProductLabel splits a "code - name" label at its first separator.
func ParseProductLabel(label string) (ProductRef, bool) {
	code, name, ok := strings.Cut(label, productLabelSep)
	if !ok || code == "" {
		return ProductRef{}, false
	}
	return ProductRef{Code: code, Name: name}, true
}

// FilterCriteria is the validated filter set for one report run. Empty
// product or location slices place no restriction on that dimension.
type FilterCriteria struct {
	DateField DateField
	Range     DateRange
	Products  []ProductRef
	Locations []string
}

// AggregatedRow is one output row; the first four fields form its grouping key.
type AggregatedRow struct {
	Period        string          `json:"period"`
	LocationCode  string          `json:"location_code"`
	ProductCode   string          `json:"product_code"`
	ProductName   string          `json:"product_name"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
}

// SummaryStats condenses a row sequence.
type SummaryStats struct {
	RecordCount           int             `json:"record_count"`
	QuantitySum           decimal.Decimal `json:"quantity_sum"`
	DistinctProductCount  int             `json:"distinct_product_count"`
	DistinctLocationCount int             `json:"distinct_location_count"`
}

// Result bundles the rows and their summary for presentation.
type Result struct {
	Criteria FilterCriteria
	Rows     []AggregatedRow
	Summary  SummaryStats
}

// Empty reports the informational "no data" state.
func (r Result) Empty() bool {
	return len(r.Rows) == 0
}
