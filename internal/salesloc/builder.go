package salesloc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/salesboard/salesboard/internal/platform/db"
)

// Query is SQL text plus its positional arguments.
type Query struct {
	SQL  string
	Args []any
}

// Builder renders FilterCriteria into the aggregation query over one fact table.
type Builder struct {
	table string
}

// NewBuilder validates the fact table name once so Build only deals with criteria.
func NewBuilder(table string) (*Builder, error) {
	ident, err := db.ParseTableName(table)
	if err != nil {
		return nil, fmt.Errorf("salesloc: fact table: %w", err)
	}
	return &Builder{table: ident.Sanitize()}, nil
}

// Table returns the sanitized table reference used in generated SQL.
func (b *Builder) Table() string {
	return b.table
}

// Build produces the parameterized aggregation. Identical criteria always
// yield identical SQL text and arguments.
func (b *Builder) Build(c FilterCriteria) (Query, error) {
	column, ok := c.DateField.Column()
	if !ok {
		return Query{}, invalid(FieldDateField, "unknown date field "+string(c.DateField))
	}
	if c.Range.Start.IsZero() || c.Range.End.IsZero() {
		return Query{}, invalid(FieldStartDate, "date range required")
	}
	if c.Range.Start.After(c.Range.End) {
		return Query{}, invalid(FieldEndDate, "end date is before start date")
	}

	args := make([]any, 0, 2+2*len(c.Products)+len(c.Locations))
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	var sb strings.Builder
	sb.WriteString("SELECT period, location_code, product_code, product_name, ")
	sb.WriteString("COALESCE(SUM(CAST(contributed_quantity AS numeric)), 0) AS total_quantity\n")
	sb.WriteString("FROM ")
	sb.WriteString(b.table)
	sb.WriteString("\nWHERE CAST(")
	sb.WriteString(column)
	sb.WriteString(" AS date) BETWEEN ")
	sb.WriteString(next(c.Range.Start.Format(dateLayout)))
	sb.WriteString("::date AND ")
	sb.WriteString(next(c.Range.End.Format(dateLayout)))
	sb.WriteString("::date")

	if len(c.Products) > 0 {
		clauses := make([]string, 0, len(c.Products))
		for _, p := range c.Products {
			clauses = append(clauses, fmt.Sprintf("(product_code = %s AND product_name = %s)", next(p.Code), next(p.Name)))
		}
		sb.WriteString("\n  AND (")
		sb.WriteString(strings.Join(clauses, " OR "))
		sb.WriteString(")")
	}

	if len(c.Locations) > 0 {
		clauses := make([]string, 0, len(c.Locations))
		for _, loc := range c.Locations {
			clauses = append(clauses, "location_code = "+next(loc))
		}
		sb.WriteString("\n  AND (")
		sb.WriteString(strings.Join(clauses, " OR "))
		sb.WriteString(")")
	}

	sb.WriteString("\nGROUP BY period, location_code, product_code, product_name")
	sb.WriteString("\nORDER BY period DESC, location_code ASC, total_quantity DESC")

	return Query{SQL: sb.String(), Args: args}, nil
}
