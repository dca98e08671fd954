package salesloc

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/salesboard/salesboard/internal/platform/db"
)

// QueryObserver receives timing for each executed report query.
type QueryObserver interface {
	ObserveQuery(report string, elapsed time.Duration, rows int, err error)
}

const reportName = "sales_by_location"

// Executor runs built queries on a connection scoped to the call.
type Executor struct {
	connector db.Connector
	observer  QueryObserver
}

// NewExecutor constructs an Executor. observer may be nil.
func NewExecutor(connector db.Connector, observer QueryObserver) *Executor {
	return &Executor{connector: connector, observer: observer}
}

// Execute acquires a connection, runs q and releases the connection on
// every path. Driver failures come back as *QueryError.
func (e *Executor) Execute(ctx context.Context, q Query) (rows []AggregatedRow, err error) {
	start := time.Now()
	defer func() {
		if e.observer != nil {
			e.observer.ObserveQuery(reportName, time.Since(start), len(rows), err)
		}
	}()

	conn, release, err := e.connector.Acquire(ctx)
	if err != nil {
		return nil, &QueryError{Op: "acquire connection", Err: err}
	}
	defer release()

	result, err := conn.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, &QueryError{Op: "run aggregation", Err: err}
	}
	defer result.Close()

	out := make([]AggregatedRow, 0, 64)
	for result.Next() {
		var (
			period, location, code, name pgtype.Text
			total                        pgtype.Numeric
		)
		if err := result.Scan(&period, &location, &code, &name, &total); err != nil {
			return nil, &QueryError{Op: "scan row", Err: err}
		}
		out = append(out, AggregatedRow{
			Period:        period.String,
			LocationCode:  location.String,
			ProductCode:   code.String,
			ProductName:   name.String,
			TotalQuantity: numericToDecimal(total),
		})
	}
	if err := result.Err(); err != nil {
		return nil, &QueryError{Op: "read rows", Err: err}
	}
	return out, nil
}

// numericToDecimal maps SQL NULL and NaN to zero.
func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.NaN || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}
