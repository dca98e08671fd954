package salesloc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/salesboard/salesboard/internal/platform/db"
)

// fakeRows serves canned records. Each record is a slice of values matching
// the scan destinations: string (or nil for NULL) and decimal.Decimal.
type fakeRows struct {
	records [][]any
	idx     int
	err     error
	closed  bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.records) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Values() ([]any, error) {
	return r.records[r.idx-1], nil
}

func (r *fakeRows) Scan(dest ...any) error {
	rec := r.records[r.idx-1]
	if len(rec) != len(dest) {
		return fmt.Errorf("fake: %d values for %d destinations", len(rec), len(dest))
	}
	for i, d := range dest {
		switch out := d.(type) {
		case *pgtype.Text:
			if rec[i] == nil {
				*out = pgtype.Text{}
				continue
			}
			*out = pgtype.Text{String: rec[i].(string), Valid: true}
		case *pgtype.Numeric:
			if rec[i] == nil {
				*out = pgtype.Numeric{}
				continue
			}
			dec := rec[i].(decimal.Decimal)
			*out = pgtype.Numeric{Int: dec.Coefficient(), Exp: dec.Exponent(), Valid: true}
		case *string:
			*out = rec[i].(string)
		default:
			return fmt.Errorf("fake: unsupported destination %T", d)
		}
	}
	return nil
}

type fakeQuerier struct {
	mu       sync.Mutex
	rows     map[string]*fakeRows
	fallback *fakeRows
	err      error
	calls    []string
	args     [][]any
}

func (q *fakeQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls = append(q.calls, sql)
	q.args = append(q.args, args)
	if q.err != nil {
		return nil, q.err
	}
	for prefix, rows := range q.rows {
		if len(sql) >= len(prefix) && sql[:len(prefix)] == prefix {
			return rows, nil
		}
	}
	if q.fallback != nil {
		return q.fallback, nil
	}
	return &fakeRows{}, nil
}

type fakeConnector struct {
	mu       sync.Mutex
	querier  *fakeQuerier
	err      error
	acquired int
	released int
}

var _ db.Connector = (*fakeConnector)(nil)

func (c *fakeConnector) Acquire(ctx context.Context) (db.Querier, func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, nil, c.err
	}
	c.acquired++
	return c.querier, func() {
		c.mu.Lock()
		c.released++
		c.mu.Unlock()
	}, nil
}

func (c *fakeConnector) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acquired, c.released
}

var errDriver = errors.New("driver exploded")

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
