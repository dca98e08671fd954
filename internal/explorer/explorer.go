package explorer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/salesboard/salesboard/internal/platform/db"
	"github.com/salesboard/salesboard/internal/platform/httpx"
)

// Preview limits.
const (
	MinPreviewRows     = 5
	MaxPreviewRows     = 200
	DefaultPreviewRows = 50
)

var (
	// ErrUnknownTable is returned when a preview names a table outside the public schema listing.
	ErrUnknownTable = fmt.Errorf("explorer: unknown table: %w", httpx.ErrNotFound)
	// ErrEmptyQuery is returned for blank SQL input.
	ErrEmptyQuery = fmt.Errorf("explorer: query is empty: %w", httpx.ErrValidation)
)

// Explorer lists and previews tables and runs ad-hoc read-only SQL.
type Explorer struct {
	connector db.Connector
	txs       db.TxBeginner
	maxRows   int
}

// New constructs an Explorer.
func New(connector db.Connector, txs db.TxBeginner, maxRows int) *Explorer {
	return &Explorer{connector: connector, txs: txs, maxRows: maxRows}
}

// MaxRows is the row cap applied to ad-hoc queries.
func (e *Explorer) MaxRows() int {
	return e.maxRows
}

// ClampLimit brings a requested preview size into [MinPreviewRows, MaxPreviewRows].
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultPreviewRows
	case limit < MinPreviewRows:
		return MinPreviewRows
	case limit > MaxPreviewRows:
		return MaxPreviewRows
	}
	return limit
}

// ListTables returns base tables in the public schema, sorted by name.
func (e *Explorer) ListTables(ctx context.Context) ([]string, error) {
	conn, release, err := e.connector.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := conn.Query(ctx, `SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE' ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("explorer: list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("explorer: scan table: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// Preview returns the first rows of a listed table.
func (e *Explorer) Preview(ctx context.Context, table string, limit int) (*ResultSet, error) {
	tables, err := e.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(tables, table) {
		return nil, ErrUnknownTable
	}

	conn, release, err := e.connector.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	start := time.Now()
	rows, err := conn.Query(ctx, "SELECT * FROM "+pgx.Identifier{"public", table}.Sanitize()+" LIMIT $1", ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("explorer: preview %s: %w", table, err)
	}
	rs, err := collect(rows, 0)
	if err != nil {
		return nil, fmt.Errorf("explorer: preview %s: %w", table, err)
	}
	rs.Elapsed = time.Since(start)
	return rs, nil
}

// Run executes query inside a READ ONLY transaction and returns at most MaxRows rows.
func (e *Explorer) Run(ctx context.Context, query string) (*ResultSet, error) {
	query = strings.TrimRight(strings.TrimSpace(query), "; \n\t")
	if query == "" {
		return nil, ErrEmptyQuery
	}

	var rs *ResultSet
	start := time.Now()
	err := db.WithReadOnlyTx(ctx, e.txs, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query)
		if err != nil {
			return err
		}
		rs, err = collect(rows, e.maxRows)
		return err
	})
	if err != nil {
		return nil, err
	}
	rs.Elapsed = time.Since(start)
	return rs, nil
}

// Describe renders an error for display next to the SQL editor.
func Describe(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "25006" {
			return "Only read-only statements are allowed here."
		}
		msg := fmt.Sprintf("%s: %s (SQLSTATE %s)", pgErr.Severity, pgErr.Message, pgErr.Code)
		if pgErr.Hint != "" {
			msg += ". Hint: " + pgErr.Hint
		}
		return msg
	}
	switch {
	case errors.Is(err, ErrEmptyQuery):
		return "Enter a query to run."
	case errors.Is(err, ErrUnknownTable):
		return "That table does not exist in the public schema."
	case errors.Is(err, context.DeadlineExceeded):
		return "The query took too long and was cancelled."
	}
	return "The query failed. Check the connection page."
}
