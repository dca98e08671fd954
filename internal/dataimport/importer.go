// Package dataimport loads uploaded CSV files into PostgreSQL tables.
package dataimport

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/salesboard/salesboard/internal/platform/db"
	"github.com/salesboard/salesboard/internal/platform/httpx"
)

// ErrInvalidTable is returned for target names that are not plain identifiers.
var ErrInvalidTable = fmt.Errorf("dataimport: invalid table name: %w", httpx.ErrValidation)

// Invalidator drops cached data derived from the fact table.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Result reports a completed import.
type Result struct {
	Rows    int
	Table   string
	Created bool
	BatchID string
}

// Importer copies parsed uploads into tables inside one transaction.
type Importer struct {
	txs         db.TxBeginner
	factTable   string
	invalidator Invalidator
	logger      *slog.Logger
	newID       func() uuid.UUID
}

// NewImporter constructs an Importer. invalidator may be nil.
func NewImporter(txs db.TxBeginner, factTable string, invalidator Invalidator, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{txs: txs, factTable: factTable, invalidator: invalidator, logger: logger, newID: uuid.New}
}

// FactTable is the table feeding the sales-by-location report.
func (i *Importer) FactTable() string {
	return i.factTable
}

// Import creates table when missing (all TEXT columns) and copies the records
// in, storing empty strings as NULL. Importing into the fact table invalidates
// the cached filter options after commit.
func (i *Importer) Import(ctx context.Context, table string, p *Parsed) (Result, error) {
	table = strings.TrimSpace(table)
	if !db.ValidIdentifier(table) {
		return Result{}, ErrInvalidTable
	}
	if p == nil || len(p.Columns) == 0 {
		return Result{}, ErrEmptyFile
	}
	ident := pgx.Identifier{table}
	res := Result{Table: table, BatchID: i.newID().String()}

	err := db.WithTx(ctx, i.txs, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", ident.Sanitize()).Scan(&exists); err != nil {
			return fmt.Errorf("dataimport: lookup table: %w", err)
		}
		if !exists {
			if _, err := tx.Exec(ctx, createTableSQL(ident, p.Columns)); err != nil {
				return fmt.Errorf("dataimport: create table: %w", err)
			}
			res.Created = true
		}

		n, err := tx.CopyFrom(ctx, ident, p.Columns, pgx.CopyFromSlice(len(p.Records), func(idx int) ([]any, error) {
			return copyValues(p.Records[idx]), nil
		}))
		if err != nil {
			return fmt.Errorf("dataimport: copy: %w", err)
		}
		res.Rows = int(n)

		if _, err := tx.Exec(ctx, `INSERT INTO import_batches (id, table_name, row_count, encoding) VALUES ($1, $2, $3, $4)`,
			res.BatchID, table, res.Rows, p.Encoding); err != nil {
			return fmt.Errorf("dataimport: record batch: %w", err)
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	i.logger.Info("csv imported",
		slog.String("table", table),
		slog.Int("rows", res.Rows),
		slog.Bool("created", res.Created),
		slog.String("batch_id", res.BatchID),
	)

	if i.invalidator != nil && strings.EqualFold(table, i.factTable) {
		if err := i.invalidator.Invalidate(ctx); err != nil {
			i.logger.Warn("invalidate filter options", slog.Any("error", err))
		}
	}
	return res, nil
}

func createTableSQL(ident pgx.Identifier, columns []string) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = pgx.Identifier{c}.Sanitize() + " TEXT"
	}
	return "CREATE TABLE " + ident.Sanitize() + " (" + strings.Join(defs, ", ") + ")"
}

func copyValues(record []string) []any {
	out := make([]any, len(record))
	for i, v := range record {
		if strings.TrimSpace(v) == "" {
			continue
		}
		out[i] = v
	}
	return out
}
