package dashboard

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/salesboard/salesboard/internal/platform/db"
)

// Repository samples rows from the fact table.
type Repository struct {
	connector db.Connector
	table     string
}

// NewRepository validates the table name up front.
func NewRepository(connector db.Connector, table string) (*Repository, error) {
	ident, err := db.ParseTableName(table)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	return &Repository{connector: connector, table: ident.Sanitize()}, nil
}

// Sample returns up to limit rows, most recently created first.
func (r *Repository) Sample(ctx context.Context, limit int) ([]SampleRow, error) {
	conn, release, err := r.connector.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := conn.Query(ctx,
		"SELECT created_date, product_name, location_code, contributed_quantity FROM "+r.table+
			" ORDER BY created_date DESC NULLS LAST LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("dashboard: sample: %w", err)
	}
	defer rows.Close()

	out := make([]SampleRow, 0, limit)
	for rows.Next() {
		var created, product, location, qty pgtype.Text
		if err := rows.Scan(&created, &product, &location, &qty); err != nil {
			return nil, fmt.Errorf("dashboard: scan: %w", err)
		}
		out = append(out, SampleRow{
			CreatedDate:  created.String,
			ProductName:  product.String,
			LocationCode: location.String,
			Quantity:     qty.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dashboard: sample: %w", err)
	}
	return out, nil
}
