package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier runs statements on a live connection.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Connector hands out a connection scoped to a single call. The returned
// release func must be invoked on every exit path.
type Connector interface {
	Acquire(ctx context.Context) (Querier, func(), error)
}

// PoolConnector acquires connections from a pgx pool.
type PoolConnector struct {
	Pool *pgxpool.Pool
}

// Acquire implements Connector.
func (c PoolConnector) Acquire(ctx context.Context) (Querier, func(), error) {
	if c.Pool == nil {
		return nil, nil, errors.New("platform/db: pool not configured")
	}
	conn, err := c.Pool.Acquire(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("platform/db: acquire: %w", err)
	}
	return conn, conn.Release, nil
}
