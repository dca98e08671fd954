package salesloc

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/salesboard/salesboard/internal/platform/cache"
	"github.com/salesboard/salesboard/internal/platform/db"
)

// Options are the values offered by the product and location selectors.
type Options struct {
	Products  []ProductRef `json:"products"`
	Locations []string     `json:"locations"`
}

// OptionSource reads the distinct selector values from storage.
type OptionSource interface {
	Products(ctx context.Context) ([]ProductRef, error)
	Locations(ctx context.Context) ([]string, error)
}

// OptionRepository loads options straight from the fact table.
type OptionRepository struct {
	connector db.Connector
	table     string
}

// NewOptionRepository uses the builder's sanitized table reference.
func NewOptionRepository(connector db.Connector, builder *Builder) *OptionRepository {
	return &OptionRepository{connector: connector, table: builder.Table()}
}

// Products returns distinct non-null (code, name) pairs ordered by code then name.
func (r *OptionRepository) Products(ctx context.Context) ([]ProductRef, error) {
	conn, release, err := r.connector.Acquire(ctx)
	if err != nil {
		return nil, &QueryError{Op: "acquire connection", Err: err}
	}
	defer release()

	sql := "SELECT DISTINCT product_code, product_name FROM " + r.table +
		" WHERE product_code IS NOT NULL AND product_name IS NOT NULL ORDER BY product_code, product_name"
	rows, err := conn.Query(ctx, sql)
	if err != nil {
		return nil, &QueryError{Op: "load products", Err: err}
	}
	defer rows.Close()

	var out []ProductRef
	for rows.Next() {
		var ref ProductRef
		if err := rows.Scan(&ref.Code, &ref.Name); err != nil {
			return nil, &QueryError{Op: "scan product", Err: err}
		}
		out = append(out, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Op: "load products", Err: err}
	}
	return out, nil
}

// Locations returns distinct non-null location codes in ascending order.
func (r *OptionRepository) Locations(ctx context.Context) ([]string, error) {
	conn, release, err := r.connector.Acquire(ctx)
	if err != nil {
		return nil, &QueryError{Op: "acquire connection", Err: err}
	}
	defer release()

	sql := "SELECT DISTINCT location_code FROM " + r.table +
		" WHERE location_code IS NOT NULL ORDER BY location_code"
	rows, err := conn.Query(ctx, sql)
	if err != nil {
		return nil, &QueryError{Op: "load locations", Err: err}
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, &QueryError{Op: "scan location", Err: err}
		}
		out = append(out, code)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Op: "load locations", Err: err}
	}
	return out, nil
}

// OptionCache memoizes Options in Redis under a versioned key.
type OptionCache struct {
	source OptionSource
	cache  *cache.Versioned
	table  string
	logger *slog.Logger
	group  singleflight.Group
}

// NewOptionCache wires the cache. cache may be nil, in which case every call hits the source.
func NewOptionCache(source OptionSource, versioned *cache.Versioned, table string, logger *slog.Logger) *OptionCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &OptionCache{source: source, cache: versioned, table: table, logger: logger}
}

// Load returns cached options, loading both lists concurrently on a miss.
// Concurrent misses share one load.
func (c *OptionCache) Load(ctx context.Context) (Options, error) {
	key, err := c.cache.BuildKey(ctx, "options", c.table)
	if err != nil {
		c.logger.Warn("options cache key", slog.Any("error", err))
		return c.fetch(ctx)
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		var opts Options
		err := c.cache.FetchJSON(ctx, key, &opts, func(ctx context.Context) (any, error) {
			return c.fetch(ctx)
		})
		return opts, err
	})
	if err != nil {
		return Options{}, err
	}
	return v.(Options), nil
}

// Refresh reloads from the source and overwrites the current cache entry.
func (c *OptionCache) Refresh(ctx context.Context) (Options, error) {
	opts, err := c.fetch(ctx)
	if err != nil {
		return Options{}, err
	}
	key, err := c.cache.BuildKey(ctx, "options", c.table)
	if err != nil {
		return opts, fmt.Errorf("salesloc: options cache key: %w", err)
	}
	if err := c.cache.Store(ctx, key, opts); err != nil {
		return opts, fmt.Errorf("salesloc: store options: %w", err)
	}
	return opts, nil
}

// Invalidate drops every cached option list, e.g. after an import.
func (c *OptionCache) Invalidate(ctx context.Context) error {
	return c.cache.Bump(ctx)
}

func (c *OptionCache) fetch(ctx context.Context) (Options, error) {
	var opts Options
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products, err := c.source.Products(gctx)
		opts.Products = products
		return err
	})
	g.Go(func() error {
		locations, err := c.source.Locations(gctx)
		opts.Locations = locations
		return err
	})
	if err := g.Wait(); err != nil {
		return Options{}, err
	}
	if opts.Products == nil {
		opts.Products = []ProductRef{}
	}
	if opts.Locations == nil {
		opts.Locations = []string{}
	}
	return opts, nil
}
