package app

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/salesboard/salesboard/internal/platform/cache"
	"github.com/salesboard/salesboard/internal/platform/db"
	"github.com/salesboard/salesboard/internal/salesloc"
)

// OptionsCacheNamespace prefixes every filter-option cache key.
const OptionsCacheNamespace = "salesloc"

// SalesLoc bundles the report service with its option cache.
type SalesLoc struct {
	Builder *salesloc.Builder
	Options *salesloc.OptionCache
	Service *salesloc.Service
	Cache   *cache.Versioned
}

// NewSalesLoc wires the sales-by-location report over the pool and Redis.
// observer may be nil.
func NewSalesLoc(cfg *Config, pool *pgxpool.Pool, redisClient *redis.Client, observer salesloc.QueryObserver, logger *slog.Logger) (*SalesLoc, error) {
	builder, err := salesloc.NewBuilder(cfg.FactTable)
	if err != nil {
		return nil, err
	}
	connector := db.PoolConnector{Pool: pool}
	versioned := cache.NewVersioned(redisClient, OptionsCacheNamespace, cfg.OptionsCacheTTL)
	options := salesloc.NewOptionCache(salesloc.NewOptionRepository(connector, builder), versioned, builder.Table(), logger)
	return &SalesLoc{
		Builder: builder,
		Options: options,
		Service: salesloc.NewService(builder, salesloc.NewExecutor(connector, observer), options),
		Cache:   versioned,
	}, nil
}
