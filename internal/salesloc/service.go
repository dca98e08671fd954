package salesloc

import (
	"context"
	"log/slog"
	"time"
)

// Request is the explicit per-request scope for one report run.
type Request struct {
	Criteria FilterCriteria
	Options  Options
	Logger   *slog.Logger
}

// Service chains builder, executor and summary.
type Service struct {
	builder  *Builder
	executor *Executor
	options  *OptionCache
}

// NewService constructs the report service.
func NewService(builder *Builder, executor *Executor, options *OptionCache) *Service {
	return &Service{builder: builder, executor: executor, options: options}
}

// Options returns the selector values for the filter form.
func (s *Service) Options(ctx context.Context) (Options, error) {
	if s.options == nil {
		return Options{Products: []ProductRef{}, Locations: []string{}}, nil
	}
	return s.options.Load(ctx)
}

// Run builds, executes and summarizes. Invalid criteria fail before any
// connection is acquired; a failed query yields no partial result.
func (s *Service) Run(ctx context.Context, req Request) (Result, error) {
	logger := req.Logger
	if logger == nil {
		logger = slog.Default()
	}

	q, err := s.builder.Build(req.Criteria)
	if err != nil {
		logger.Debug("rejected sales by location filter", slog.Any("error", err))
		return Result{}, err
	}

	start := time.Now()
	rows, err := s.executor.Execute(ctx, q)
	if err != nil {
		logger.Error("sales by location query", slog.Any("error", err), slog.Duration("elapsed", time.Since(start)))
		return Result{}, err
	}
	logger.Info("sales by location query",
		slog.String("date_field", string(req.Criteria.DateField)),
		slog.Int("products", len(req.Criteria.Products)),
		slog.Int("locations", len(req.Criteria.Locations)),
		slog.Int("rows", len(rows)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return Result{Criteria: req.Criteria, Rows: rows, Summary: Summarize(rows)}, nil
}
