package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/salesboard/salesboard/internal/jobs"
	"github.com/salesboard/salesboard/internal/salesloc"
)

const warmupTimeout = 2 * time.Minute

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// OptionsRefresher reloads option lists from the database and stores them.
type OptionsRefresher interface {
	Refresh(ctx context.Context) (salesloc.Options, error)
}

// OptionsWarmupJob keeps the cached filter options populated.
type OptionsWarmupJob struct {
	Refresher OptionsRefresher
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewOptionsWarmupJob wires dependencies for the warmup handler.
func NewOptionsWarmupJob(refresher OptionsRefresher, logger *slog.Logger, metrics *jobmetrics.Metrics) *OptionsWarmupJob {
	return &OptionsWarmupJob{Refresher: refresher, Logger: logger, Metrics: metrics}
}

// Handle processes TaskOptionsWarmup tasks.
func (j *OptionsWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Refresher == nil {
		return errors.New("options warmup: handler not configured")
	}
	var payload OptionsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("options warmup: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Reason == "" {
		payload.Reason = ReasonSchedule
	}

	tracker := j.metrics().Track(TaskOptionsWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("reason", payload.Reason))
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, warmupTimeout)
	defer cancel()

	opts, err := j.Refresher.Refresh(ctx)
	if err != nil {
		logger.Error("refresh filter options", slog.Any("error", err))
		return err
	}
	j.metrics().SetOptionEntries("products", len(opts.Products))
	j.metrics().SetOptionEntries("locations", len(opts.Locations))

	logger.Info("filter options warmed",
		slog.Int("products", len(opts.Products)),
		slog.Int("locations", len(opts.Locations)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *OptionsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskOptionsWarmup))
	}
	return slog.Default().With(slog.String("job", TaskOptionsWarmup))
}

func (j *OptionsWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

// CacheInvalidator drops cached option lists.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// WarmupEnqueuer schedules an option warmup.
type WarmupEnqueuer interface {
	EnqueueOptionsWarmup(ctx context.Context, reason string) (*asynq.TaskInfo, error)
}

// InvalidateAndWarm bumps the option cache and queues a warmup so the next
// page load finds fresh lists.
type InvalidateAndWarm struct {
	Cache    CacheInvalidator
	Enqueuer WarmupEnqueuer
	Logger   *slog.Logger
}

// Invalidate implements dataimport.Invalidator.
func (w InvalidateAndWarm) Invalidate(ctx context.Context) error {
	if err := w.Cache.Invalidate(ctx); err != nil {
		return err
	}
	if w.Enqueuer == nil {
		return nil
	}
	if _, err := w.Enqueuer.EnqueueOptionsWarmup(ctx, ReasonImport); err != nil && w.Logger != nil {
		w.Logger.Warn("enqueue options warmup", slog.Any("error", err))
	}
	return nil
}
