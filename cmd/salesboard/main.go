package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/salesboard/salesboard/internal/app"
	"github.com/salesboard/salesboard/internal/connection"
	"github.com/salesboard/salesboard/internal/dashboard"
	"github.com/salesboard/salesboard/internal/dataimport"
	"github.com/salesboard/salesboard/internal/explorer"
	"github.com/salesboard/salesboard/internal/observability"
	"github.com/salesboard/salesboard/internal/platform/cache"
	"github.com/salesboard/salesboard/internal/platform/db"
	"github.com/salesboard/salesboard/internal/platform/migrate"
	saleslochttp "github.com/salesboard/salesboard/internal/salesloc/http"
	"github.com/salesboard/salesboard/internal/shared"
	"github.com/salesboard/salesboard/internal/splitcv"
	"github.com/salesboard/salesboard/internal/view"
	"github.com/salesboard/salesboard/jobs"
	"github.com/salesboard/salesboard/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.Database())
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err), slog.String("host", cfg.Database().Redacted().Host))
		os.Exit(1)
	}
	defer dbpool.Close()

	if cfg.AutoMigrate {
		if err := migrate.UpFromPool(ctx, dbpool); err != nil {
			logger.Error("auto migrate", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("migrations applied")
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "salesboard_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	salesLoc, err := app.NewSalesLoc(cfg, dbpool, redisClient, metrics, logger)
	if err != nil {
		logger.Error("init sales-by-location report", slog.Any("error", err))
		os.Exit(1)
	}
	go func() {
		err := salesLoc.Cache.ListenForInvalidation(ctx, func(version int64) {
			logger.Info("filter options invalidated", slog.Int64("version", version))
		})
		if err != nil && ctx.Err() == nil {
			logger.Warn("listen for option invalidation", slog.Any("error", err))
		}
	}()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	pdfClient := report.NewClient(cfg.GotenbergURL)
	connector := db.PoolConnector{Pool: dbpool}

	dashboardRepo, err := dashboard.NewRepository(connector, cfg.FactTable)
	if err != nil {
		logger.Error("init dashboard", slog.Any("error", err))
		os.Exit(1)
	}

	importer := dataimport.NewImporter(dbpool, cfg.FactTable, jobs.InvalidateAndWarm{
		Cache:    salesLoc.Options,
		Enqueuer: jobClient,
		Logger:   logger,
	}, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Templates:         templates,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		SalesLocHandler:   saleslochttp.NewHandler(logger, salesLoc.Service, templates, pdfClient),
		DashboardHandler:  dashboard.NewHandler(logger, dashboardRepo, templates, cfg.DashboardSampleLimit),
		ConnectionHandler: connection.NewHandler(logger, connection.NewChecker(connector), templates, cfg.Database()),
		ImportHandler:     dataimport.NewHandler(logger, importer, templates, cfg.ImportMaxBytes),
		ExplorerHandler:   explorer.NewHandler(logger, explorer.New(connector, dbpool, cfg.SQLMaxRows), templates),
		SplitCVHandler:    splitcv.NewHandler(logger, templates),
		ReportHandler:     report.NewHandler(pdfClient, logger),
		JobHandler:        jobs.NewHandler(inspector, logger),
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
