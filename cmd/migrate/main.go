package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/salesboard/salesboard/internal/app"
	"github.com/salesboard/salesboard/internal/platform/db"
	"github.com/salesboard/salesboard/internal/platform/migrate"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: migrate [up|down|status]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	command := migrate.CommandUp
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}
	switch command {
	case migrate.CommandUp, migrate.CommandDown, migrate.CommandStatus:
	default:
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.Database())
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer func() { _ = sqlDB.Close() }()

	if err := migrate.Run(ctx, sqlDB, command, flag.Args()[min(1, flag.NArg()):]...); err != nil {
		logger.Error("migrate", slog.String("command", command), slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("migrate finished", slog.String("command", command))
}
