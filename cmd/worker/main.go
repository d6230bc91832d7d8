package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/haiderali7066/Grocery-store-ERP/internal/app"
	"github.com/haiderali7066/Grocery-store-ERP/internal/fbr"
	jobmetrics "github.com/haiderali7066/Grocery-store-ERP/internal/jobs"
	"github.com/haiderali7066/Grocery-store-ERP/internal/platform/db"
	"github.com/haiderali7066/Grocery-store-ERP/internal/pos"
	"github.com/haiderali7066/Grocery-store-ERP/internal/reporting"
	"github.com/haiderali7066/Grocery-store-ERP/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := jobmetrics.NewMetrics(nil)

	posRepo := pos.NewRepository(pool)
	fbrClient := fbr.NewClient(cfg.FBRBaseURL, cfg.FBRToken)
	submitter := jobs.NewFBRSubmitter(posRepo, fbrClient, logger, metrics)

	reportingRepo := reporting.NewRepository(pool)
	lowStockScanner := jobs.NewLowStockScanner(reportingRepo, logger, metrics)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskFBRSubmit, Handler: submitter.Handle},
			{Type: jobs.TaskLowStockScan, Handler: lowStockScanner.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.LowStockCron, Task: jobs.NewLowStockScanTask(), Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
