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
	"golang.org/x/sync/errgroup"

	"github.com/haiderali7066/Grocery-store-ERP/internal/app"
	"github.com/haiderali7066/Grocery-store-ERP/internal/catalog"
	"github.com/haiderali7066/Grocery-store-ERP/internal/inventory"
	"github.com/haiderali7066/Grocery-store-ERP/internal/observability"
	"github.com/haiderali7066/Grocery-store-ERP/internal/platform/cache"
	"github.com/haiderali7066/Grocery-store-ERP/internal/platform/db"
	"github.com/haiderali7066/Grocery-store-ERP/internal/pos"
	"github.com/haiderali7066/Grocery-store-ERP/internal/refunds"
	"github.com/haiderali7066/Grocery-store-ERP/internal/reporting"
	"github.com/haiderali7066/Grocery-store-ERP/internal/shared"
	"github.com/haiderali7066/Grocery-store-ERP/internal/wallet"
	"github.com/haiderali7066/Grocery-store-ERP/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	auditLogger := shared.NewAuditLogger(dbpool)
	approvalRecorder := shared.NewApprovalRecorder(dbpool, logger)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)
	haltGuard := shared.NewHaltGuard()

	catalogRepo := catalog.NewRepository(dbpool)
	catalogService := catalog.NewService(catalogRepo, auditLogger)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	inventoryRepo := inventory.NewRepository(dbpool)
	inventoryService := inventory.NewService(inventoryRepo, auditLogger, haltGuard)
	inventoryHandler := inventory.NewHandler(logger, inventoryService)

	walletRepo := wallet.NewRepository(dbpool)
	walletService := wallet.NewService(walletRepo, auditLogger, haltGuard)
	walletHandler := wallet.NewHandler(logger, walletService)

	queueClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	reportingRepo := reporting.NewRepository(dbpool)
	reportingCache := reporting.NewCache(redisClient, cfg.CacheTTL)
	reportingService := reporting.NewService(reportingRepo, reportingCache)
	reportingHandler := reporting.NewHandler(logger, reportingService)

	if err := reportingCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("reporting cache subscribe", slog.Any("error", err))
	}

	posRepo := pos.NewRepository(dbpool)
	posService := pos.NewService(posRepo, catalogService, inventoryService, walletService, queueClient, idempotencyStore, auditLogger, reportingService, logger)
	posHandler := pos.NewHandler(logger, posService, metrics)

	refundsRepo := refunds.NewRepository(dbpool)
	refundsService := refunds.NewService(refundsRepo, walletService, approvalRecorder, auditLogger, reportingService, logger)
	refundsHandler := refunds.NewHandler(logger, refundsService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		CatalogHandler:   catalogHandler,
		InventoryHandler: inventoryHandler,
		POSHandler:       posHandler,
		RefundsHandler:   refundsHandler,
		WalletHandler:    walletHandler,
		ReportingHandler: reportingHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if err := group.Wait(); err != nil {
		logger.Error("http server", slog.Any("error", err))
		os.Exit(1)
	}
}
