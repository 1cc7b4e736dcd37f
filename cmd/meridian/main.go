package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-pharma/meridian-erp/internal/app"
	"github.com/meridian-pharma/meridian-erp/internal/coa"
	"github.com/meridian-pharma/meridian-erp/internal/finance"
	"github.com/meridian-pharma/meridian-erp/internal/importcost"
	"github.com/meridian-pharma/meridian-erp/internal/integration"
	"github.com/meridian-pharma/meridian-erp/internal/inventory"
	"github.com/meridian-pharma/meridian-erp/internal/ledger"
	"github.com/meridian-pharma/meridian-erp/internal/observability"
	"github.com/meridian-pharma/meridian-erp/internal/platform/cache"
	"github.com/meridian-pharma/meridian-erp/internal/platform/db"
	"github.com/meridian-pharma/meridian-erp/internal/procurement"
	"github.com/meridian-pharma/meridian-erp/internal/sales"
	"github.com/meridian-pharma/meridian-erp/internal/shared"
	"github.com/meridian-pharma/meridian-erp/jobs"
	"github.com/meridian-pharma/meridian-erp/report"
)

func main() {
	if app.InTestMode() {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unreachable, account cache disabled", "error", err)
		redisClient = nil
	} else {
		defer func() { _ = redisClient.Close() }()
	}

	metrics := observability.NewMetrics()
	auditLog := shared.NewAuditLogger(pool)

	accountRepo := coa.NewRepository(pool)
	accounts := coa.NewResolver(accountRepo, redisClient, logger)

	ledgerRepo := ledger.NewRepository(pool)
	ledgerSvc := ledger.NewService(ledgerRepo, auditLog)

	hooks := integration.NewHooks(ledgerSvc, accounts, logger, metrics.PostingFailures())

	inventoryRepo := inventory.NewRepository(pool)
	inventorySvc := inventory.NewService(inventoryRepo, logger)

	basis := importcost.AllocationBasis(cfg.AllocationBasis)
	if !basis.Valid() {
		logger.Warn("unknown allocation basis, falling back to value", "basis", cfg.AllocationBasis)
		basis = importcost.BasisValue
	}
	importcostSvc := importcost.NewService(importcost.NewRepository(pool), basis, logger)

	financeSvc := finance.NewService(finance.NewRepository(pool), hooks, auditLog)
	procurementSvc := procurement.NewService(procurement.NewRepository(pool), hooks, logger)

	salesRepo := sales.NewRepository(pool)
	salesSvc := sales.NewService(salesRepo, inventorySvc, procurementSvc, hooks, logger)

	reportHandler, err := report.NewHandler(report.NewClient(cfg.GotenbergURL), logger, salesRepo)
	if err != nil {
		logger.Error("build report handler", "error", err)
		os.Exit(1)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() { _ = inspector.Close() }()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		FinanceHandler:     finance.NewHandler(logger, financeSvc, shared.NewIdempotencyStore(pool)),
		SalesHandler:       sales.NewHandler(logger, salesSvc),
		ProcurementHandler: procurement.NewHandler(logger, procurementSvc),
		InventoryHandler:   inventory.NewHandler(logger, inventoryRepo, inventorySvc),
		ImportCostHandler:  importcost.NewHandler(logger, importcostSvc),
		LedgerHandler:      ledger.NewHandler(logger, ledgerSvc),
		ReportHandler:      reportHandler,
		JobHandler:         jobs.NewHandler(inspector, logger),
		Metrics:            metrics,
	})

	srv := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server listening", "addr", cfg.AppAddr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}
