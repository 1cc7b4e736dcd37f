package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/meridian-pharma/meridian-erp/internal/app"
	"github.com/meridian-pharma/meridian-erp/internal/coa"
	"github.com/meridian-pharma/meridian-erp/internal/finance"
	"github.com/meridian-pharma/meridian-erp/internal/importcost"
	"github.com/meridian-pharma/meridian-erp/internal/integration"
	"github.com/meridian-pharma/meridian-erp/internal/inventory"
	jobmetrics "github.com/meridian-pharma/meridian-erp/internal/jobs"
	"github.com/meridian-pharma/meridian-erp/internal/ledger"
	"github.com/meridian-pharma/meridian-erp/internal/platform/cache"
	"github.com/meridian-pharma/meridian-erp/internal/platform/db"
	"github.com/meridian-pharma/meridian-erp/internal/shared"
	"github.com/meridian-pharma/meridian-erp/jobs"
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

	metrics := jobmetrics.NewMetrics(nil)
	auditLog := shared.NewAuditLogger(pool)

	accountRepo := coa.NewRepository(pool)
	accounts := coa.NewResolver(accountRepo, redisClient, logger)

	ledgerSvc := ledger.NewService(ledger.NewRepository(pool), auditLog)
	hooks := integration.NewHooks(ledgerSvc, accounts, logger, nil)

	financeSvc := finance.NewService(finance.NewRepository(pool), hooks, auditLog)
	inventorySvc := inventory.NewService(inventory.NewRepository(pool), logger)

	basis := importcost.AllocationBasis(cfg.AllocationBasis)
	if !basis.Valid() {
		basis = importcost.BasisValue
	}
	importcostSvc := importcost.NewService(importcost.NewRepository(pool), basis, logger)

	integrityJob := jobs.NewLedgerIntegrityJob(ledgerSvc, logger, metrics)
	unpostedJob := jobs.NewUnpostedScanJob(financeSvc, logger, metrics)
	recountJob := jobs.NewStockRecountJob(pool, inventorySvc, logger, metrics)
	reallocateJob := jobs.NewReallocateContainersJob(importcostSvc, logger, metrics)

	cron, err := jobs.DefaultCron()
	if err != nil {
		logger.Error("build cron schedule", "error", err)
		os.Exit(1)
	}
	for i := range cron {
		cron[i].Options = append(cron[i].Options, asynq.MaxRetry(3))
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLedgerIntegrity, Handler: integrityJob.Handle},
			{Type: jobs.TaskUnpostedScan, Handler: unpostedJob.Handle},
			{Type: jobs.TaskStockRecount, Handler: recountJob.Handle},
			{Type: jobs.TaskReallocateContainers, Handler: reallocateJob.Handle},
		},
		Cron: cron,
	})
	if err != nil {
		logger.Error("build worker", "error", err)
		os.Exit(1)
	}

	logger.Info("worker starting", "redis", cfg.RedisAddr)
	if err := worker.Run(ctx); err != nil {
		logger.Error("worker stopped", "error", err)
		os.Exit(1)
	}
}
