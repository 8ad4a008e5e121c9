package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/cybercaja/cybercaja/internal/app"
	"github.com/cybercaja/cybercaja/internal/dailylog"
	"github.com/cybercaja/cybercaja/internal/debt"
	"github.com/cybercaja/cybercaja/internal/expense"
	"github.com/cybercaja/cybercaja/internal/history"
	"github.com/cybercaja/cybercaja/internal/observability"
	"github.com/cybercaja/cybercaja/internal/platform/cache"
	"github.com/cybercaja/cybercaja/internal/platform/db"
	"github.com/cybercaja/cybercaja/internal/reconcile"
	"github.com/cybercaja/cybercaja/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	historyCache := history.NewCache(redisClient, cfg.HistoryCacheTTL)
	policy := reconcile.PolicyByName(cfg.ReconcilePolicy)

	logRepo := dailylog.NewRepository(pool)
	expenseRepo := expense.NewRepository(pool)
	debtRepo := debt.NewRepository(pool)
	historyService := history.NewService(logRepo, expenseRepo, debtRepo, policy, historyCache)

	metrics := observability.NewMetrics()
	warmupJob := jobs.NewHistoryWarmupJob(historyService, logger, metrics)

	nightlyWarmup, err := jobs.NewHistoryWarmupTask(jobs.HistoryWarmupPayload{})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeHistoryWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			// 06:15 UTC is 01:15 in Lima, after the night shift closes.
			{Spec: "15 6 * * *", Task: nightlyWarmup, Options: []asynq.Option{asynq.MaxRetry(3)}},
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
