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

	"github.com/cybercaja/cybercaja/internal/app"
	"github.com/cybercaja/cybercaja/internal/auth"
	"github.com/cybercaja/cybercaja/internal/dailylog"
	"github.com/cybercaja/cybercaja/internal/dashboard"
	"github.com/cybercaja/cybercaja/internal/debt"
	"github.com/cybercaja/cybercaja/internal/expense"
	"github.com/cybercaja/cybercaja/internal/history"
	"github.com/cybercaja/cybercaja/internal/observability"
	"github.com/cybercaja/cybercaja/internal/platform/cache"
	"github.com/cybercaja/cybercaja/internal/platform/db"
	"github.com/cybercaja/cybercaja/internal/reconcile"
	"github.com/cybercaja/cybercaja/internal/shared"
	"github.com/cybercaja/cybercaja/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
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

	sessionManager := shared.NewSessionManager(redisClient, "cybercaja_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	auditLogger := shared.NewAuditLogger(dbpool)
	historyCache := history.NewCache(redisClient, cfg.HistoryCacheTTL)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("asynq client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	logRepo := dailylog.NewRepository(dbpool)
	logService := dailylog.NewService(logRepo, historyCache, jobClient, auditLogger, logger)
	logHandler := dailylog.NewHandler(logger, logService)

	expenseRepo := expense.NewRepository(dbpool)
	expenseService := expense.NewService(expenseRepo, historyCache, jobClient, auditLogger, logger)
	expenseHandler := expense.NewHandler(logger, expenseService)

	debtRepo := debt.NewRepository(dbpool)
	debtService := debt.NewService(debtRepo, historyCache, jobClient, auditLogger, logger, nil)
	debtHandler := debt.NewHandler(logger, debtService)

	policy := reconcile.PolicyByName(cfg.ReconcilePolicy)
	historyService := history.NewService(logRepo, expenseRepo, debtRepo, policy, historyCache)
	historyHandler := history.NewHandler(logger, historyService)

	dashboardService := dashboard.NewService(historyService)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		AuthHandler:      authHandler,
		DailyLogHandler:  logHandler,
		ExpenseHandler:   expenseHandler,
		DebtHandler:      debtHandler,
		HistoryHandler:   historyHandler,
		DashboardHandler: dashboardHandler,
		JobsHandler:      jobsHandler,
		Metrics:          metrics,
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
