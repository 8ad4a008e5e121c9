package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/cybercaja/cybercaja/internal/bizdate"
	"github.com/cybercaja/cybercaja/internal/history"
	"github.com/cybercaja/cybercaja/internal/observability"
)

// HistoryWarmupJob re-aggregates one month and leaves the result in the
// cache so the next history request is served warm.
type HistoryWarmupJob struct {
	History *history.Service
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// NewHistoryWarmupJob wires dependencies for the warmup handler.
func NewHistoryWarmupJob(historySvc *history.Service, logger *slog.Logger, metrics *observability.Metrics) *HistoryWarmupJob {
	return &HistoryWarmupJob{History: historySvc, Logger: logger, Metrics: metrics}
}

// Handle processes TaskTypeHistoryWarmup tasks.
func (j *HistoryWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.History == nil {
		return errors.New("history warmup: handler not configured")
	}
	var payload HistoryWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Year == 0 && payload.Month == 0 {
		// Cron entries enqueue an empty payload meaning "the month in
		// progress right now".
		today := bizdate.Today()
		payload.Year = today.Year
		payload.Month = int(today.Month)
	}
	if payload.Year < 2000 || payload.Month < 1 || payload.Month > 12 {
		return asynq.SkipRetry
	}

	logger := j.logger().With(slog.Int("year", payload.Year), slog.Int("month", payload.Month))
	start := time.Now()

	warmCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	if _, err := j.History.Aggregate(warmCtx, payload.Year, time.Month(payload.Month)); err != nil {
		j.Metrics.ObserveJob(TaskTypeHistoryWarmup, "error")
		logger.Error("history warmup failed", slog.Any("error", err))
		return err
	}

	j.Metrics.ObserveJob(TaskTypeHistoryWarmup, "ok")
	logger.Info("history warmup done", slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *HistoryWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeHistoryWarmup))
	}
	return slog.Default().With(slog.String("job", TaskTypeHistoryWarmup))
}
