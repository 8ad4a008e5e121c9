package jobs

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeHistoryWarmup re-aggregates one month of history into the cache.
	TaskTypeHistoryWarmup = "history:warmup"
)

// HistoryWarmupPayload names the month to re-aggregate. Month is
// 1-based, matching time.Month.
type HistoryWarmupPayload struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// NewHistoryWarmupTask constructs an Asynq task.
func NewHistoryWarmupTask(payload HistoryWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeHistoryWarmup, data), nil
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	client := asynq.NewClient(redisOpts)
	return &Client{client: client}, nil
}

// EnqueueMonthWarmup schedules a month re-aggregation. Duplicate tasks
// for the same month collapse onto one queue entry while it is pending.
func (c *Client) EnqueueMonthWarmup(ctx context.Context, year int, month int) error {
	task, err := NewHistoryWarmupTask(HistoryWarmupPayload{Year: year, Month: month})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueDefault),
		asynq.TaskID(taskID(year, month)),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}

func taskID(year, month int) string {
	payload := HistoryWarmupPayload{Year: year, Month: month}
	data, _ := json.Marshal(payload)
	return TaskTypeHistoryWarmup + ":" + string(data)
}
