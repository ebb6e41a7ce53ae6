package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/tantu-erp/tantu/internal/jobs"
	"github.com/tantu-erp/tantu/internal/shared"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// OverdueSweeper is satisfied by billing.Service.
type OverdueSweeper interface {
	MarkOverdue(ctx context.Context, today shared.Date) (int64, error)
}

// MarkOverdueJob runs the daily overdue sweep.
type MarkOverdueJob struct {
	Sweeper OverdueSweeper
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewMarkOverdueJob wires dependencies for the sweep handler.
func NewMarkOverdueJob(sweeper OverdueSweeper, logger *slog.Logger, metrics *jobmetrics.Metrics) *MarkOverdueJob {
	return &MarkOverdueJob{Sweeper: sweeper, Logger: logger, Metrics: metrics}
}

// Handle processes TaskMarkOverdue tasks. The sweep is a single idempotent
// statement so retries are safe.
func (j *MarkOverdueJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Sweeper == nil {
		return errors.New("mark overdue: handler not configured")
	}
	var payload MarkOverduePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	tracker := j.metrics().Track(TaskMarkOverdue)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	start := time.Now()
	logger := j.logger()
	n, err := j.Sweeper.MarkOverdue(ctx, payload.Today)
	if err != nil {
		resultErr = err
		logger.Error("overdue sweep failed", slog.Any("error", err))
		return resultErr
	}
	j.metrics().AddAffected(TaskMarkOverdue, n)
	logger.Info("completed overdue sweep", slog.Int64("marked", n), slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *MarkOverdueJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskMarkOverdue))
	}
	return slog.Default().With(slog.String("job", TaskMarkOverdue))
}

func (j *MarkOverdueJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
