package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/tantu-erp/tantu/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskMarkOverdue sweeps open bills past their due date to overdue.
	TaskMarkOverdue = "billing:mark_overdue"
	// TaskIdempotencyCleanup prunes old payment idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// MarkOverduePayload pins the sweep to a calendar day. A zero Today means
// the worker's current date.
type MarkOverduePayload struct {
	Today shared.Date `json:"today"`
}

// NewMarkOverdueTask constructs an Asynq task.
func NewMarkOverdueTask(today shared.Date) (*asynq.Task, error) {
	data, err := json.Marshal(MarkOverduePayload{Today: today})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMarkOverdue, data), nil
}

// IdempotencyCleanupPayload controls how long keys are retained.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

const defaultRetention = 30 * 24 * time.Hour

// NewIdempotencyCleanupTask constructs an Asynq task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(IdempotencyCleanupPayload{RetentionHours: int(retention / time.Hour)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}
