// Package cli holds operator commands bundled into the tantu binary.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"github.com/tantu-erp/tantu/internal/shared"
	"github.com/tantu-erp/tantu/jobs"
)

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

type queueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
	Close() error
}

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    enqueuer
	inspector queueInspector
}

// NewJobsCLI initialises the CLI helpers using the provided Redis address.
func NewJobsCLI(redisAddr string) *JobsCLI {
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	return &JobsCLI{client: asynq.NewClient(opts), inspector: asynq.NewInspector(opts)}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// TriggerOptions parameterise a manual job run.
type TriggerOptions struct {
	Today     shared.Date
	Retention time.Duration
}

// Trigger enqueues a supported job by name.
func (c *JobsCLI) Trigger(ctx context.Context, name string, opts TriggerOptions) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	var task *asynq.Task
	var err error
	switch name {
	case jobs.TaskMarkOverdue:
		task, err = jobs.NewMarkOverdueTask(opts.Today)
	case jobs.TaskIdempotencyCleanup:
		task, err = jobs.NewIdempotencyCleanupTask(opts.Retention)
	default:
		return nil, fmt.Errorf("jobs cli: unsupported job %s", name)
	}
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(jobs.QueueDefault), asynq.MaxRetry(3))
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string `json:"queue"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
}

// InspectQueue reports the queue metrics for the default queue.
func (c *JobsCLI) InspectQueue() (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
	}
	return stats, nil
}

// Run executes `jobs trigger <name> [-today YYYY-MM-DD] [-retention 720h]`
// or `jobs stats` and returns the process exit code.
func (c *JobsCLI) Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	if len(args) == 0 {
		_, _ = fmt.Fprintln(stderr, "usage: tantu jobs <trigger|stats> ...")
		return 2
	}
	switch args[0] {
	case "stats":
		stats, err := c.InspectQueue()
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "jobs stats: %v\n", err)
			return 1
		}
		_ = json.NewEncoder(stdout).Encode(stats)
		return 0
	case "trigger":
		fs := flag.NewFlagSet("jobs trigger", flag.ContinueOnError)
		fs.SetOutput(stderr)
		today := fs.String("today", "", "sweep date (YYYY-MM-DD), defaults to the worker's date")
		retention := fs.Duration("retention", 0, "idempotency key retention")
		if len(args) < 2 {
			_, _ = fmt.Fprintln(stderr, "usage: tantu jobs trigger <job> [flags]")
			return 2
		}
		if err := fs.Parse(args[2:]); err != nil {
			return 2
		}
		opts := TriggerOptions{Retention: *retention}
		if *today != "" {
			d, err := shared.ParseDate(*today)
			if err != nil {
				_, _ = fmt.Fprintf(stderr, "jobs trigger: %v\n", err)
				return 2
			}
			opts.Today = d
		}
		info, err := c.Trigger(ctx, args[1], opts)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "jobs trigger: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintf(stdout, "enqueued %s as %s on %s\n", args[1], info.ID, info.Queue)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "jobs: unknown command %q\n", args[0])
		return 2
	}
}
