package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/tantu-erp/tantu/internal/jobs"
	"github.com/tantu-erp/tantu/internal/shared"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeSweeper struct {
	got shared.Date
	n   int64
	err error
}

func (f *fakeSweeper) MarkOverdue(_ context.Context, today shared.Date) (int64, error) {
	f.got = today
	return f.n, f.err
}

func TestMarkOverdueJobPassesDate(t *testing.T) {
	sweeper := &fakeSweeper{n: 3}
	job := NewMarkOverdueJob(sweeper, quietLogger, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	day, err := shared.ParseDate("2024-07-01")
	require.NoError(t, err)
	task, err := NewMarkOverdueTask(day)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, day, sweeper.got)

	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskMarkOverdue, nil)))
	assert.True(t, sweeper.got.IsZero())
}

func TestMarkOverdueJobErrors(t *testing.T) {
	sweeper := &fakeSweeper{err: errors.New("db down")}
	job := NewMarkOverdueJob(sweeper, quietLogger, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	err := job.Handle(context.Background(), asynq.NewTask(TaskMarkOverdue, []byte(`{}`)))
	assert.EqualError(t, err, "db down")

	err = job.Handle(context.Background(), asynq.NewTask(TaskMarkOverdue, []byte(`{"today":"soon"}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	var unset *MarkOverdueJob
	assert.Error(t, unset.Handle(context.Background(), asynq.NewTask(TaskMarkOverdue, nil)))
}

type fakePruner struct {
	olderThan time.Duration
}

func (f *fakePruner) Cleanup(_ context.Context, olderThan time.Duration) (int64, error) {
	f.olderThan = olderThan
	return 2, nil
}

func TestIdempotencyCleanupRetention(t *testing.T) {
	pruner := &fakePruner{}
	job := NewIdempotencyCleanupJob(pruner, quietLogger, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewIdempotencyCleanupTask(48 * time.Hour)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 48*time.Hour, pruner.olderThan)

	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskIdempotencyCleanup, nil)))
	assert.Equal(t, defaultRetention, pruner.olderThan)
}

type fakeEnqueuer struct {
	payload MarkOverduePayload
	err     error
}

func (f *fakeEnqueuer) EnqueueMarkOverdue(_ context.Context, payload MarkOverduePayload) (*asynq.TaskInfo, error) {
	f.payload = payload
	if f.err != nil {
		return nil, f.err
	}
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueDefault}, nil
}

type fakeInspector struct {
	pending int
	err     error
}

func (f fakeInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &asynq.QueueInfo{Queue: queue, Pending: f.pending}, nil
}

func serve(h *Handler, method, target string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.MountRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestJobsHandler(t *testing.T) {
	rec := serve(NewHandler(nil, nil, quietLogger), http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0}`, rec.Body.String())

	rec = serve(NewHandler(fakeInspector{pending: 4}, nil, quietLogger), http.MethodGet, "/health")
	assert.JSONEq(t, `{"queue":"default","pending":4}`, rec.Body.String())

	rec = serve(NewHandler(fakeInspector{err: errors.New("redis gone")}, nil, quietLogger), http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = serve(NewHandler(nil, nil, quietLogger), http.MethodPost, "/mark-overdue")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	enq := &fakeEnqueuer{}
	rec = serve(NewHandler(nil, enq, quietLogger), http.MethodPost, "/mark-overdue?today=2024-07-01")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "2024-07-01", enq.payload.Today.String())
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "task-1", body["task_id"])

	rec = serve(NewHandler(nil, &fakeEnqueuer{err: asynq.ErrDuplicateTask}, quietLogger), http.MethodPost, "/mark-overdue")
	assert.Equal(t, http.StatusConflict, rec.Code)
}
