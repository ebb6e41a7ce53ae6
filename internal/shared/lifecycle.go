package shared

// LifecycleRecorder receives order, delivery and bill state changes.
type LifecycleRecorder interface {
	RecordLifecycle(entity, event string, n int)
}

type nopRecorder struct{}

func (nopRecorder) RecordLifecycle(string, string, int) {}

// NopRecorder discards lifecycle events.
var NopRecorder LifecycleRecorder = nopRecorder{}
