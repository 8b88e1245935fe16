package stamper

import "github.com/ygrebnov/stamper/metrics"

// Instrument names shared by both dispatch strategies.
const (
	MetricTasksEnqueued  = "tasks_enqueued_total"
	MetricTasksProcessed = "tasks_processed_total"
	MetricTasksFailed    = "tasks_failed_total"
	MetricWorkersLive    = "workers_live"
	MetricTaskDuration   = "task_duration_seconds"
)

type instruments struct {
	enqueued  metrics.Counter
	processed metrics.Counter
	failed    metrics.Counter
	live      metrics.UpDownCounter
	duration  metrics.Histogram
}

func newInstruments(p metrics.Provider) instruments {
	return instruments{
		enqueued: p.Counter(MetricTasksEnqueued,
			metrics.WithDescription("Tasks accepted for execution."), metrics.WithUnit("1")),
		processed: p.Counter(MetricTasksProcessed,
			metrics.WithDescription("Tasks executed to completion, failed or not."), metrics.WithUnit("1")),
		failed: p.Counter(MetricTasksFailed,
			metrics.WithDescription("Tasks that returned an error."), metrics.WithUnit("1")),
		live: p.UpDownCounter(MetricWorkersLive,
			metrics.WithDescription("Workers or executors currently running."), metrics.WithUnit("1")),
		duration: p.Histogram(MetricTaskDuration,
			metrics.WithDescription("Wall time of a single task."), metrics.WithUnit("seconds")),
	}
}
