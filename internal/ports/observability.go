package ports

import "context"

// Metric names recorded by the loader.
const (
	// MetricLoadJobs counts finished jobs by status (published|empty|failed|cancelled).
	MetricLoadJobs = "volsource_load_jobs_total"
	// MetricLoadItems counts decoded folder entries by status (loaded|skipped).
	MetricLoadItems = "volsource_load_items_total"
	// MetricLoadDuration observes job wall time in seconds.
	MetricLoadDuration = "volsource_load_duration_seconds"
	// MetricLoadProgress is the progress fraction of the running job.
	MetricLoadProgress = "volsource_load_progress"
)

// MetricsCollector records quantitative observability signals. The interface
// is generic so adapters can back onto Prometheus or anything else.
type MetricsCollector interface {
	IncCounter(ctx context.Context, name string, labels map[string]string)
	SetGauge(ctx context.Context, name string, value float64, labels map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, labels map[string]string)
}
