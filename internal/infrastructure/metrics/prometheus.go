// Package metrics backs ports.MetricsCollector with Prometheus.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alexisbeaulieu97/volsource/internal/ports"
)

// Collector records loader metrics on a private registry.
type Collector struct {
	registry *prometheus.Registry
	jobs     *prometheus.CounterVec
	items    *prometheus.CounterVec
	duration prometheus.Histogram
	progress prometheus.Gauge
}

// NewCollector creates the loader metrics plus the Go runtime collectors.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: ports.MetricLoadJobs,
			Help: "Finished load jobs by status.",
		}, []string{"status"}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: ports.MetricLoadItems,
			Help: "Datasets handled by load jobs by status.",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    ports.MetricLoadDuration,
			Help:    "Wall time of load jobs.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		progress: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: ports.MetricLoadProgress,
			Help: "Progress fraction of the running load job.",
		}),
	}
	c.registry.MustRegister(
		c.jobs,
		c.items,
		c.duration,
		c.progress,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// IncCounter implements ports.MetricsCollector. Unknown names are ignored.
func (c *Collector) IncCounter(_ context.Context, name string, labels map[string]string) {
	switch name {
	case ports.MetricLoadJobs:
		c.jobs.WithLabelValues(labels["status"]).Inc()
	case ports.MetricLoadItems:
		c.items.WithLabelValues(labels["status"]).Inc()
	}
}

// SetGauge implements ports.MetricsCollector.
func (c *Collector) SetGauge(_ context.Context, name string, value float64, _ map[string]string) {
	if name == ports.MetricLoadProgress {
		c.progress.Set(value)
	}
}

// ObserveHistogram implements ports.MetricsCollector.
func (c *Collector) ObserveHistogram(_ context.Context, name string, value float64, _ map[string]string) {
	if name == ports.MetricLoadDuration {
		c.duration.Observe(value)
	}
}

var _ ports.MetricsCollector = (*Collector)(nil)
