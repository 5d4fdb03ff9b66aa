// Package metrics records compilation metrics using Prometheus.
//
// Every run owns a Collector backed by its own registry, so runs never share
// state and tests can inspect a fresh set of series.
//
// # Basic Usage
//
//	collector := metrics.NewCollector()
//	timer := metrics.NewTimer("synthesis")
//	out, err := synthesize()
//	collector.ObserveStage("synthesis", timer.Stop())
//
//	// Export for the node exporter textfile collector
//	err = collector.WriteToTextfile("/var/lib/node_exporter/apimtpl.prom")
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name
const Namespace = "apimtpl"

// Run statuses
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Collector groups the metrics of one compilation run
type Collector struct {
	registry      *prometheus.Registry
	stageDuration *prometheus.HistogramVec
	violations    *prometheus.CounterVec
	resources     *prometheus.CounterVec
	documents     prometheus.Counter
	runs          *prometheus.CounterVec
	startTime     time.Time
}

// NewCollector creates a collector registered on a private registry
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of each compilation stage",
				Buckets: []float64{
					0.0001, // 100µs - trivial inputs
					0.001,  // 1ms
					0.01,   // 10ms - typical configurations
					0.1,    // 100ms
					1,      // 1s - very large topologies
				},
			},
			[]string{"stage"},
		),
		violations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "violations_total",
				Help:      "Violations reported per stage and error type",
			},
			[]string{"stage", "type"},
		),
		resources: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "resources_total",
				Help:      "Resources emitted per ARM resource type",
			},
			[]string{"type"},
		),
		documents: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "documents_total",
				Help:      "Input documents combined",
			},
		),
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "runs_total",
				Help:      "Compilation runs by outcome",
			},
			[]string{"status"},
		),
		startTime: time.Now(),
	}
}

// Registry returns the registry holding the collector's metrics
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// StartTime returns when the collector was created
func (c *Collector) StartTime() time.Time {
	return c.startTime
}

// ObserveStage records the duration of a stage
func (c *Collector) ObserveStage(stage string, d time.Duration) {
	c.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// AddViolations counts n violations of errType reported by stage
func (c *Collector) AddViolations(stage, errType string, n int) {
	c.violations.WithLabelValues(stage, errType).Add(float64(n))
}

// AddResources counts n emitted resources of resourceType
func (c *Collector) AddResources(resourceType string, n int) {
	c.resources.WithLabelValues(resourceType).Add(float64(n))
}

// AddDocuments counts n combined input documents
func (c *Collector) AddDocuments(n int) {
	c.documents.Add(float64(n))
}

// RecordRun counts a finished run
func (c *Collector) RecordRun(err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	c.runs.WithLabelValues(status).Inc()
}

// WriteToTextfile writes the registry in the text exposition format for the
// node exporter textfile collector
func (c *Collector) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}

// Timer measures the duration of an operation
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the timed operation's name
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed duration since creation. The timer can be
// stopped multiple times.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
