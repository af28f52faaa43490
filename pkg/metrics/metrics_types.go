package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// Tracker Metrics
	SlicesTotal         *prometheus.CounterVec
	SliceModularity     *prometheus.GaugeVec
	SliceCommunities    *prometheus.GaugeVec
	AlignmentOverlap    prometheus.Histogram
	PartialMatchesTotal prometheus.Counter
	NodeChangesTotal    *prometheus.CounterVec

	// Producer Metrics
	ProducerRunsTotal *prometheus.CounterVec
	ProducerDuration  *prometheus.HistogramVec

	// Sweep and Baseline Metrics
	SweepMeanModularity    *prometheus.GaugeVec
	BaselineMeanModularity *prometheus.GaugeVec

	// Output Metrics
	ReportWritesTotal    *prometheus.CounterVec
	ReportBytesTotal     *prometheus.CounterVec
	StoreWritesTotal     *prometheus.CounterVec
	EventsPublishedTotal *prometheus.CounterVec

	// Process Metrics; Go runtime and process collectors are registered
	// alongside
	UptimeSeconds prometheus.GaugeFunc

	registry *prometheus.Registry
	started  time.Time
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		started:  time.Now(),
	}

	r.initTrackerMetrics()
	r.initProducerMetrics()
	r.initOutputMetrics()
	r.initProcessMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
