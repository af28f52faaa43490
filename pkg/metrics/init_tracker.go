package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initTrackerMetrics() {
	r.SlicesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "dyncomm_slices_total",
			Help: "Total number of time slices processed",
		},
		[]string{"status"}, // ok, degraded
	)

	r.SliceModularity = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dyncomm_slice_modularity",
			Help: "Modularity of the aligned partition for a time window",
		},
		[]string{"window"},
	)

	r.SliceCommunities = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dyncomm_slice_communities",
			Help: "Number of communities found in a time window",
		},
		[]string{"window"},
	)

	r.AlignmentOverlap = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dyncomm_alignment_overlap_ratio",
			Help:    "Fraction of common nodes kept in their community by alignment",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	r.PartialMatchesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "dyncomm_alignment_partial_matches_total",
			Help: "Alignments that left a current community without a counterpart",
		},
	)

	r.NodeChangesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "dyncomm_node_changes_total",
			Help: "Per-node community change outcomes between consecutive slices",
		},
		[]string{"change"}, // changed, unchanged, unavailable
	)
}

func (r *Registry) initProducerMetrics() {
	r.ProducerRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "dyncomm_producer_runs_total",
			Help: "Partition producer invocations",
		},
		[]string{"producer", "status"}, // success, error
	)

	r.ProducerDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dyncomm_producer_duration_seconds",
			Help:    "Partition producer duration in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 30},
		},
		[]string{"producer"},
	)

	r.SweepMeanModularity = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dyncomm_sweep_mean_modularity",
			Help: "Mean modularity across windows for a community count",
		},
		[]string{"k"},
	)

	r.BaselineMeanModularity = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dyncomm_baseline_mean_modularity",
			Help: "Mean modularity across windows for a baseline method",
		},
		[]string{"method"},
	)
}
