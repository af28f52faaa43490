package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initOutputMetrics() {
	r.ReportWritesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "dyncomm_report_writes_total",
			Help: "Report artifacts written",
		},
		[]string{"sink", "status"},
	)

	r.ReportBytesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "dyncomm_report_bytes_total",
			Help: "Bytes of report artifacts written",
		},
		[]string{"sink"},
	)

	r.StoreWritesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "dyncomm_store_writes_total",
			Help: "Run persistence operations",
		},
		[]string{"driver", "status"},
	)

	r.EventsPublishedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "dyncomm_events_published_total",
			Help: "Slice events published to subscribers",
		},
		[]string{"transport"},
	)
}
