package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// initProcessMetrics registers the Go runtime and process collectors.
// Uptime is computed at scrape time from the registry's creation.
func (r *Registry) initProcessMetrics() {
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: "dyncomm"}),
	)

	r.UptimeSeconds = promauto.With(r.registry).NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "dyncomm_uptime_seconds",
			Help: "Seconds since the pipeline's metrics registry was created",
		},
		func() float64 { return time.Since(r.started).Seconds() },
	)
}
