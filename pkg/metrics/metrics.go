package metrics

import (
	"math"
	"strconv"
	"time"
)

// RecordSlice records a processed slice. NaN modularity is not exported
// as a gauge value.
func (r *Registry) RecordSlice(window string, degraded bool, modularity float64, communities int) {
	if degraded {
		r.SlicesTotal.WithLabelValues("degraded").Inc()
		return
	}
	r.SlicesTotal.WithLabelValues("ok").Inc()
	if !math.IsNaN(modularity) {
		r.SliceModularity.WithLabelValues(window).Set(modularity)
	}
	r.SliceCommunities.WithLabelValues(window).Set(float64(communities))
}

// RecordAlignment records the overlap achieved against the common node count
func (r *Registry) RecordAlignment(overlap, common int, partial bool) {
	if common > 0 {
		r.AlignmentOverlap.Observe(float64(overlap) / float64(common))
	}
	if partial {
		r.PartialMatchesTotal.Inc()
	}
}

// RecordChanges adds per-node change outcomes
func (r *Registry) RecordChanges(changed, unchanged, unavailable int) {
	r.NodeChangesTotal.WithLabelValues("changed").Add(float64(changed))
	r.NodeChangesTotal.WithLabelValues("unchanged").Add(float64(unchanged))
	r.NodeChangesTotal.WithLabelValues("unavailable").Add(float64(unavailable))
}

// RecordProducer records a producer invocation
func (r *Registry) RecordProducer(producer string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	r.ProducerRunsTotal.WithLabelValues(producer, status).Inc()
	r.ProducerDuration.WithLabelValues(producer).Observe(duration.Seconds())
}

// SetSweepMean publishes the mean modularity for k
func (r *Registry) SetSweepMean(k int, mean float64) {
	if math.IsNaN(mean) {
		return
	}
	r.SweepMeanModularity.WithLabelValues(strconv.Itoa(k)).Set(mean)
}

// SetBaselineMean publishes the mean modularity for a baseline method
func (r *Registry) SetBaselineMean(method string, mean float64) {
	if math.IsNaN(mean) {
		return
	}
	r.BaselineMeanModularity.WithLabelValues(method).Set(mean)
}

// RecordReportWrite records a report artifact write
func (r *Registry) RecordReportWrite(sink string, bytes int, err error) {
	if err != nil {
		r.ReportWritesTotal.WithLabelValues(sink, "error").Inc()
		return
	}
	r.ReportWritesTotal.WithLabelValues(sink, "success").Inc()
	r.ReportBytesTotal.WithLabelValues(sink).Add(float64(bytes))
}

// RecordStoreWrite records a persistence operation
func (r *Registry) RecordStoreWrite(driver string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	r.StoreWritesTotal.WithLabelValues(driver, status).Inc()
}

// RecordPublish records a published slice event
func (r *Registry) RecordPublish(transport string) {
	r.EventsPublishedTotal.WithLabelValues(transport).Inc()
}
