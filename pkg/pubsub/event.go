package pubsub

import (
	"time"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/tracking"
)

// SliceEvent is the published form of a tracked slice
type SliceEvent struct {
	RunID        string    `json:"run_id"`
	Window       string    `json:"window"`
	Index        int       `json:"index"`
	Modularity   *float64  `json:"modularity,omitempty"`
	Degraded     bool      `json:"degraded"`
	Failure      string    `json:"failure,omitempty"`
	Communities  int       `json:"communities"`
	Overlap      int       `json:"overlap"`
	PartialMatch bool      `json:"partial_match"`
	Changed      int       `json:"changed"`
	Unchanged    int       `json:"unchanged"`
	Unavailable  int       `json:"unavailable"`
	Timestamp    time.Time `json:"timestamp"`
}

// EventFromRecord summarises rec. Modularity is omitted when undefined.
func EventFromRecord(runID string, rec *tracking.Record) SliceEvent {
	changed, unchanged, unavailable := rec.ChangeCounts()
	ev := SliceEvent{
		RunID:        runID,
		Window:       rec.Label,
		Index:        rec.Index,
		Degraded:     rec.Degraded,
		Failure:      rec.FailureReason(),
		Communities:  rec.Communities,
		Overlap:      rec.Overlap,
		PartialMatch: rec.PartialMatch,
		Changed:      changed,
		Unchanged:    unchanged,
		Unavailable:  unavailable,
		Timestamp:    time.Now().UTC(),
	}
	if rec.HasQuality() {
		q := rec.Quality
		ev.Modularity = &q
	}
	return ev
}

type fanout []tracking.Observer

func (f fanout) Observe(runID string, rec *tracking.Record) {
	for _, o := range f {
		o.Observe(runID, rec)
	}
}

// Fanout forwards every record to each non-nil observer in order
func Fanout(observers ...tracking.Observer) tracking.Observer {
	var f fanout
	for _, o := range observers {
		if o != nil {
			f = append(f, o)
		}
	}
	return f
}
