// Package metrics defines the Prometheus collectors exported by the pipeline.
// A nil *Pipeline is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "efrsbmon"

type Pipeline struct {
	Cycles        prometheus.Counter
	CycleDuration prometheus.Histogram
	LastCycle     prometheus.Gauge
	Notices       *prometheus.CounterVec // result: sent, skipped, undelivered, mark_failed, panic
	Lots          *prometheus.CounterVec // result: sent, failed, filtered, malformed
	Throttles     prometheus.Counter
	FetchDuration prometheus.Histogram
}

// New registers the pipeline collectors on reg.
func New(reg prometheus.Registerer) *Pipeline {
	f := promauto.With(reg)
	return &Pipeline{
		Cycles: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Completed polling cycles.",
		}),
		CycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of one polling cycle.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 900},
		}),
		LastCycle: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_cycle_timestamp_seconds",
			Help:      "Unix time of the last finished cycle.",
		}),
		Notices: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notices_total",
			Help:      "Notices processed, by result.",
		}, []string{"result"}),
		Lots: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lots_total",
			Help:      "Lots handled, by result.",
		}, []string{"result"}),
		Throttles: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "throttles_total",
			Help:      "Flood-control responses received from the transport.",
		}),
		FetchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_fetch_duration_seconds",
			Help:      "Time spent fetching and parsing one notice document.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (p *Pipeline) CycleDone(started time.Time) {
	if p == nil {
		return
	}
	p.Cycles.Inc()
	p.CycleDuration.Observe(time.Since(started).Seconds())
	p.LastCycle.SetToCurrentTime()
}

func (p *Pipeline) Notice(result string) {
	if p == nil {
		return
	}
	p.Notices.WithLabelValues(result).Inc()
}

func (p *Pipeline) Lot(result string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.Lots.WithLabelValues(result).Add(float64(n))
}

func (p *Pipeline) Throttled() {
	if p == nil {
		return
	}
	p.Throttles.Inc()
}

func (p *Pipeline) Fetched(d time.Duration) {
	if p == nil {
		return
	}
	p.FetchDuration.Observe(d.Seconds())
}
