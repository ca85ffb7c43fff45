package eventlog

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusRendered = "rendered"
	statusFailed   = "failed"
	statusDropped  = "dropped"
)

// Metrics holds the Prometheus metrics of a Consumer
type Metrics struct {
	recordsTotal    *prometheus.CounterVec
	renderDuration  prometheus.Histogram
	bookmarkUpdates *prometheus.CounterVec
}

// NewMetrics registers the consumer metrics with reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		recordsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventlog_records_total",
				Help: "Total number of event records pulled from the subscription, by outcome. Dropped records are counted only as dropped",
			},
			[]string{"status"},
		),

		renderDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "eventlog_render_duration_seconds",
				Help:    "Time spent rendering one event record",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),

		bookmarkUpdates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventlog_bookmark_updates_total",
				Help: "Total number of bookmark updates",
			},
			[]string{"status"},
		),
	}
}

func (m *Metrics) renderObserved(start time.Time) {
	m.renderDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) recordRendered() {
	m.recordsTotal.WithLabelValues(statusRendered).Inc()
}

func (m *Metrics) recordFailed() {
	m.recordsTotal.WithLabelValues(statusFailed).Inc()
}

func (m *Metrics) recordDropped() {
	m.recordsTotal.WithLabelValues(statusDropped).Inc()
}

func (m *Metrics) bookmarkUpdated(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.bookmarkUpdates.WithLabelValues(status).Inc()
}
