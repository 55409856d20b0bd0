package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// QueueMetrics records song-request queue activity and store latency.
type QueueMetrics struct {
	submitted     prometheus.Counter
	rejected      *prometheus.CounterVec
	played        prometheus.Counter
	cleared       prometheus.Counter
	reordered     prometheus.Counter
	pending       prometheus.Gauge
	storeDuration *prometheus.HistogramVec
	storeFailure  *prometheus.CounterVec
}

// NewQueueMetrics registers the queue metrics on the provided registerer.
// A nil registerer yields a no-op collector.
func NewQueueMetrics(reg prometheus.Registerer) *QueueMetrics {
	if reg == nil {
		return &QueueMetrics{}
	}
	m := &QueueMetrics{
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "song_requests_submitted_total",
			Help: "Song requests accepted into the queue.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "song_requests_rejected_total",
			Help: "Song request submissions that were rejected.",
		}, []string{"reason"}),
		played: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "song_requests_played_total",
			Help: "Requests transitioned from pending to played.",
		}),
		cleared: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "song_requests_cleared_total",
			Help: "Played requests removed from the queue.",
		}),
		reordered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "song_queue_reorders_total",
			Help: "Operator reorders applied to the pending queue.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "song_queue_pending",
			Help: "Pending requests after the most recent mutation.",
		}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "song_queue_store_duration_seconds",
			Help:    "Latency of queue store loads and saves.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		storeFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "song_queue_store_failures_total",
			Help: "Queue store operations that returned an error.",
		}, []string{"op"}),
	}
	reg.MustRegister(m.submitted, m.rejected, m.played, m.cleared, m.reordered, m.pending, m.storeDuration, m.storeFailure)
	return m
}

// IncSubmitted counts an accepted submission.
func (m *QueueMetrics) IncSubmitted() {
	if m == nil || m.submitted == nil {
		return
	}
	m.submitted.Inc()
}

// IncRejected counts a rejected submission by reason code.
func (m *QueueMetrics) IncRejected(reason string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *QueueMetrics) IncPlayed() {
	if m == nil || m.played == nil {
		return
	}
	m.played.Inc()
}

func (m *QueueMetrics) AddCleared(n int) {
	if m == nil || m.cleared == nil || n <= 0 {
		return
	}
	m.cleared.Add(float64(n))
}

func (m *QueueMetrics) IncReordered() {
	if m == nil || m.reordered == nil {
		return
	}
	m.reordered.Inc()
}

// SetPending publishes the current pending depth.
func (m *QueueMetrics) SetPending(n int) {
	if m == nil || m.pending == nil {
		return
	}
	m.pending.Set(float64(n))
}

// ObserveStore records the latency of a store operation and counts failures.
func (m *QueueMetrics) ObserveStore(op string, duration time.Duration, err error) {
	if m == nil || m.storeDuration == nil {
		return
	}
	label := normalizeLabel(op)
	m.storeDuration.WithLabelValues(label).Observe(duration.Seconds())
	if err != nil {
		m.storeFailure.WithLabelValues(label).Inc()
	}
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
