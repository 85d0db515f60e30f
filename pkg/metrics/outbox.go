package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	OutboxPublished = "published"
	OutboxFailed    = "failed"
	OutboxDLQ       = "dlq"
)

// OutboxMetrics counts publisher results per event type and tracks the
// unpublished backlog.
type OutboxMetrics struct {
	results *prometheus.CounterVec
	pending prometheus.Gauge
}

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	results := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_publish_total",
		Help: "Outbox publish attempts by event type and result.",
	}, []string{"event_type", "result"})
	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "outbox_pending_events",
		Help: "Outbox rows not yet published.",
	})
	reg.MustRegister(results, pending)
	return &OutboxMetrics{results: results, pending: pending}
}

func (m *OutboxMetrics) IncResult(eventType, result string) {
	if m == nil || m.results == nil {
		return
	}
	m.results.WithLabelValues(normalizeLabel(eventType), normalizeLabel(result)).Inc()
}

func (m *OutboxMetrics) SetPending(n int64) {
	if m == nil || m.pending == nil {
		return
	}
	m.pending.Set(float64(n))
}
