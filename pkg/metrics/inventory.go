package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	ResultApplied      = "applied"
	ResultInsufficient = "insufficient_stock"
	ResultConflict     = "conflict"
	ResultRetried      = "retried"
	ResultFailed       = "failed"
)

// InventoryMetrics counts stock adjustment outcomes and low-stock alerts.
type InventoryMetrics struct {
	adjustments *prometheus.CounterVec
	alerts      prometheus.Counter
}

func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	adjustments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_adjustments_total",
		Help: "Stock adjustment submissions by type and result.",
	}, []string{"type", "result"})
	alerts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "low_stock_alerts_total",
		Help: "Low-stock alerts written to the outbox.",
	})
	reg.MustRegister(adjustments, alerts)
	return &InventoryMetrics{adjustments: adjustments, alerts: alerts}
}

func (m *InventoryMetrics) IncAdjustment(adjustmentType, result string) {
	if m == nil || m.adjustments == nil {
		return
	}
	m.adjustments.WithLabelValues(normalizeLabel(adjustmentType), normalizeLabel(result)).Inc()
}

func (m *InventoryMetrics) IncLowStockAlert() {
	if m == nil || m.alerts == nil {
		return
	}
	m.alerts.Inc()
}
