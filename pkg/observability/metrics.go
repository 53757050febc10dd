/*
Package observability provides a prometheus-backed implementation of the
history metrics hook. Wire it into a history with history.WithMetrics and
expose the registry over /metrics.
*/
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// HistoryMetrics counts history operations by kind (execute, undo, redo,
// merge, eviction, clear).
type HistoryMetrics struct {
	operations *prometheus.CounterVec
}

// NewHistoryMetrics creates the collectors and registers them with the given
// registerer. Pass prometheus.DefaultRegisterer for the process-global
// registry.
func NewHistoryMetrics(reg prometheus.Registerer) *HistoryMetrics {
	m := &HistoryMetrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "draftbench_history_operations_total",
				Help: "Total number of history operations by kind",
			},
			[]string{"op"},
		),
	}
	reg.MustRegister(m.operations)
	return m
}

// Record implements the history metrics hook.
func (m *HistoryMetrics) Record(op string) {
	m.operations.WithLabelValues(op).Inc()
}
