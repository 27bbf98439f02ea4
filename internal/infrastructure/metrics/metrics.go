// Package metrics exposes Prometheus instrumentation for the compliance
// core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors the service updates.
type Metrics struct {
	EvaluationsTotal   *prometheus.CounterVec
	EvaluationDuration prometheus.Histogram
	StructuringHits    prometheus.Counter
	DeadlineAlerts     prometheus.Counter
	OCDDExecutions     *prometheus.CounterVec
	BatchTenantErrors  prometheus.Counter
}

// New registers and returns the compliance metric set.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EvaluationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "compliance",
			Name:      "evaluations_total",
			Help:      "Transaction risk evaluations by resulting level.",
		}, []string{"level"}),
		EvaluationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "compliance",
			Name:      "evaluation_duration_seconds",
			Help:      "Latency of synchronous transaction evaluations.",
			Buckets:   prometheus.DefBuckets,
		}),
		StructuringHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "compliance",
			Name:      "structuring_detections_total",
			Help:      "Transactions flagged for structuring.",
		}),
		DeadlineAlerts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "compliance",
			Name:      "deadline_alerts_total",
			Help:      "Report deadline escalation alerts sent.",
		}),
		OCDDExecutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "compliance",
			Name:      "ocdd_executions_total",
			Help:      "OCDD schedule executions by result.",
		}, []string{"result"}),
		BatchTenantErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "compliance",
			Name:      "batch_tenant_errors_total",
			Help:      "Tenants that failed during periodic batch runs.",
		}),
	}
}

// NewNop returns metrics bound to a throwaway registry, for tests.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
