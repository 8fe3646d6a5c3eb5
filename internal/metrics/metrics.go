// Package metrics exposes prometheus collectors for the reminder engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Scheduler aggregates the orchestrator's counters and gauges.
type Scheduler struct {
	RefreshPasses        *prometheus.CounterVec // outcome: full|skipped|aborted
	ScheduledTotal       prometheus.Gauge
	ConditionEvaluations *prometheus.CounterVec // condition, result
	ScheduleErrors       prometheus.Counter
	SuppressedDeliveries prometheus.Counter
}

// NewScheduler registers and returns the scheduler collectors. reg may be
// prometheus.DefaultRegisterer or a per-test registry.
func NewScheduler(reg prometheus.Registerer) *Scheduler {
	m := &Scheduler{
		RefreshPasses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spherelog",
			Subsystem: "scheduler",
			Name:      "refresh_passes_total",
			Help:      "Refresh invocations by outcome.",
		}, []string{"outcome"}),
		ScheduledTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "spherelog",
			Subsystem: "scheduler",
			Name:      "scheduled_notifications",
			Help:      "Notifications issued by the last full refresh pass.",
		}),
		ConditionEvaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spherelog",
			Subsystem: "scheduler",
			Name:      "condition_evaluations_total",
			Help:      "Condition evaluations by condition and result.",
		}, []string{"condition", "result"}),
		ScheduleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spherelog",
			Subsystem: "scheduler",
			Name:      "schedule_errors_total",
			Help:      "Failed schedule calls to the notification service.",
		}),
		SuppressedDeliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spherelog",
			Subsystem: "delivery_guard",
			Name:      "suppressed_total",
			Help:      "Premature notification deliveries suppressed by the guard.",
		}),
	}
	reg.MustRegister(
		m.RefreshPasses,
		m.ScheduledTotal,
		m.ConditionEvaluations,
		m.ScheduleErrors,
		m.SuppressedDeliveries,
	)
	return m
}
