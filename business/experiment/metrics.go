package experiment

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	AssignmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "experiment_assignments_total",
			Help: "Variant assignment requests by outcome (existing, created, duplicate, frozen, inactive, write_failed).",
		},
		[]string{"outcome"},
	)

	TransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "experiment_transitions_total",
			Help: "Experiment status transitions by target status.",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(AssignmentsTotal, TransitionsTotal)
}
