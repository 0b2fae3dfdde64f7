package admission

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisionCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recruitflow",
		Subsystem: "admission",
		Name:      "decisions_total",
		Help:      "Admission pipeline decisions by outcome.",
	}, []string{"outcome"})

	pipelineErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "recruitflow",
		Subsystem: "admission",
		Name:      "errors_total",
		Help:      "Admission attempts aborted by store failures.",
	})
)

func recordDecision(result *Result) {
	if result.Admitted() {
		decisionCounter.WithLabelValues("admitted").Inc()
		return
	}
	decisionCounter.WithLabelValues(string(result.Denial.Code)).Inc()
}
