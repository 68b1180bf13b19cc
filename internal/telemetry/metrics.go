package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики саги. Регистрируются в prometheus.DefaultRegisterer
// и отдаются через /metrics.
var (
	// StepOutcomesTotal — результаты шагов по виду шага.
	StepOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saga_step_outcomes_total",
		Help: "Step outcomes by step kind and result",
	}, []string{"step", "result"})

	// ExecutionsTotal — завершённые прогоны саги по финальному состоянию.
	ExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saga_executions_total",
		Help: "Saga executions by final state",
	}, []string{"state"})

	// RateLookupsTotal — конвертации валюты по источнику курса.
	RateLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saga_rate_lookups_total",
		Help: "Currency conversions by rate source",
	}, []string{"source"})

	// ExecutionDuration — длительность прогона саги.
	ExecutionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "saga_execution_duration_seconds",
		Help:    "Saga execution duration",
		Buckets: prometheus.DefBuckets,
	})

	// RetriesTotal — повторы шагов по виду шага и каналу эскалации.
	RetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saga_step_retries_total",
		Help: "Step retries by step kind and escalation channel",
	}, []string{"step", "channel"})
)

// ResultLabel возвращает метку результата шага.
func ResultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
