package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assay_pipeline_runs_total",
		Help: "Pipeline runs started.",
	})

	levelOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assay_pipeline_level_outcomes_total",
		Help: "Per-endpoint, per-level unit outcomes.",
	}, []string{"level", "outcome"})
)
