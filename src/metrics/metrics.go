package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AnalysesTotal counts settled fact-checks by outcome and verdict label.
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustek_analyses_total",
			Help: "Total number of fact-check analyses",
		},
		[]string{"mode", "outcome", "label"},
	)

	// UpstreamRetriesTotal counts retried upstream attempts.
	UpstreamRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustek_upstream_retries_total",
			Help: "Total number of retried calls to the analysis service",
		},
		[]string{"mode"},
	)

	// RejectedSubmissionsTotal counts submissions refused before reaching the analyzer
	RejectedSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustek_rejected_submissions_total",
			Help: "Submissions refused because of invalid input or a pending request",
		},
		[]string{"reason"},
	)

	// AnalysisLatency tracks end-to-end analysis latency
	AnalysisLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trustek_analysis_latency_seconds",
			Help:    "Fact-check latency in seconds, including backoff waits",
			Buckets: []float64{0.5, 1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"mode"},
	)

	// GuardDecisionsTotal counts route guard outcomes
	GuardDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustek_guard_decisions_total",
			Help: "Route guard decisions by result",
		},
		[]string{"result"},
	)
)
