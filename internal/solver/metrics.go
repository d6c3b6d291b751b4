package solver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	// sessions counts finished sessions.
	// Labels: status (completed, failed)
	sessions *prometheus.CounterVec

	solutions prometheus.Counter

	// stageDuration tracks pipeline stage latency.
	// Labels: stage (analyze, match, generate, integrate)
	stageDuration *prometheus.HistogramVec

	// stageFailures counts stages that panicked and fell back to defaults.
	// Labels: stage
	stageFailures *prometheus.CounterVec

	// collaboratorErrors counts degraded collaborator calls.
	// Labels: collaborator (knowledge, patterns, feedback, sessions)
	collaboratorErrors *prometheus.CounterVec
}

// newMetrics registers solver metrics on reg. A nil reg leaves them unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		sessions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "problemsolver",
				Subsystem: "solver",
				Name:      "sessions_total",
				Help:      "Total number of solve sessions by final status",
			},
			[]string{"status"},
		),
		solutions: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: "problemsolver",
				Subsystem: "solver",
				Name:      "solutions_generated_total",
				Help:      "Total number of solution approaches generated",
			},
		),
		stageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "problemsolver",
				Subsystem: "solver",
				Name:      "stage_duration_seconds",
				Help:      "Duration of pipeline stages in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		stageFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "problemsolver",
				Subsystem: "solver",
				Name:      "stage_failures_total",
				Help:      "Total number of pipeline stages that failed and used their default output",
			},
			[]string{"stage"},
		),
		collaboratorErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "problemsolver",
				Subsystem: "solver",
				Name:      "collaborator_errors_total",
				Help:      "Total number of failed collaborator calls",
			},
			[]string{"collaborator"},
		),
	}
}
