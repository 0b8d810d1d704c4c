// Package metrics exposes the Prometheus instruments of the analysis
// pipeline on a dedicated registry.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all analyzer metrics, kept separate from the default
// registry so embedding binaries control what they expose.
var Registry = prometheus.NewRegistry()

var (
	// TripsScored counts trips that received an overall score.
	TripsScored = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "drivescore_trips_scored_total",
		Help: "Number of trips scored by the analysis pipeline.",
	})

	// FocusEvaluations counts per-pin evaluations by outcome.
	FocusEvaluations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "drivescore_focus_evaluations_total",
		Help: "Number of focus point evaluations by result.",
	}, []string{"result"})

	// CommentFallbacks counts comments served by the template fallback.
	CommentFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "drivescore_comment_fallbacks_total",
		Help: "Number of comments that fell back to the template generator.",
	})

	// AnalysisDuration tracks end-to-end trip analysis latency.
	AnalysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "drivescore_trip_analysis_duration_seconds",
		Help:    "Wall time of full trip analysis runs.",
		Buckets: prometheus.DefBuckets,
	})
)

// Evaluation outcome labels for FocusEvaluations.
const (
	ResultEvaluated = "evaluated"
	ResultNotPassed = "not_passed"
	ResultNoData    = "no_data"
)

var registerOnce sync.Once

// RegisterDefault registers every instrument on the package registry.
// Safe to call from multiple entry points.
func RegisterDefault() {
	registerOnce.Do(func() {
		Registry.MustRegister(
			TripsScored,
			FocusEvaluations,
			CommentFallbacks,
			AnalysisDuration,
		)
	})
}
