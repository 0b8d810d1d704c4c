package models

import "time"

// Trip represents one recording session from start to completion.
type Trip struct {
	ID      string `json:"id" db:"id"`
	UserID  string `json:"user_id" db:"user_id"`
	RouteID string `json:"route_id,omitempty" db:"route_id"`

	Status      string `json:"status" db:"status"` // active | completed
	StartTimeMs int64  `json:"start_time_ms" db:"start_time_ms"`
	EndTimeMs   int64  `json:"end_time_ms,omitempty" db:"end_time_ms"`

	// Aggregate counters written at completion
	DistanceKm   float64 `json:"distance" db:"distance_km"`
	SuddenAccels int     `json:"sudden_accels" db:"sudden_accels"`
	SuddenBrakes int     `json:"sudden_brakes" db:"sudden_brakes"`
	SharpTurns   int     `json:"sharp_turns" db:"sharp_turns"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Trip status constants
const (
	TripStatusActive    = "active"
	TripStatusCompleted = "completed"
)

// DurationSeconds returns the trip duration, or 0 while it is still active.
func (t *Trip) DurationSeconds() int64 {
	if t.EndTimeMs <= t.StartTimeMs {
		return 0
	}
	return (t.EndTimeMs - t.StartTimeMs) / 1000
}

// JerkStats holds the derived jerk metrics for a whole trip.
// Field names match the persisted jerk_stats document.
type JerkStats struct {
	JerkZCount int     `json:"jerk_z_count"`
	JerkZMean  float64 `json:"jerk_z_mean"` // mean of |jerk| on the longitudinal axis
	JerkZMax   float64 `json:"jerk_z_max"`
	JerkZStd   float64 `json:"jerk_z_std"`
	JerkXCount int     `json:"jerk_x_count"`
	JerkXMean  float64 `json:"jerk_x_mean"`
	JerkXMax   float64 `json:"jerk_x_max"`
	JerkXStd   float64 `json:"jerk_x_std"`

	TotalJerkEvents int     `json:"total_jerk_events"`
	JerkEventsPerKm float64 `json:"jerk_events_per_km"`
	StabilityScore  float64 `json:"stability_score"` // fraction of low-jerk samples
	SpeedStd        float64 `json:"speed_std"`
	TotalDistanceKm float64 `json:"total_distance_km"`
	DataPoints      int     `json:"data_points"`
}

// EmptyJerkStats returns the canonical zero result for inputs with fewer
// than two samples. StabilityScore is 1.0: no instability was observed.
func EmptyJerkStats(dataPoints int) JerkStats {
	return JerkStats{
		StabilityScore:  1.0,
		TotalDistanceKm: 0.1,
		DataPoints:      dataPoints,
	}
}

// ScoreWeights are the penalty weights of the trip score formula.
type ScoreWeights struct {
	A float64 `json:"A"` // jerk event density
	B float64 `json:"B"` // speed variance
}

// TripScore is the persisted scoring result for a completed trip.
// Re-running the pipeline overwrites it (last write wins).
type TripScore struct {
	TripID       string       `json:"trip_id" db:"trip_id"`
	OverallScore int          `json:"overall_score" db:"overall_score"`
	ScoreComment string       `json:"score_comment" db:"score_comment"`
	JerkStats    JerkStats    `json:"jerk_stats"`
	Weights      ScoreWeights `json:"weights"`
	ScoringMode  string       `json:"scoring_mode" db:"scoring_mode"`
	SampleRateHz float64      `json:"sample_rate_hz_used" db:"sample_rate_hz"`
	CalculatedAt time.Time    `json:"calculated_at" db:"calculated_at"`
}

// ScoringModeLog1p identifies the saturating log1p penalty model.
const ScoringModeLog1p = "improved_log1p"
