package models

import "time"

// FocusPoint is a user-registered geographic point of interest ("pin")
// with a behavioral emphasis. Created by the map UI, read-only here.
type FocusPoint struct {
	ID         string  `json:"id" db:"id"`
	UserID     string  `json:"user_id" db:"user_id"`
	RouteID    string  `json:"route_id" db:"route_id"`
	Latitude   float64 `json:"lat" db:"lat"`
	Longitude  float64 `json:"lng" db:"lng"`
	Label      string  `json:"label" db:"label"`
	FocusType  string  `json:"focus_type" db:"focus_type"`
	FocusLabel string  `json:"focus_label" db:"focus_label"`
}

// Focus type constants. The closed set of behavioral emphases.
const (
	FocusBrakeSoft        = "brake_soft"
	FocusStopSmooth       = "stop_smooth"
	FocusAccelSmooth      = "accel_smooth"
	FocusTurnStability    = "turn_stability"
	FocusSmoothOverall    = "smooth_overall"
	FocusSpeedConsistency = "speed_consistency"
)

// FocusTypes lists every valid focus type.
var FocusTypes = []string{
	FocusBrakeSoft,
	FocusStopSmooth,
	FocusAccelSmooth,
	FocusTurnStability,
	FocusSmoothOverall,
	FocusSpeedConsistency,
}

// ValidFocusType reports whether t is in the closed focus-type set.
func ValidFocusType(t string) bool {
	for _, v := range FocusTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Rating constants for focus point evaluations.
const (
	RatingVeryGood = "very good"
	RatingGood     = "good"
	RatingAverage  = "average"
	RatingPoor     = "poor"
	RatingNone     = "none"
)

// DetailedStats summarizes a window of motion samples.
// The zero value is the canonical "empty" stats document; only DataPoints
// may be nonzero for windows too small to aggregate.
type DetailedStats struct {
	AvgSpeed float64 `json:"avg_speed"`
	MeanGX   float64 `json:"mean_gx"`
	MeanGZ   float64 `json:"mean_gz"`
	StdGX    float64 `json:"std_gx"`
	StdGZ    float64 `json:"std_gz"`
	MaxGX    float64 `json:"max_gx"`
	MaxGZ    float64 `json:"max_gz"`
	MinGX    float64 `json:"min_gx"`
	MinGZ    float64 `json:"min_gz"`
	MedianGX float64 `json:"median_gx"`
	MedianGZ float64 `json:"median_gz"`

	StdSpeed    float64 `json:"std_speed"`
	MaxSpeed    float64 `json:"max_speed"`
	MinSpeed    float64 `json:"min_speed"`
	MedianSpeed float64 `json:"median_speed"`
	SpeedRange  float64 `json:"speed_range"`

	AccelerationCount int `json:"acceleration_count"`
	DecelerationCount int `json:"deceleration_count"`
	SharpTurnCount    int `json:"sharp_turn_count"`
	DataPoints        int `json:"data_points"`

	// second-half std minus first-half std; positive = got less stable
	GXStabilityTrend float64 `json:"gx_stability_trend"`
	GZStabilityTrend float64 `json:"gz_stability_trend"`
}

// IsZero reports whether every metric is zero, ignoring DataPoints.
// A window that produced no usable aggregates must never be rated.
func (s *DetailedStats) IsZero() bool {
	z := *s
	z.DataPoints = 0
	return z == DetailedStats{}
}

// DiffStats holds signed differences between the current DetailedStats and
// the previous recorded stats for the same pin.
type DiffStats struct {
	AvgSpeedDiff float64 `json:"avg_speed_diff"`
	GXDiff       float64 `json:"gx_diff"`
	GZDiff       float64 `json:"gz_diff"`
	StdGXDiff    float64 `json:"std_gx_diff"`
	StdGZDiff    float64 `json:"std_gz_diff"`
	MaxGXDiff    float64 `json:"max_gx_diff"`
	MaxGZDiff    float64 `json:"max_gz_diff"`

	AccelerationCountDiff int `json:"acceleration_count_diff"`
	DecelerationCountDiff int `json:"deceleration_count_diff"`
	SharpTurnCountDiff    int `json:"sharp_turn_count_diff"`
}

// FocusFeedback is the per-trip, per-pin evaluation result. Created once
// per (trip, pin); a new trip produces a new record.
type FocusFeedback struct {
	TripID string `json:"trip_id" db:"trip_id"`
	PinID  string `json:"pin_id" db:"pin_id"`

	PinLabel   string `json:"pin_label" db:"pin_label"`
	FocusType  string `json:"focus_type" db:"focus_type"`
	FocusLabel string `json:"focus_label" db:"focus_label"`

	Passed bool          `json:"passed" db:"passed"`
	Stats  DetailedStats `json:"stats"`
	Diff   *DiffStats    `json:"diff"`
	Rating string        `json:"rating" db:"rating"`
	Score  *int          `json:"score"`

	AIComment    string `json:"ai_comment" db:"ai_comment"`
	ShortComment string `json:"short_comment,omitempty" db:"short_comment"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// HistoricalFeedback is a past evaluation of the same pin, used for
// multi-trip comparison context.
type HistoricalFeedback struct {
	TripID    string        `json:"trip_id"`
	Stats     DetailedStats `json:"stats"`
	Rating    string        `json:"rating"`
	CreatedAt time.Time     `json:"created_at"`
}
