package analysis

import (
	"fmt"

	"github.com/driveloop/drivescore-backend-go/internal/models"
	"github.com/driveloop/drivescore-backend-go/internal/spatial"
)

// DefaultMaxPassDistanceM is the pass/no-pass proximity threshold
// between a focus point and the nearest GPS fix.
const DefaultMaxPassDistanceM = 50.0

// Window is the asymmetric time range around a matched GPS fix from
// which motion samples are taken.
type Window struct {
	BeforeMs int64
	AfterMs  int64
}

// WindowForFocus returns the fixed sampling window for a focus type.
// Braking and stopping weight the approach, acceleration weights the
// exit, turn stability is symmetric and narrower, the remaining types
// get a wide symmetric window.
func WindowForFocus(focusType string) (Window, error) {
	switch focusType {
	case models.FocusBrakeSoft, models.FocusStopSmooth:
		return Window{BeforeMs: 8000, AfterMs: 3000}, nil
	case models.FocusAccelSmooth:
		return Window{BeforeMs: 3000, AfterMs: 8000}, nil
	case models.FocusTurnStability:
		return Window{BeforeMs: 4000, AfterMs: 4000}, nil
	case models.FocusSmoothOverall, models.FocusSpeedConsistency:
		return Window{BeforeMs: 8000, AfterMs: 8000}, nil
	default:
		return Window{}, fmt.Errorf("%w: %q", ErrUnknownFocusType, focusType)
	}
}

// FocusMatch is the outcome of matching one focus point against a trip's
// GPS track.
type FocusMatch struct {
	Passed      bool
	MatchedAtMs int64   // timestamp of the nearest fix, when passed
	DistanceM   float64 // distance from the pin to the nearest fix
	Samples     []models.MotionSample
}

// FocusPointMatcher locates the nearest GPS fix to a focus point and
// extracts the motion sample window around it.
type FocusPointMatcher struct {
	MaxPassDistanceM float64
}

// NewFocusPointMatcher returns a matcher, defaulting the pass distance
// when non-positive.
func NewFocusPointMatcher(maxPassDistanceM float64) *FocusPointMatcher {
	if maxPassDistanceM <= 0 {
		maxPassDistanceM = DefaultMaxPassDistanceM
	}
	return &FocusPointMatcher{MaxPassDistanceM: maxPassDistanceM}
}

// Match finds the nearest usable GPS fix to the pin. Fixes without a
// timestamp or with placeholder coordinates cannot anchor a window and
// are excluded. If the nearest fix is farther than the pass threshold
// the pin was not passed and no samples are extracted.
func (m *FocusPointMatcher) Match(pin models.FocusPoint, fixes []models.PositionSample, motion []models.MotionSample) (FocusMatch, error) {
	window, err := WindowForFocus(pin.FocusType)
	if err != nil {
		return FocusMatch{}, err
	}

	bestDist := -1.0
	var bestTs int64
	for _, fix := range fixes {
		if fix.TimestampMs == 0 || !spatial.ValidFix(fix) {
			continue
		}
		d := spatial.HaversineM(pin.Latitude, pin.Longitude, fix.Latitude, fix.Longitude)
		if bestDist < 0 || d < bestDist {
			bestDist = d
			bestTs = fix.TimestampMs
		}
	}

	if bestDist < 0 || bestDist > m.MaxPassDistanceM {
		return FocusMatch{Passed: false, DistanceM: bestDist}, nil
	}

	match := FocusMatch{
		Passed:      true,
		MatchedAtMs: bestTs,
		DistanceM:   bestDist,
	}

	from := bestTs - window.BeforeMs
	to := bestTs + window.AfterMs
	for _, s := range motion {
		if s.TimestampMs >= from && s.TimestampMs <= to {
			match.Samples = append(match.Samples, s)
		}
	}

	return match, nil
}
