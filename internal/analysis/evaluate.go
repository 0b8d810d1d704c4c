package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/driveloop/drivescore-backend-go/internal/models"
)

const (
	minFocusScore = 40.0
	maxFocusScore = 100.0

	// Rating breakpoints on the continuous focus score.
	veryGoodThreshold = 95.0
	goodThreshold     = 80.0
	averageThreshold  = 60.0

	// diffDeadZone is the |delta| below which a metric change is
	// reported as no meaningful change.
	diffDeadZone = 0.01
)

// Fixed evaluator comments.
const (
	// NotPassedComment is attached when the trip never came near the pin.
	NotPassedComment = "This focus point was not passed on this trip. Give it a try next time!"

	// InsufficientLogComment is attached when the pin was passed but no
	// motion samples were recorded around it.
	InsufficientLogComment = "The focus point was passed, but not enough motion data was recorded around it to evaluate."

	// StandaloneDiffText explains a first-time or no-history evaluation.
	StandaloneDiffText = "No previous run was found for this point, so this is a standalone evaluation."
)

// RateFocus scores windowed stats for a focus type on a continuous
// [40,100] scale and maps the score to a categorical rating. All-zero
// stats yield ("none", 0) so an empty window is never rated as perfect.
func RateFocus(stats models.DetailedStats, focusType string) (string, int, error) {
	if !models.ValidFocusType(focusType) {
		return "", 0, fmt.Errorf("%w: %q", ErrUnknownFocusType, focusType)
	}

	if stats.IsZero() {
		return models.RatingNone, 0, nil
	}

	gx := math.Abs(stats.MeanGX)
	gz := math.Abs(stats.MeanGZ)

	var score float64
	switch focusType {
	case models.FocusBrakeSoft, models.FocusStopSmooth, models.FocusAccelSmooth:
		score = 100 - (gz-0.10)*400 - (stats.StdGZ-0.04)*500
	case models.FocusTurnStability:
		score = 100 - (gx-0.10)*400 - (stats.StdGX-0.05)*500
	case models.FocusSmoothOverall:
		score = 100 - (stats.StdGX-0.04)*600 - (stats.StdGZ-0.04)*600
	case models.FocusSpeedConsistency:
		score = 100 - (stats.StdSpeed-2.0)*15
	}

	score = math.Max(minFocusScore, math.Min(maxFocusScore, score))
	return ratingFromScore(score), int(math.Round(score)), nil
}

func ratingFromScore(score float64) string {
	switch {
	case score >= veryGoodThreshold:
		return models.RatingVeryGood
	case score >= goodThreshold:
		return models.RatingGood
	case score >= averageThreshold:
		return models.RatingAverage
	default:
		return models.RatingPoor
	}
}

// CompareStats computes signed deltas between the previous and current
// stats of the same pin, plus a one-sentence trend summary. A nil
// previous yields a nil diff and the standalone explanation.
func CompareStats(prev *models.DetailedStats, current models.DetailedStats) (*models.DiffStats, string) {
	if prev == nil {
		return nil, StandaloneDiffText
	}

	diff := &models.DiffStats{
		AvgSpeedDiff: current.AvgSpeed - prev.AvgSpeed,
		GXDiff:       current.MeanGX - prev.MeanGX,
		GZDiff:       current.MeanGZ - prev.MeanGZ,
		StdGXDiff:    current.StdGX - prev.StdGX,
		StdGZDiff:    current.StdGZ - prev.StdGZ,
		MaxGXDiff:    current.MaxGX - prev.MaxGX,
		MaxGZDiff:    current.MaxGZ - prev.MaxGZ,

		AccelerationCountDiff: current.AccelerationCount - prev.AccelerationCount,
		DecelerationCountDiff: current.DecelerationCount - prev.DecelerationCount,
		SharpTurnCountDiff:    current.SharpTurnCount - prev.SharpTurnCount,
	}

	return diff, diffText(diff)
}

// diffText turns the deltas into one sentence. Improvements are negative
// deltas: less spread means a smoother run.
func diffText(diff *models.DiffStats) string {
	gzTrend := trend(diff.StdGZDiff,
		"braking and acceleration settled down, with less front-to-back sway",
		"front-to-back sway increased, with somewhat harsher braking and acceleration",
		"front-to-back smoothness barely changed")

	gxTrend := trend(diff.StdGXDiff,
		"lateral sway eased off and steering looked steadier",
		"lateral sway grew, with less stability through turns",
		"lateral stability barely changed")

	speedTrend := trend(diff.AvgSpeedDiff,
		"average speed settled down to a calmer pace",
		"average speed crept up, making the run quicker overall",
		"average speed barely changed")

	sentence := strings.Join([]string{gzTrend, gxTrend, speedTrend}, ". ") + "."
	return strings.ToUpper(sentence[:1]) + sentence[1:]
}

func trend(value float64, improved, worsened, unchanged string) string {
	if math.Abs(value) < diffDeadZone {
		return unchanged
	}
	if value < 0 {
		return improved
	}
	return worsened
}
