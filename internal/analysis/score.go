package analysis

import (
	"math"

	"github.com/driveloop/drivescore-backend-go/internal/models"
)

const (
	// DefaultWeightA weighs the jerk event density penalty.
	DefaultWeightA = 3.0
	// DefaultWeightB weighs the speed variance penalty.
	DefaultWeightB = 2.0

	baseScore = 100.0
	maxBonus  = 10.0

	// Trips with fewer samples than this are scored but flagged as
	// reference-only.
	lowConfidenceSamples = 5
)

// Trip score comments by tier. The tier boundaries (90/80/70/50) are the
// contract; the wording is presentation.
const (
	commentExcellent = "Very smooth, nearly flawless driving. Excellent work!"
	commentStable    = "Stable driving with a clear focus on safety. Abrupt inputs were rare."
	commentDecent    = "Mostly good driving, with some roughness in acceleration, braking or steering."
	commentImprove   = "Room for improvement. Fewer abrupt inputs and smoother speed changes will raise the score."
	commentRough     = "Frequent abrupt inputs and large speed swings. Focus on smoother acceleration and braking."

	// InsufficientDataComment is attached to trips with no usable samples.
	InsufficientDataComment = "Not enough samples to evaluate this trip (data insufficient)."

	// LowConfidencePrefix flags scores computed from very few samples.
	LowConfidencePrefix = "Reference value only (few data points). "
)

// TripScorer combines jerk density, speed variance and the stability
// ratio into a single 0-100 trip score. Penalties grow with ln(1+x) so a
// noisy short trip does not floor the score instantly.
type TripScorer struct {
	WeightA float64
	WeightB float64
}

// NewTripScorer returns a scorer with defaults filled in for
// non-positive weights.
func NewTripScorer(weightA, weightB float64) *TripScorer {
	if weightA <= 0 {
		weightA = DefaultWeightA
	}
	if weightB <= 0 {
		weightB = DefaultWeightB
	}
	return &TripScorer{WeightA: weightA, WeightB: weightB}
}

// Score computes the overall trip score and its tier comment. Trips
// without data points get score 0 and the insufficient-data comment;
// trips with very few points get a low-confidence prefix.
func (s *TripScorer) Score(js models.JerkStats) (int, string) {
	if js.DataPoints == 0 {
		return 0, InsufficientDataComment
	}

	penalty := s.WeightA*math.Log1p(js.JerkEventsPerKm) + s.WeightB*math.Log1p(js.SpeedStd)
	bonus := math.Min(maxBonus, js.StabilityScore*10)

	final := baseScore - penalty + bonus
	final = math.Max(0, math.Min(100, final))
	score := int(math.Round(final))

	comment := tierComment(score)
	if js.DataPoints < lowConfidenceSamples {
		comment = LowConfidencePrefix + comment
	}
	return score, comment
}

func tierComment(score int) string {
	switch {
	case score >= 90:
		return commentExcellent
	case score >= 80:
		return commentStable
	case score >= 70:
		return commentDecent
	case score >= 50:
		return commentImprove
	default:
		return commentRough
	}
}
