package analysis

import (
	"math"

	"github.com/driveloop/drivescore-backend-go/internal/models"
	"github.com/driveloop/drivescore-backend-go/internal/stats"
)

const (
	// MinSamplesForStats is the minimum window size that produces
	// non-empty DetailedStats.
	MinSamplesForStats = 2

	// AccelEventThresholdG is the |g| threshold for counting sudden
	// acceleration, deceleration and sharp-turn events.
	AccelEventThresholdG = 0.25

	// minSamplesForTrend is the minimum window size for the half/half
	// stability trend.
	minSamplesForTrend = 4
)

// CalculateDetailedStats aggregates a window of motion samples into
// DetailedStats. Windows with fewer than MinSamplesForStats samples yield
// the canonical empty stats with DataPoints set to the actual count.
func CalculateDetailedStats(samples []models.MotionSample) models.DetailedStats {
	if len(samples) < MinSamplesForStats {
		return models.DetailedStats{DataPoints: len(samples)}
	}

	gxVals := make([]float64, len(samples))
	gzVals := make([]float64, len(samples))
	speeds := make([]float64, len(samples))
	for i, s := range samples {
		gxVals[i] = s.GX
		gzVals[i] = s.GZ
		speeds[i] = s.Speed
	}

	ds := models.DetailedStats{
		AvgSpeed: stats.Mean(speeds),
		MeanGX:   stats.Mean(gxVals),
		MeanGZ:   stats.Mean(gzVals),
		StdGX:    stats.PopStdDev(gxVals),
		StdGZ:    stats.PopStdDev(gzVals),
		MaxGX:    stats.Max(gxVals),
		MaxGZ:    stats.Max(gzVals),
		MinGX:    stats.Min(gxVals),
		MinGZ:    stats.Min(gzVals),
		MedianGX: stats.Median(gxVals),
		MedianGZ: stats.Median(gzVals),

		StdSpeed:    stats.PopStdDev(speeds),
		MaxSpeed:    stats.Max(speeds),
		MinSpeed:    stats.Min(speeds),
		MedianSpeed: stats.Median(speeds),
		SpeedRange:  stats.Range(speeds),

		DataPoints: len(samples),
	}

	for _, gz := range gzVals {
		if gz > AccelEventThresholdG {
			ds.AccelerationCount++
		}
		if gz < -AccelEventThresholdG {
			ds.DecelerationCount++
		}
	}
	for _, gx := range gxVals {
		if math.Abs(gx) > AccelEventThresholdG {
			ds.SharpTurnCount++
		}
	}

	if len(samples) >= minSamplesForTrend {
		mid := len(samples) / 2
		ds.GXStabilityTrend = stabilityTrend(gxVals, mid)
		ds.GZStabilityTrend = stabilityTrend(gzVals, mid)
	}

	return ds
}

// stabilityTrend compares the spread of the second half of the window
// against the first half. Positive means the driver got less stable.
func stabilityTrend(values []float64, mid int) float64 {
	if mid <= 1 {
		return 0.0
	}
	return stats.PopStdDev(values[mid:]) - stats.PopStdDev(values[:mid])
}

// ClassifyEvent tags a motion sample from its signed longitudinal g and
// its lateral g. Longitudinal wins over lateral when both exceed the
// threshold, matching the recording order of the sensor stream.
func ClassifyEvent(gx, gz float64) string {
	if math.Abs(gz) > AccelEventThresholdG {
		if gz < 0 {
			return models.EventSuddenBrake
		}
		return models.EventSuddenAccel
	}
	if math.Abs(gx) > AccelEventThresholdG {
		return models.EventSharpTurn
	}
	return models.EventNormal
}
