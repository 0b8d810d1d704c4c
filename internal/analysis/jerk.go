package analysis

import (
	"github.com/driveloop/drivescore-backend-go/internal/models"
	"github.com/driveloop/drivescore-backend-go/internal/stats"
)

const (
	// DefaultSampleRateHz is the sampling rate of the smoothed motion
	// stream when the caller does not configure one.
	DefaultSampleRateHz = 10.0

	// DefaultJerkThreshold is the |jerk| threshold, in g/s, above which a
	// sample counts as a jerk event.
	DefaultJerkThreshold = 0.5

	// minTimeDelta is the smallest physically plausible sampling interval
	// in seconds. A smaller dt indicates caller misconfiguration.
	minTimeDelta = 0.001

	// minDistanceKm floors the distance used for event-rate normalization
	// so short trips do not blow the rate up.
	minDistanceKm = 0.1
)

// JerkAnalyzer computes discrete acceleration derivatives over the
// smoothed motion stream of a trip.
type JerkAnalyzer struct {
	SampleRateHz   float64
	ThresholdGPerS float64
}

// NewJerkAnalyzer returns an analyzer with defaults filled in for
// non-positive parameters.
func NewJerkAnalyzer(sampleRateHz, thresholdGPerS float64) *JerkAnalyzer {
	if sampleRateHz <= 0 {
		sampleRateHz = DefaultSampleRateHz
	}
	if thresholdGPerS <= 0 {
		thresholdGPerS = DefaultJerkThreshold
	}
	return &JerkAnalyzer{SampleRateHz: sampleRateHz, ThresholdGPerS: thresholdGPerS}
}

// Calculate derives JerkStats from the time-ordered smoothed motion
// samples of a whole trip. Fewer than two samples yield the canonical
// empty stats. An implausible sampling interval fails with
// ErrInvalidSampleRate.
func (a *JerkAnalyzer) Calculate(samples []models.MotionSample) (models.JerkStats, error) {
	dt := 1.0 / a.SampleRateHz
	if dt < minTimeDelta {
		return models.JerkStats{}, ErrInvalidSampleRate
	}

	if len(samples) < MinSamplesForStats {
		return models.EmptyJerkStats(len(samples)), nil
	}

	gzVals := make([]float64, len(samples))
	gxVals := make([]float64, len(samples))
	speeds := make([]float64, len(samples))
	for i, s := range samples {
		gzVals[i] = s.GZ
		gxVals[i] = s.GX
		speeds[i] = s.Speed
	}

	jerkZ := diffSeries(gzVals, dt)
	jerkX := diffSeries(gxVals, dt)

	js := models.JerkStats{
		JerkZCount: countEvents(jerkZ, a.ThresholdGPerS),
		JerkZMean:  stats.MeanAbs(jerkZ),
		JerkZMax:   stats.MaxAbs(jerkZ),
		JerkZStd:   stats.PopStdDev(jerkZ),
		JerkXCount: countEvents(jerkX, a.ThresholdGPerS),
		JerkXMean:  stats.MeanAbs(jerkX),
		JerkXMax:   stats.MaxAbs(jerkX),
		JerkXStd:   stats.PopStdDev(jerkX),
		SpeedStd:   stats.PopStdDev(speeds),
		DataPoints: len(samples),
	}

	// The trailing smoothed sample carries the cumulative trip distance.
	distanceKm := samples[len(samples)-1].DistanceKm
	if distanceKm < minDistanceKm {
		distanceKm = minDistanceKm
	}
	js.TotalDistanceKm = distanceKm

	js.TotalJerkEvents = js.JerkZCount + js.JerkXCount
	js.JerkEventsPerKm = float64(js.TotalJerkEvents) / distanceKm

	js.StabilityScore = stabilityRatio(append(append([]float64{}, jerkZ...), jerkX...), a.ThresholdGPerS)

	return js, nil
}

// diffSeries returns the discrete derivative of values over the fixed
// sampling interval dt.
func diffSeries(values []float64, dt float64) []float64 {
	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		out[i-1] = (values[i] - values[i-1]) / dt
	}
	return out
}

// countEvents counts samples whose magnitude exceeds the threshold.
func countEvents(jerks []float64, threshold float64) int {
	count := 0
	for _, j := range jerks {
		if abs(j) > threshold {
			count++
		}
	}
	return count
}

// stabilityRatio is the fraction of jerk samples well below the event
// threshold (under half of it). An empty series counts as fully stable.
func stabilityRatio(jerks []float64, threshold float64) float64 {
	if len(jerks) == 0 {
		return 1.0
	}
	stable := 0
	for _, j := range jerks {
		if abs(j) < threshold*0.5 {
			stable++
		}
	}
	return float64(stable) / float64(len(jerks))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
