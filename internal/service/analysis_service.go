// Package service orchestrates trip ingestion, completion and the
// analysis pipeline over the repositories.
package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/driveloop/drivescore-backend-go/internal/analysis"
	"github.com/driveloop/drivescore-backend-go/internal/config"
	"github.com/driveloop/drivescore-backend-go/internal/metrics"
	"github.com/driveloop/drivescore-backend-go/internal/models"
	"github.com/driveloop/drivescore-backend-go/internal/repository"
	"github.com/driveloop/drivescore-backend-go/internal/spatial"
)

// AnalysisService runs the full pipeline: trip scoring plus per-pin
// evaluation, persisting every result.
type AnalysisService struct {
	trips     *repository.TripRepository
	telemetry *repository.TelemetryRepository
	pins      *repository.FocusPointRepository
	feedbacks *repository.FeedbackRepository
	scores    *repository.ScoreRepository

	jerk      *analysis.JerkAnalyzer
	scorer    *analysis.TripScorer
	evaluator *analysis.FocusPointEvaluator

	cfg config.Config
}

// NewAnalysisService wires the service from its repositories and
// configuration.
func NewAnalysisService(
	trips *repository.TripRepository,
	telemetry *repository.TelemetryRepository,
	pins *repository.FocusPointRepository,
	feedbacks *repository.FeedbackRepository,
	scores *repository.ScoreRepository,
	evaluator *analysis.FocusPointEvaluator,
	cfg config.Config,
) *AnalysisService {
	return &AnalysisService{
		trips:     trips,
		telemetry: telemetry,
		pins:      pins,
		feedbacks: feedbacks,
		scores:    scores,
		jerk:      analysis.NewJerkAnalyzer(cfg.SampleRateHz, cfg.JerkThresholdGPerS),
		scorer:    analysis.NewTripScorer(cfg.WeightJerkDensity, cfg.WeightSpeedVariance),
		evaluator: evaluator,
		cfg:       cfg,
	}
}

// TripBundle is a full recording handed to ingestion: the trip header
// plus its three telemetry streams.
type TripBundle struct {
	Trip      models.Trip             `json:"trip"`
	Positions []models.PositionSample `json:"gps_logs"`
	Motion    []models.MotionSample   `json:"g_logs"`
	Smoothed  []models.MotionSample   `json:"avg_g_logs"`
}

// IngestTrip stores a recorded trip. Placeholder GPS fixes are dropped
// and motion samples without an event tag are classified from their g
// values before persisting.
func (s *AnalysisService) IngestTrip(ctx context.Context, bundle TripBundle) (models.Trip, error) {
	trip, err := s.trips.Create(ctx, bundle.Trip)
	if err != nil {
		return models.Trip{}, err
	}

	fixes := make([]models.PositionSample, 0, len(bundle.Positions))
	for _, f := range bundle.Positions {
		if !spatial.ValidFix(f) {
			continue
		}
		fixes = append(fixes, f)
	}
	if err := s.telemetry.SavePositions(ctx, trip.ID, fixes); err != nil {
		return models.Trip{}, err
	}

	motion := make([]models.MotionSample, len(bundle.Motion))
	for i, m := range bundle.Motion {
		if m.Event == "" {
			m.Event = analysis.ClassifyEvent(m.GX, m.GZ)
		}
		motion[i] = m
	}
	if err := s.telemetry.SaveMotion(ctx, trip.ID, motion); err != nil {
		return models.Trip{}, err
	}

	if err := s.telemetry.SaveSmoothed(ctx, trip.ID, bundle.Smoothed); err != nil {
		return models.Trip{}, err
	}

	return trip, nil
}

// CompleteTrip closes a trip: it computes the track distance, tallies
// the event counters from the motion stream and stamps the end time.
func (s *AnalysisService) CompleteTrip(ctx context.Context, tripID string) (models.Trip, error) {
	trip, err := s.trips.Get(ctx, tripID)
	if err != nil {
		return models.Trip{}, err
	}

	fixes, err := s.telemetry.GetPositions(ctx, tripID)
	if err != nil {
		return models.Trip{}, err
	}
	motion, err := s.telemetry.GetMotion(ctx, tripID)
	if err != nil {
		return models.Trip{}, err
	}

	distanceKm := spatial.TripDistanceKm(fixes)

	var accels, brakes, turns int
	endTimeMs := trip.EndTimeMs
	for _, m := range motion {
		switch m.Event {
		case models.EventSuddenAccel:
			accels++
		case models.EventSuddenBrake:
			brakes++
		case models.EventSharpTurn:
			turns++
		}
		if m.TimestampMs > endTimeMs {
			endTimeMs = m.TimestampMs
		}
	}
	for _, f := range fixes {
		if f.TimestampMs > endTimeMs {
			endTimeMs = f.TimestampMs
		}
	}

	if err := s.trips.Complete(ctx, tripID, endTimeMs, distanceKm, accels, brakes, turns); err != nil {
		return models.Trip{}, err
	}
	return s.trips.Get(ctx, tripID)
}

// AnalyzeTrip runs the full analysis of one trip: overall score from the
// smoothed motion stream, then one feedback record per registered pin.
// Pin evaluations run concurrently; a failed pin does not block the
// others.
func (s *AnalysisService) AnalyzeTrip(ctx context.Context, tripID string) (models.TripScore, []models.FocusFeedback, error) {
	started := time.Now()
	defer func() {
		metrics.AnalysisDuration.Observe(time.Since(started).Seconds())
	}()

	trip, err := s.trips.Get(ctx, tripID)
	if err != nil {
		return models.TripScore{}, nil, err
	}

	score, err := s.scoreTrip(ctx, trip)
	if err != nil {
		return models.TripScore{}, nil, err
	}

	feedbacks, err := s.evaluatePins(ctx, trip)
	if err != nil {
		return models.TripScore{}, nil, err
	}

	return score, feedbacks, nil
}

func (s *AnalysisService) scoreTrip(ctx context.Context, trip models.Trip) (models.TripScore, error) {
	smoothed, err := s.telemetry.GetSmoothed(ctx, trip.ID)
	if err != nil {
		return models.TripScore{}, err
	}

	js, err := s.jerk.Calculate(smoothed)
	if err != nil {
		return models.TripScore{}, fmt.Errorf("jerk analysis for trip %s: %w", trip.ID, err)
	}

	overall, comment := s.scorer.Score(js)
	score := models.TripScore{
		TripID:       trip.ID,
		OverallScore: overall,
		ScoreComment: comment,
		JerkStats:    js,
		Weights:      models.ScoreWeights{A: s.scorer.WeightA, B: s.scorer.WeightB},
		ScoringMode:  models.ScoringModeLog1p,
		SampleRateHz: s.jerk.SampleRateHz,
	}

	if err := s.scores.Upsert(ctx, score); err != nil {
		return models.TripScore{}, err
	}
	metrics.TripsScored.Inc()
	return score, nil
}

func (s *AnalysisService) evaluatePins(ctx context.Context, trip models.Trip) ([]models.FocusFeedback, error) {
	pins, err := s.pins.ListByUser(ctx, trip.UserID, trip.RouteID)
	if err != nil {
		return nil, err
	}
	if len(pins) == 0 {
		return nil, nil
	}

	fixes, err := s.telemetry.GetPositions(ctx, trip.ID)
	if err != nil {
		return nil, err
	}
	smoothed, err := s.telemetry.GetSmoothed(ctx, trip.ID)
	if err != nil {
		return nil, err
	}

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		feedbacks []models.FocusFeedback
		firstErr  error
	)
	for _, pin := range pins {
		wg.Add(1)
		go func(pin models.FocusPoint) {
			defer wg.Done()

			fb, err := s.evaluator.Evaluate(ctx, trip, pin, fixes, smoothed)
			if err == nil {
				err = s.feedbacks.Upsert(ctx, fb)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("evaluate pin %s on trip %s: %v", pin.ID, trip.ID, err)
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			feedbacks = append(feedbacks, fb)
		}(pin)
	}
	wg.Wait()

	if firstErr != nil && len(feedbacks) == 0 {
		return nil, firstErr
	}
	return feedbacks, nil
}

// BackfillFeedbackScores fills in the rating and score of feedback
// records persisted before scoring existed, using their stored stats.
// Records with empty stats or an unknown focus type are skipped.
// Returns the number of records updated.
func (s *AnalysisService) BackfillFeedbackScores(ctx context.Context, userID string) (int, error) {
	missing, err := s.feedbacks.ListMissingScores(ctx, userID)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, fb := range missing {
		if fb.Stats.IsZero() {
			continue
		}
		rating, score, err := analysis.RateFocus(fb.Stats, fb.FocusType)
		if err != nil {
			log.Printf("backfill skip (%s, %s): %v", fb.TripID, fb.PinID, err)
			continue
		}
		if err := s.feedbacks.SetScore(ctx, fb.TripID, fb.PinID, rating, score); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// BackfillScores scores every completed trip of a user that has no
// stored score yet. Returns the number of trips scored.
func (s *AnalysisService) BackfillScores(ctx context.Context, userID string) (int, error) {
	ids, err := s.scores.ListUnscoredCompleted(ctx, userID)
	if err != nil {
		return 0, err
	}

	scored := 0
	for _, id := range ids {
		trip, err := s.trips.Get(ctx, id)
		if err != nil {
			return scored, err
		}
		if _, err := s.scoreTrip(ctx, trip); err != nil {
			return scored, err
		}
		scored++
	}
	return scored, nil
}
