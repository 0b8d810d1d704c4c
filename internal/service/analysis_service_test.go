package service

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/driveloop/drivescore-backend-go/internal/analysis"
	"github.com/driveloop/drivescore-backend-go/internal/comment"
	"github.com/driveloop/drivescore-backend-go/internal/config"
	"github.com/driveloop/drivescore-backend-go/internal/database"
	"github.com/driveloop/drivescore-backend-go/internal/models"
	"github.com/driveloop/drivescore-backend-go/internal/repository"
)

type testEnv struct {
	svc       *AnalysisService
	pins      *repository.FocusPointRepository
	feedbacks *repository.FeedbackRepository
	scores    *repository.ScoreRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.InitSchema(db); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	trips := repository.NewTripRepository(db)
	telemetry := repository.NewTelemetryRepository(db)
	pins := repository.NewFocusPointRepository(db)
	feedbacks := repository.NewFeedbackRepository(db)
	scores := repository.NewScoreRepository(db)

	cfg := config.Default()
	evaluator := analysis.NewFocusPointEvaluator(
		analysis.NewFocusPointMatcher(cfg.MaxPassDistanceM),
		feedbacks,
		comment.TemplateGenerator{},
		cfg.HistoryLimit,
	)
	svc := NewAnalysisService(trips, telemetry, pins, feedbacks, scores, evaluator, cfg)

	return &testEnv{svc: svc, pins: pins, feedbacks: feedbacks, scores: scores}
}

// smoothBundle builds a calm recording: a straight 10-fix track heading
// north from (35, 139) and a steady smoothed motion stream.
func smoothBundle(userID string) TripBundle {
	bundle := TripBundle{
		Trip: models.Trip{UserID: userID, StartTimeMs: 1_000},
	}
	for i := 0; i < 10; i++ {
		bundle.Positions = append(bundle.Positions, models.PositionSample{
			Latitude:    35.0 + float64(i)*0.001,
			Longitude:   139.0,
			Speed:       40,
			TimestampMs: 1_000 + int64(i)*1_000,
		})
	}
	for i := 0; i < 20; i++ {
		bundle.Motion = append(bundle.Motion, models.MotionSample{
			GX: 0.02, GZ: 0.05, Speed: 40,
			TimestampMs: 1_000 + int64(i)*100,
		})
	}
	for i := 0; i < 20; i++ {
		s := models.MotionSample{
			GX: 0.02, GZ: 0.05, Speed: 40,
			TimestampMs: 1_000 + int64(i)*100,
		}
		if i == 19 {
			s.DistanceKm = 1.0
		}
		bundle.Smoothed = append(bundle.Smoothed, s)
	}
	return bundle
}

func TestIngestAndCompleteTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	bundle := smoothBundle("user-1")
	// One hard brake and one placeholder fix to exercise filtering. The
	// placeholder is dropped at ingest, so its timestamp never counts.
	bundle.Motion = append(bundle.Motion, models.MotionSample{GZ: -0.4, TimestampMs: 3_050})
	bundle.Positions = append(bundle.Positions, models.PositionSample{TimestampMs: 11_000})

	trip, err := env.svc.IngestTrip(ctx, bundle)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if trip.ID == "" {
		t.Fatal("ingest returned empty trip ID")
	}

	trip, err = env.svc.CompleteTrip(ctx, trip.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if trip.Status != models.TripStatusCompleted {
		t.Errorf("status = %q, want completed", trip.Status)
	}
	// 9 hops of ~111 m each.
	if trip.DistanceKm < 0.9 || trip.DistanceKm > 1.1 {
		t.Errorf("DistanceKm = %v, want about 1.0", trip.DistanceKm)
	}
	if trip.SuddenBrakes != 1 {
		t.Errorf("SuddenBrakes = %d, want 1", trip.SuddenBrakes)
	}
	if trip.SuddenAccels != 0 || trip.SharpTurns != 0 {
		t.Errorf("counters = (%d, %d), want (0, 0)", trip.SuddenAccels, trip.SharpTurns)
	}
	if trip.EndTimeMs != 10_000 {
		t.Errorf("EndTimeMs = %d, want 10000", trip.EndTimeMs)
	}
}

func TestAnalyzeTripNoData(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	trip, err := env.svc.IngestTrip(ctx, TripBundle{Trip: models.Trip{UserID: "user-1"}})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	score, feedbacks, err := env.svc.AnalyzeTrip(ctx, trip.ID)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if score.OverallScore != 0 {
		t.Errorf("OverallScore = %d, want 0", score.OverallScore)
	}
	if !strings.Contains(score.ScoreComment, "data insufficient") {
		t.Errorf("ScoreComment = %q, want it to mention data insufficient", score.ScoreComment)
	}
	if len(feedbacks) != 0 {
		t.Errorf("got %d feedbacks without pins, want 0", len(feedbacks))
	}
}

func TestAnalyzeSmoothTripWithPin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pin, err := env.pins.Save(ctx, models.FocusPoint{
		UserID: "user-1", Latitude: 35.0, Longitude: 139.0,
		Label: "home corner", FocusType: models.FocusBrakeSoft, FocusLabel: "brake softly",
	})
	if err != nil {
		t.Fatalf("save pin: %v", err)
	}

	trip, err := env.svc.IngestTrip(ctx, smoothBundle("user-1"))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if _, err := env.svc.CompleteTrip(ctx, trip.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	score, feedbacks, err := env.svc.AnalyzeTrip(ctx, trip.ID)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if score.OverallScore != 100 {
		t.Errorf("OverallScore = %d, want 100 for a calm trip", score.OverallScore)
	}
	if score.ScoringMode != models.ScoringModeLog1p {
		t.Errorf("ScoringMode = %q, want %q", score.ScoringMode, models.ScoringModeLog1p)
	}

	if len(feedbacks) != 1 {
		t.Fatalf("got %d feedbacks, want 1", len(feedbacks))
	}
	fb := feedbacks[0]
	if fb.PinID != pin.ID || !fb.Passed {
		t.Errorf("feedback = %+v, want passed for pin %s", fb, pin.ID)
	}
	if fb.Score == nil || fb.Rating != models.RatingVeryGood {
		t.Errorf("rating/score = (%q, %v), want very good with a score", fb.Rating, fb.Score)
	}

	stored, err := env.scores.Get(ctx, trip.ID)
	if err != nil {
		t.Fatalf("stored score: %v", err)
	}
	if stored.OverallScore != score.OverallScore {
		t.Errorf("stored score = %d, want %d", stored.OverallScore, score.OverallScore)
	}
}

func TestAnalyzeTripIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.pins.Save(ctx, models.FocusPoint{
		UserID: "user-1", Latitude: 35.0, Longitude: 139.0,
		FocusType: models.FocusBrakeSoft,
	}); err != nil {
		t.Fatalf("save pin: %v", err)
	}

	trip, err := env.svc.IngestTrip(ctx, smoothBundle("user-1"))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if _, err := env.svc.CompleteTrip(ctx, trip.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	first, _, err := env.svc.AnalyzeTrip(ctx, trip.ID)
	if err != nil {
		t.Fatalf("first analyze: %v", err)
	}
	second, _, err := env.svc.AnalyzeTrip(ctx, trip.ID)
	if err != nil {
		t.Fatalf("second analyze: %v", err)
	}

	if first.OverallScore != second.OverallScore {
		t.Errorf("scores differ across runs: %d vs %d", first.OverallScore, second.OverallScore)
	}
	stored, err := env.feedbacks.ListByTrip(ctx, trip.ID)
	if err != nil {
		t.Fatalf("list feedbacks: %v", err)
	}
	if len(stored) != 1 {
		t.Errorf("got %d feedback rows after re-run, want 1", len(stored))
	}
}

func TestSecondTripGetsHistoricalDiff(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.pins.Save(ctx, models.FocusPoint{
		UserID: "user-1", Latitude: 35.0, Longitude: 139.0,
		FocusType: models.FocusBrakeSoft,
	}); err != nil {
		t.Fatalf("save pin: %v", err)
	}

	runTrip := func() []models.FocusFeedback {
		trip, err := env.svc.IngestTrip(ctx, smoothBundle("user-1"))
		if err != nil {
			t.Fatalf("ingest: %v", err)
		}
		if _, err := env.svc.CompleteTrip(ctx, trip.ID); err != nil {
			t.Fatalf("complete: %v", err)
		}
		_, feedbacks, err := env.svc.AnalyzeTrip(ctx, trip.ID)
		if err != nil {
			t.Fatalf("analyze: %v", err)
		}
		return feedbacks
	}

	first := runTrip()
	if len(first) != 1 || first[0].Diff != nil {
		t.Fatalf("first trip feedback = %+v, want standalone (nil diff)", first)
	}

	second := runTrip()
	if len(second) != 1 {
		t.Fatalf("got %d feedbacks, want 1", len(second))
	}
	if second[0].Diff == nil {
		t.Error("second trip Diff = nil, want deltas against the first trip")
	}
}

func TestBackfillFeedbackScores(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	trip, err := env.svc.IngestTrip(ctx, TripBundle{Trip: models.Trip{UserID: "user-1"}})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	// A record persisted before scoring existed: stats but no score.
	legacy := models.FocusFeedback{
		TripID: trip.ID, PinID: "pin-legacy", FocusType: models.FocusBrakeSoft,
		Passed: true, Rating: models.RatingGood,
		Stats: models.DetailedStats{MeanGZ: -0.15, StdGZ: 0.06, AvgSpeed: 30, DataPoints: 20},
	}
	if err := env.feedbacks.Upsert(ctx, legacy); err != nil {
		t.Fatalf("upsert legacy feedback: %v", err)
	}
	// One with empty stats stays untouched.
	empty := models.FocusFeedback{
		TripID: trip.ID, PinID: "pin-empty", FocusType: models.FocusBrakeSoft,
		Rating: models.RatingNone,
	}
	if err := env.feedbacks.Upsert(ctx, empty); err != nil {
		t.Fatalf("upsert empty feedback: %v", err)
	}

	n, err := env.svc.BackfillFeedbackScores(ctx, "user-1")
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if n != 1 {
		t.Errorf("backfilled %d records, want 1", n)
	}

	stored, err := env.feedbacks.ListByTrip(ctx, trip.ID)
	if err != nil {
		t.Fatalf("list feedbacks: %v", err)
	}
	for _, fb := range stored {
		switch fb.PinID {
		case "pin-legacy":
			// 100 - (0.15-0.10)*400 - (0.06-0.04)*500 = 70
			if fb.Score == nil || *fb.Score != 70 {
				t.Errorf("legacy score = %v, want 70", fb.Score)
			}
			if fb.Rating != models.RatingAverage {
				t.Errorf("legacy rating = %q, want %q", fb.Rating, models.RatingAverage)
			}
		case "pin-empty":
			if fb.Score != nil {
				t.Errorf("empty-stats record got score %d", *fb.Score)
			}
		}
	}
}

func TestBackfillScores(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	trip, err := env.svc.IngestTrip(ctx, smoothBundle("user-1"))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if _, err := env.svc.CompleteTrip(ctx, trip.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	n, err := env.svc.BackfillScores(ctx, "user-1")
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if n != 1 {
		t.Errorf("backfilled %d trips, want 1", n)
	}

	if _, err := env.scores.Get(ctx, trip.ID); err != nil {
		t.Errorf("score missing after backfill: %v", err)
	}

	// A second pass finds nothing left to score.
	n, err = env.svc.BackfillScores(ctx, "user-1")
	if err != nil {
		t.Fatalf("second backfill: %v", err)
	}
	if n != 0 {
		t.Errorf("second backfill scored %d trips, want 0", n)
	}
}
