// Command analyzer ingests recorded trips and runs the scoring and
// focus point evaluation pipeline against the local database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/time/rate"

	"github.com/driveloop/drivescore-backend-go/internal/analysis"
	"github.com/driveloop/drivescore-backend-go/internal/comment"
	"github.com/driveloop/drivescore-backend-go/internal/config"
	"github.com/driveloop/drivescore-backend-go/internal/database"
	"github.com/driveloop/drivescore-backend-go/internal/metrics"
	"github.com/driveloop/drivescore-backend-go/internal/repository"
	"github.com/driveloop/drivescore-backend-go/internal/service"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		ingestPath = flag.String("ingest", "", "path to a trip bundle JSON to ingest, complete and analyze")
		tripID     = flag.String("trip", "", "ID of an already stored trip to analyze")
		backfill   = flag.String("backfill", "", "user ID whose completed trips get missing scores backfilled")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	metrics.RegisterDefault()

	db, err := database.Open(database.Config{Path: cfg.DBPath})
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := database.InitSchema(db); err != nil {
		log.Fatalf("init schema: %v", err)
	}

	trips := repository.NewTripRepository(db)
	telemetry := repository.NewTelemetryRepository(db)
	pins := repository.NewFocusPointRepository(db)
	feedbacks := repository.NewFeedbackRepository(db)
	scores := repository.NewScoreRepository(db)

	generator := comment.NewResilient(nil, rate.NewLimiter(rate.Limit(cfg.CommentRatePerSec), 1), cfg.CommentRetries)
	matcher := analysis.NewFocusPointMatcher(cfg.MaxPassDistanceM)
	evaluator := analysis.NewFocusPointEvaluator(matcher, feedbacks, generator, cfg.HistoryLimit)

	svc := service.NewAnalysisService(trips, telemetry, pins, feedbacks, scores, evaluator, cfg)

	ctx := context.Background()

	switch {
	case *ingestPath != "":
		if err := runIngest(ctx, svc, *ingestPath); err != nil {
			log.Fatalf("ingest: %v", err)
		}
	case *tripID != "":
		if err := runAnalyze(ctx, svc, *tripID); err != nil {
			log.Fatalf("analyze: %v", err)
		}
	case *backfill != "":
		trips, err := svc.BackfillScores(ctx, *backfill)
		if err != nil {
			log.Fatalf("backfill trip scores: %v", err)
		}
		feedbacks, err := svc.BackfillFeedbackScores(ctx, *backfill)
		if err != nil {
			log.Fatalf("backfill feedback scores: %v", err)
		}
		log.Printf("backfilled %d trip scores and %d feedback scores", trips, feedbacks)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runIngest(ctx context.Context, svc *service.AnalysisService, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read bundle: %w", err)
	}

	var bundle service.TripBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return fmt.Errorf("parse bundle: %w", err)
	}

	trip, err := svc.IngestTrip(ctx, bundle)
	if err != nil {
		return err
	}
	log.Printf("ingested trip %s (%d fixes, %d motion samples)", trip.ID, len(bundle.Positions), len(bundle.Motion))

	trip, err = svc.CompleteTrip(ctx, trip.ID)
	if err != nil {
		return err
	}
	log.Printf("completed trip %s: %.3f km, %d accel / %d brake / %d turn events",
		trip.ID, trip.DistanceKm, trip.SuddenAccels, trip.SuddenBrakes, trip.SharpTurns)

	return runAnalyze(ctx, svc, trip.ID)
}

func runAnalyze(ctx context.Context, svc *service.AnalysisService, tripID string) error {
	score, feedbacks, err := svc.AnalyzeTrip(ctx, tripID)
	if err != nil {
		return err
	}
	log.Printf("trip %s scored %d (%s)", tripID, score.OverallScore, score.ScoreComment)
	for _, fb := range feedbacks {
		if fb.Score != nil {
			log.Printf("  pin %s [%s]: %s (%d)", fb.PinID, fb.FocusType, fb.Rating, *fb.Score)
		} else {
			log.Printf("  pin %s [%s]: %s", fb.PinID, fb.FocusType, fb.Rating)
		}
	}
	return nil
}
