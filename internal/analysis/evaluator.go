package analysis

import (
	"context"
	"log"

	"github.com/driveloop/drivescore-backend-go/internal/comment"
	"github.com/driveloop/drivescore-backend-go/internal/metrics"
	"github.com/driveloop/drivescore-backend-go/internal/models"
)

// DefaultHistoryLimit caps how many past evaluations of the same pin are
// handed to the comment generator.
const DefaultHistoryLimit = 3

// HistoricalStatsProvider supplies past evaluations of a pin for the
// same user, excluding the trip under analysis. Implemented by the
// feedback repository.
type HistoricalStatsProvider interface {
	// PreviousStats returns the most recent nonzero stats recorded for
	// the pin, or nil when none exist.
	PreviousStats(ctx context.Context, userID, pinID, excludeTripID string) (*models.DetailedStats, error)

	// History returns up to limit past evaluations, newest first.
	History(ctx context.Context, userID, pinID, excludeTripID string, limit int) ([]models.HistoricalFeedback, error)
}

// FocusPointEvaluator runs the full per-pin evaluation: window matching,
// aggregation, rating, historical comparison and comment generation.
type FocusPointEvaluator struct {
	Matcher      *FocusPointMatcher
	History      HistoricalStatsProvider
	Comments     comment.Generator
	HistoryLimit int
}

// NewFocusPointEvaluator wires an evaluator. History may be nil, in
// which case every evaluation is standalone. A nil comments generator
// falls back to the deterministic template.
func NewFocusPointEvaluator(matcher *FocusPointMatcher, history HistoricalStatsProvider, comments comment.Generator, historyLimit int) *FocusPointEvaluator {
	if matcher == nil {
		matcher = NewFocusPointMatcher(0)
	}
	if comments == nil {
		comments = comment.TemplateGenerator{}
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &FocusPointEvaluator{
		Matcher:      matcher,
		History:      history,
		Comments:     comments,
		HistoryLimit: historyLimit,
	}
}

// Evaluate produces the feedback record for one pin on one trip. The
// only hard failure is an unknown focus type; missed pins and empty
// windows produce a feedback record describing that outcome, so every
// registered pin gets exactly one record per analyzed trip.
func (e *FocusPointEvaluator) Evaluate(ctx context.Context, trip models.Trip, pin models.FocusPoint, fixes []models.PositionSample, motion []models.MotionSample) (models.FocusFeedback, error) {
	fb := models.FocusFeedback{
		TripID:     trip.ID,
		PinID:      pin.ID,
		PinLabel:   pin.Label,
		FocusType:  pin.FocusType,
		FocusLabel: pin.FocusLabel,
	}

	match, err := e.Matcher.Match(pin, fixes, motion)
	if err != nil {
		return models.FocusFeedback{}, err
	}

	if !match.Passed {
		fb.Rating = models.RatingNone
		fb.AIComment = NotPassedComment
		fb.ShortComment = comment.Summarize(NotPassedComment, comment.ShortCommentMaxRunes)
		metrics.FocusEvaluations.WithLabelValues(metrics.ResultNotPassed).Inc()
		return fb, nil
	}

	fb.Passed = true
	fb.Stats = CalculateDetailedStats(match.Samples)

	// A passed pin with a too-small window must not reach the rating
	// formulas: empty stats would rate as perfect.
	if fb.Stats.DataPoints < MinSamplesForStats {
		fb.Rating = models.RatingNone
		fb.AIComment = InsufficientLogComment
		fb.ShortComment = comment.Summarize(InsufficientLogComment, comment.ShortCommentMaxRunes)
		metrics.FocusEvaluations.WithLabelValues(metrics.ResultNoData).Inc()
		return fb, nil
	}

	rating, score, err := RateFocus(fb.Stats, pin.FocusType)
	if err != nil {
		return models.FocusFeedback{}, err
	}
	fb.Rating = rating
	fb.Score = &score

	prev, history := e.lookupHistory(ctx, trip, pin)
	diff, diffTextStr := CompareStats(prev, fb.Stats)
	fb.Diff = diff

	text, err := e.Comments.Generate(ctx, fb.Stats, comment.Context{
		FocusLabel: pin.FocusLabel,
		Rating:     rating,
		DiffText:   diffTextStr,
		Diff:       diff,
		History:    history,
		Raw:        match.Samples,
	})
	if err != nil {
		// The resilient generator never errors, but a caller-supplied
		// one might. Keep the evaluation and use the template.
		log.Printf("comment generation failed for pin %s: %v", pin.ID, err)
		text, _ = comment.TemplateGenerator{}.Generate(ctx, fb.Stats, comment.Context{
			FocusLabel: pin.FocusLabel,
			Rating:     rating,
			DiffText:   diffTextStr,
		})
	}
	fb.AIComment = text
	fb.ShortComment = comment.Summarize(text, comment.ShortCommentMaxRunes)

	metrics.FocusEvaluations.WithLabelValues(metrics.ResultEvaluated).Inc()
	return fb, nil
}

// lookupHistory fetches the previous stats and recent history for the
// pin. Lookup failures degrade to a standalone evaluation rather than
// failing the pipeline.
func (e *FocusPointEvaluator) lookupHistory(ctx context.Context, trip models.Trip, pin models.FocusPoint) (*models.DetailedStats, []models.HistoricalFeedback) {
	if e.History == nil {
		return nil, nil
	}

	prev, err := e.History.PreviousStats(ctx, trip.UserID, pin.ID, trip.ID)
	if err != nil {
		log.Printf("previous stats lookup failed for pin %s: %v", pin.ID, err)
		return nil, nil
	}

	history, err := e.History.History(ctx, trip.UserID, pin.ID, trip.ID, e.HistoryLimit)
	if err != nil {
		log.Printf("history lookup failed for pin %s: %v", pin.ID, err)
		history = nil
	}

	return prev, history
}
