package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/driveloop/drivescore-backend-go/internal/models"
)

// FeedbackRepository persists focus point feedback records. It also
// serves as the history provider for pin evaluation.
type FeedbackRepository struct {
	db *sql.DB
}

// NewFeedbackRepository creates a feedback repository.
func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Upsert writes the feedback for one (trip, pin) pair, replacing any
// earlier record so re-running analysis is idempotent.
func (r *FeedbackRepository) Upsert(ctx context.Context, fb models.FocusFeedback) error {
	statsJSON, err := json.Marshal(fb.Stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	var diffJSON any
	if fb.Diff != nil {
		data, err := json.Marshal(fb.Diff)
		if err != nil {
			return fmt.Errorf("marshal diff: %w", err)
		}
		diffJSON = string(data)
	}

	createdAt := fb.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO focus_feedbacks (trip_id, pin_id, pin_label, focus_type, focus_label,
			passed, stats, diff, rating, score, ai_comment, short_comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (trip_id, pin_id) DO UPDATE SET
			pin_label = excluded.pin_label,
			focus_type = excluded.focus_type,
			focus_label = excluded.focus_label,
			passed = excluded.passed,
			stats = excluded.stats,
			diff = excluded.diff,
			rating = excluded.rating,
			score = excluded.score,
			ai_comment = excluded.ai_comment,
			short_comment = excluded.short_comment`,
		fb.TripID, fb.PinID, fb.PinLabel, fb.FocusType, fb.FocusLabel,
		fb.Passed, string(statsJSON), diffJSON, fb.Rating, fb.Score, fb.AIComment, fb.ShortComment, createdAt)
	if err != nil {
		return fmt.Errorf("upsert feedback: %w", err)
	}
	return nil
}

// ListByTrip returns every feedback record of a trip.
func (r *FeedbackRepository) ListByTrip(ctx context.Context, tripID string) ([]models.FocusFeedback, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT trip_id, pin_id, pin_label, focus_type, focus_label,
			passed, stats, diff, rating, score, ai_comment, short_comment, created_at
		FROM focus_feedbacks WHERE trip_id = ? ORDER BY pin_id`, tripID)
	if err != nil {
		return nil, fmt.Errorf("list feedbacks: %w", err)
	}
	defer rows.Close()

	var out []models.FocusFeedback
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, fb)
	}
	return out, rows.Err()
}

func scanFeedback(rows *sql.Rows) (models.FocusFeedback, error) {
	var fb models.FocusFeedback
	var statsJSON string
	var diffJSON sql.NullString
	var score sql.NullInt64
	if err := rows.Scan(&fb.TripID, &fb.PinID, &fb.PinLabel, &fb.FocusType, &fb.FocusLabel,
		&fb.Passed, &statsJSON, &diffJSON, &fb.Rating, &score, &fb.AIComment, &fb.ShortComment, &fb.CreatedAt); err != nil {
		return models.FocusFeedback{}, fmt.Errorf("scan feedback: %w", err)
	}
	if err := json.Unmarshal([]byte(statsJSON), &fb.Stats); err != nil {
		return models.FocusFeedback{}, fmt.Errorf("unmarshal stats: %w", err)
	}
	if diffJSON.Valid {
		var diff models.DiffStats
		if err := json.Unmarshal([]byte(diffJSON.String), &diff); err != nil {
			return models.FocusFeedback{}, fmt.Errorf("unmarshal diff: %w", err)
		}
		fb.Diff = &diff
	}
	if score.Valid {
		v := int(score.Int64)
		fb.Score = &v
	}
	return fb, nil
}

// ListMissingScores returns a user's feedback records that carry no
// score yet, oldest first. Used by the feedback score backfill.
func (r *FeedbackRepository) ListMissingScores(ctx context.Context, userID string) ([]models.FocusFeedback, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT f.trip_id, f.pin_id, f.pin_label, f.focus_type, f.focus_label,
			f.passed, f.stats, f.diff, f.rating, f.score, f.ai_comment, f.short_comment, f.created_at
		FROM focus_feedbacks f
		JOIN trips t ON t.id = f.trip_id
		WHERE t.user_id = ? AND f.score IS NULL
		ORDER BY f.created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list feedbacks missing scores: %w", err)
	}
	defer rows.Close()

	var out []models.FocusFeedback
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, fb)
	}
	return out, rows.Err()
}

// SetScore writes a backfilled rating and score onto an existing
// feedback record.
func (r *FeedbackRepository) SetScore(ctx context.Context, tripID, pinID, rating string, score int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE focus_feedbacks SET rating = ?, score = ?
		WHERE trip_id = ? AND pin_id = ?`, rating, score, tripID, pinID)
	if err != nil {
		return fmt.Errorf("set feedback score: %w", err)
	}
	return nil
}

// PreviousStats returns the most recent nonzero stats recorded for the
// pin on an earlier completed trip of the same user, or nil when none
// exist.
func (r *FeedbackRepository) PreviousStats(ctx context.Context, userID, pinID, excludeTripID string) (*models.DetailedStats, error) {
	history, err := r.History(ctx, userID, pinID, excludeTripID, 1)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, nil
	}
	stats := history[0].Stats
	return &stats, nil
}

// History returns up to limit past evaluations of the pin with nonzero
// stats, newest first, walking the user's completed trips and skipping
// the trip under analysis.
func (r *FeedbackRepository) History(ctx context.Context, userID, pinID, excludeTripID string, limit int) ([]models.HistoricalFeedback, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT f.trip_id, f.stats, f.rating, f.created_at
		FROM focus_feedbacks f
		JOIN trips t ON t.id = f.trip_id
		WHERE t.user_id = ? AND t.status = ? AND f.pin_id = ? AND f.trip_id != ?
		ORDER BY t.end_time_ms DESC`,
		userID, models.TripStatusCompleted, pinID, excludeTripID)
	if err != nil {
		return nil, fmt.Errorf("query feedback history: %w", err)
	}
	defer rows.Close()

	var out []models.HistoricalFeedback
	for rows.Next() {
		var h models.HistoricalFeedback
		var statsJSON string
		if err := rows.Scan(&h.TripID, &statsJSON, &h.Rating, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback history: %w", err)
		}
		if err := json.Unmarshal([]byte(statsJSON), &h.Stats); err != nil {
			return nil, fmt.Errorf("unmarshal history stats: %w", err)
		}
		// Records from missed or empty-window runs carry no signal.
		if h.Stats.IsZero() {
			continue
		}
		out = append(out, h)
		if len(out) == limit {
			break
		}
	}
	return out, rows.Err()
}
