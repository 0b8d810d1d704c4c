package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/driveloop/drivescore-backend-go/internal/models"
)

// ScoreRepository persists per-trip overall scores.
type ScoreRepository struct {
	db *sql.DB
}

// NewScoreRepository creates a score repository.
func NewScoreRepository(db *sql.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// Upsert writes the score for a trip, replacing any earlier result.
func (r *ScoreRepository) Upsert(ctx context.Context, score models.TripScore) error {
	jerkJSON, err := json.Marshal(score.JerkStats)
	if err != nil {
		return fmt.Errorf("marshal jerk stats: %w", err)
	}
	weightsJSON, err := json.Marshal(score.Weights)
	if err != nil {
		return fmt.Errorf("marshal weights: %w", err)
	}

	calculatedAt := score.CalculatedAt
	if calculatedAt.IsZero() {
		calculatedAt = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO trip_scores (trip_id, overall_score, score_comment, jerk_stats,
			weights, scoring_mode, sample_rate_hz, calculated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (trip_id) DO UPDATE SET
			overall_score = excluded.overall_score,
			score_comment = excluded.score_comment,
			jerk_stats = excluded.jerk_stats,
			weights = excluded.weights,
			scoring_mode = excluded.scoring_mode,
			sample_rate_hz = excluded.sample_rate_hz,
			calculated_at = excluded.calculated_at`,
		score.TripID, score.OverallScore, score.ScoreComment, string(jerkJSON),
		string(weightsJSON), score.ScoringMode, score.SampleRateHz, calculatedAt)
	if err != nil {
		return fmt.Errorf("upsert trip score: %w", err)
	}
	return nil
}

// Get returns the stored score for a trip.
func (r *ScoreRepository) Get(ctx context.Context, tripID string) (models.TripScore, error) {
	var s models.TripScore
	var jerkJSON, weightsJSON string
	err := r.db.QueryRowContext(ctx, `
		SELECT trip_id, overall_score, score_comment, jerk_stats,
			weights, scoring_mode, sample_rate_hz, calculated_at
		FROM trip_scores WHERE trip_id = ?`, tripID).Scan(
		&s.TripID, &s.OverallScore, &s.ScoreComment, &jerkJSON,
		&weightsJSON, &s.ScoringMode, &s.SampleRateHz, &s.CalculatedAt)
	if err != nil {
		return models.TripScore{}, fmt.Errorf("get trip score %s: %w", tripID, err)
	}
	if err := json.Unmarshal([]byte(jerkJSON), &s.JerkStats); err != nil {
		return models.TripScore{}, fmt.Errorf("unmarshal jerk stats: %w", err)
	}
	if err := json.Unmarshal([]byte(weightsJSON), &s.Weights); err != nil {
		return models.TripScore{}, fmt.Errorf("unmarshal weights: %w", err)
	}
	return s, nil
}

// Exists reports whether a trip already has a stored score.
func (r *ScoreRepository) Exists(ctx context.Context, tripID string) (bool, error) {
	_, err := r.Get(ctx, tripID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, err
}

// ListUnscoredCompleted returns the IDs of completed trips with no
// stored score, oldest first. Used by the score backfill.
func (r *ScoreRepository) ListUnscoredCompleted(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id
		FROM trips t
		LEFT JOIN trip_scores s ON s.trip_id = t.id
		WHERE t.user_id = ? AND t.status = ? AND s.trip_id IS NULL
		ORDER BY t.end_time_ms`, userID, models.TripStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("list unscored trips: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan trip id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
