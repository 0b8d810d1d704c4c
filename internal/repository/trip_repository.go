// Package repository implements SQLite persistence for trips, telemetry
// logs, focus points and analysis results.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/driveloop/drivescore-backend-go/internal/models"
)

// TripRepository persists trips.
type TripRepository struct {
	db *sql.DB
}

// NewTripRepository creates a trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{db: db}
}

// Create inserts a new trip. An empty ID gets a generated one; the
// returned trip carries the final ID.
func (r *TripRepository) Create(ctx context.Context, trip models.Trip) (models.Trip, error) {
	if trip.ID == "" {
		trip.ID = uuid.NewString()
	}
	if trip.Status == "" {
		trip.Status = models.TripStatusActive
	}
	if trip.CreatedAt.IsZero() {
		trip.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO trips (id, user_id, route_id, status, start_time_ms, end_time_ms,
			distance_km, sudden_accels, sudden_brakes, sharp_turns, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trip.ID, trip.UserID, trip.RouteID, trip.Status, trip.StartTimeMs, trip.EndTimeMs,
		trip.DistanceKm, trip.SuddenAccels, trip.SuddenBrakes, trip.SharpTurns, trip.CreatedAt)
	if err != nil {
		return models.Trip{}, fmt.Errorf("create trip: %w", err)
	}
	return trip, nil
}

// Get returns the trip with the given id.
func (r *TripRepository) Get(ctx context.Context, id string) (models.Trip, error) {
	var t models.Trip
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, route_id, status, start_time_ms, end_time_ms,
			distance_km, sudden_accels, sudden_brakes, sharp_turns, created_at
		FROM trips WHERE id = ?`, id).Scan(
		&t.ID, &t.UserID, &t.RouteID, &t.Status, &t.StartTimeMs, &t.EndTimeMs,
		&t.DistanceKm, &t.SuddenAccels, &t.SuddenBrakes, &t.SharpTurns, &t.CreatedAt)
	if err != nil {
		return models.Trip{}, fmt.Errorf("get trip %s: %w", id, err)
	}
	return t, nil
}

// Complete marks a trip completed and writes its end-of-trip aggregates.
func (r *TripRepository) Complete(ctx context.Context, id string, endTimeMs int64, distanceKm float64, suddenAccels, suddenBrakes, sharpTurns int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE trips
		SET status = ?, end_time_ms = ?, distance_km = ?,
			sudden_accels = ?, sudden_brakes = ?, sharp_turns = ?
		WHERE id = ?`,
		models.TripStatusCompleted, endTimeMs, distanceKm,
		suddenAccels, suddenBrakes, sharpTurns, id)
	if err != nil {
		return fmt.Errorf("complete trip %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("complete trip %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// ListCompletedByUser returns the user's completed trips, newest first.
func (r *TripRepository) ListCompletedByUser(ctx context.Context, userID string) ([]models.Trip, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, route_id, status, start_time_ms, end_time_ms,
			distance_km, sudden_accels, sudden_brakes, sharp_turns, created_at
		FROM trips
		WHERE user_id = ? AND status = ?
		ORDER BY end_time_ms DESC`, userID, models.TripStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("list completed trips: %w", err)
	}
	defer rows.Close()

	var trips []models.Trip
	for rows.Next() {
		var t models.Trip
		if err := rows.Scan(&t.ID, &t.UserID, &t.RouteID, &t.Status, &t.StartTimeMs, &t.EndTimeMs,
			&t.DistanceKm, &t.SuddenAccels, &t.SuddenBrakes, &t.SharpTurns, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan trip: %w", err)
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}
