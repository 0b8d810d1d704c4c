package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/driveloop/drivescore-backend-go/internal/models"
)

// TelemetryRepository persists the raw GPS track, the raw motion stream
// and the smoothed motion stream of each trip.
type TelemetryRepository struct {
	db *sql.DB
}

// NewTelemetryRepository creates a telemetry repository.
func NewTelemetryRepository(db *sql.DB) *TelemetryRepository {
	return &TelemetryRepository{db: db}
}

// SavePositions bulk-inserts GPS fixes for a trip in one transaction.
func (r *TelemetryRepository) SavePositions(ctx context.Context, tripID string, fixes []models.PositionSample) error {
	return r.bulkInsert(ctx, `
		INSERT INTO gps_logs (trip_id, lat, lng, speed, timestamp_ms, event)
		VALUES (?, ?, ?, ?, ?, ?)`,
		len(fixes), func(stmt *sql.Stmt, i int) error {
			f := fixes[i]
			_, err := stmt.ExecContext(ctx, tripID, f.Latitude, f.Longitude, f.Speed, f.TimestampMs, f.Event)
			return err
		})
}

// SaveMotion bulk-inserts raw motion samples for a trip.
func (r *TelemetryRepository) SaveMotion(ctx context.Context, tripID string, samples []models.MotionSample) error {
	return r.bulkInsert(ctx, `
		INSERT INTO g_logs (trip_id, g_x, g_y, g_z, speed, timestamp_ms, event, quality)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		len(samples), func(stmt *sql.Stmt, i int) error {
			s := samples[i]
			_, err := stmt.ExecContext(ctx, tripID, s.GX, s.GY, s.GZ, s.Speed, s.TimestampMs, s.Event, s.Quality)
			return err
		})
}

// SaveSmoothed bulk-inserts smoothed motion samples for a trip. These
// carry the cumulative distance used by jerk normalization.
func (r *TelemetryRepository) SaveSmoothed(ctx context.Context, tripID string, samples []models.MotionSample) error {
	return r.bulkInsert(ctx, `
		INSERT INTO avg_g_logs (trip_id, g_x, g_y, g_z, speed, timestamp_ms, distance_km)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		len(samples), func(stmt *sql.Stmt, i int) error {
			s := samples[i]
			_, err := stmt.ExecContext(ctx, tripID, s.GX, s.GY, s.GZ, s.Speed, s.TimestampMs, s.DistanceKm)
			return err
		})
}

func (r *TelemetryRepository) bulkInsert(ctx context.Context, query string, n int, exec func(*sql.Stmt, int) error) error {
	if n == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin telemetry tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare telemetry insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if err := exec(stmt, i); err != nil {
			return fmt.Errorf("insert telemetry row: %w", err)
		}
	}
	return tx.Commit()
}

// GetPositions returns a trip's GPS fixes ordered by timestamp.
func (r *TelemetryRepository) GetPositions(ctx context.Context, tripID string) ([]models.PositionSample, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT lat, lng, speed, timestamp_ms, event
		FROM gps_logs WHERE trip_id = ? ORDER BY timestamp_ms`, tripID)
	if err != nil {
		return nil, fmt.Errorf("get positions: %w", err)
	}
	defer rows.Close()

	var fixes []models.PositionSample
	for rows.Next() {
		var f models.PositionSample
		if err := rows.Scan(&f.Latitude, &f.Longitude, &f.Speed, &f.TimestampMs, &f.Event); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		fixes = append(fixes, f)
	}
	return fixes, rows.Err()
}

// GetMotion returns a trip's raw motion samples ordered by timestamp.
func (r *TelemetryRepository) GetMotion(ctx context.Context, tripID string) ([]models.MotionSample, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT g_x, g_y, g_z, speed, timestamp_ms, event, quality
		FROM g_logs WHERE trip_id = ? ORDER BY timestamp_ms`, tripID)
	if err != nil {
		return nil, fmt.Errorf("get motion: %w", err)
	}
	defer rows.Close()

	var samples []models.MotionSample
	for rows.Next() {
		var s models.MotionSample
		if err := rows.Scan(&s.GX, &s.GY, &s.GZ, &s.Speed, &s.TimestampMs, &s.Event, &s.Quality); err != nil {
			return nil, fmt.Errorf("scan motion sample: %w", err)
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// GetSmoothed returns a trip's smoothed motion samples ordered by
// timestamp.
func (r *TelemetryRepository) GetSmoothed(ctx context.Context, tripID string) ([]models.MotionSample, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT g_x, g_y, g_z, speed, timestamp_ms, distance_km
		FROM avg_g_logs WHERE trip_id = ? ORDER BY timestamp_ms`, tripID)
	if err != nil {
		return nil, fmt.Errorf("get smoothed motion: %w", err)
	}
	defer rows.Close()

	var samples []models.MotionSample
	for rows.Next() {
		var s models.MotionSample
		if err := rows.Scan(&s.GX, &s.GY, &s.GZ, &s.Speed, &s.TimestampMs, &s.DistanceKm); err != nil {
			return nil, fmt.Errorf("scan smoothed sample: %w", err)
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}
