package database

import (
	"database/sql"
	"fmt"
)

// schema lists the table and index definitions, applied in order.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS trips (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		route_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active',
		start_time_ms INTEGER NOT NULL DEFAULT 0,
		end_time_ms INTEGER NOT NULL DEFAULT 0,
		distance_km REAL NOT NULL DEFAULT 0,
		sudden_accels INTEGER NOT NULL DEFAULT 0,
		sudden_brakes INTEGER NOT NULL DEFAULT 0,
		sharp_turns INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS gps_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trip_id TEXT NOT NULL,
		lat REAL NOT NULL,
		lng REAL NOT NULL,
		speed REAL NOT NULL DEFAULT 0,
		timestamp_ms INTEGER NOT NULL DEFAULT 0,
		event TEXT NOT NULL DEFAULT 'normal',
		FOREIGN KEY (trip_id) REFERENCES trips(id)
	)`,

	`CREATE TABLE IF NOT EXISTS g_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trip_id TEXT NOT NULL,
		g_x REAL NOT NULL DEFAULT 0,
		g_y REAL NOT NULL DEFAULT 0,
		g_z REAL NOT NULL DEFAULT 0,
		speed REAL NOT NULL DEFAULT 0,
		timestamp_ms INTEGER NOT NULL DEFAULT 0,
		event TEXT NOT NULL DEFAULT 'normal',
		quality TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (trip_id) REFERENCES trips(id)
	)`,

	`CREATE TABLE IF NOT EXISTS avg_g_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trip_id TEXT NOT NULL,
		g_x REAL NOT NULL DEFAULT 0,
		g_y REAL NOT NULL DEFAULT 0,
		g_z REAL NOT NULL DEFAULT 0,
		speed REAL NOT NULL DEFAULT 0,
		timestamp_ms INTEGER NOT NULL DEFAULT 0,
		distance_km REAL NOT NULL DEFAULT 0,
		FOREIGN KEY (trip_id) REFERENCES trips(id)
	)`,

	`CREATE TABLE IF NOT EXISTS focus_points (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		route_id TEXT NOT NULL DEFAULT '',
		lat REAL NOT NULL,
		lng REAL NOT NULL,
		label TEXT NOT NULL DEFAULT '',
		focus_type TEXT NOT NULL,
		focus_label TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS trip_scores (
		trip_id TEXT PRIMARY KEY,
		overall_score INTEGER NOT NULL,
		score_comment TEXT NOT NULL DEFAULT '',
		jerk_stats TEXT NOT NULL DEFAULT '{}',
		weights TEXT NOT NULL DEFAULT '{}',
		scoring_mode TEXT NOT NULL DEFAULT '',
		sample_rate_hz REAL NOT NULL DEFAULT 0,
		calculated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (trip_id) REFERENCES trips(id)
	)`,

	`CREATE TABLE IF NOT EXISTS focus_feedbacks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trip_id TEXT NOT NULL,
		pin_id TEXT NOT NULL,
		pin_label TEXT NOT NULL DEFAULT '',
		focus_type TEXT NOT NULL,
		focus_label TEXT NOT NULL DEFAULT '',
		passed INTEGER NOT NULL DEFAULT 0,
		stats TEXT NOT NULL DEFAULT '{}',
		diff TEXT,
		rating TEXT NOT NULL DEFAULT 'none',
		score INTEGER,
		ai_comment TEXT NOT NULL DEFAULT '',
		short_comment TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (trip_id, pin_id),
		FOREIGN KEY (trip_id) REFERENCES trips(id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_trips_user_status ON trips(user_id, status, end_time_ms)`,
	`CREATE INDEX IF NOT EXISTS idx_gps_logs_trip ON gps_logs(trip_id, timestamp_ms)`,
	`CREATE INDEX IF NOT EXISTS idx_g_logs_trip ON g_logs(trip_id, timestamp_ms)`,
	`CREATE INDEX IF NOT EXISTS idx_avg_g_logs_trip ON avg_g_logs(trip_id, timestamp_ms)`,
	`CREATE INDEX IF NOT EXISTS idx_focus_points_user ON focus_points(user_id, route_id)`,
	`CREATE INDEX IF NOT EXISTS idx_focus_feedbacks_pin ON focus_feedbacks(pin_id, created_at)`,
}

// InitSchema creates all tables and indexes. Safe to run repeatedly.
func InitSchema(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
