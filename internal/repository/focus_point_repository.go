package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/driveloop/drivescore-backend-go/internal/models"
)

// FocusPointRepository persists user-registered focus points.
type FocusPointRepository struct {
	db *sql.DB
}

// NewFocusPointRepository creates a focus point repository.
func NewFocusPointRepository(db *sql.DB) *FocusPointRepository {
	return &FocusPointRepository{db: db}
}

// Save inserts a focus point, generating an ID when empty.
func (r *FocusPointRepository) Save(ctx context.Context, pin models.FocusPoint) (models.FocusPoint, error) {
	if !models.ValidFocusType(pin.FocusType) {
		return models.FocusPoint{}, fmt.Errorf("save focus point: unknown focus type %q", pin.FocusType)
	}
	if pin.ID == "" {
		pin.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO focus_points (id, user_id, route_id, lat, lng, label, focus_type, focus_label)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		pin.ID, pin.UserID, pin.RouteID, pin.Latitude, pin.Longitude, pin.Label, pin.FocusType, pin.FocusLabel)
	if err != nil {
		return models.FocusPoint{}, fmt.Errorf("save focus point: %w", err)
	}
	return pin, nil
}

// ListByUser returns a user's focus points, optionally restricted to one
// route. An empty routeID matches every route.
func (r *FocusPointRepository) ListByUser(ctx context.Context, userID, routeID string) ([]models.FocusPoint, error) {
	query := `
		SELECT id, user_id, route_id, lat, lng, label, focus_type, focus_label
		FROM focus_points WHERE user_id = ?`
	args := []any{userID}
	if routeID != "" {
		query += ` AND route_id = ?`
		args = append(args, routeID)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list focus points: %w", err)
	}
	defer rows.Close()

	var pins []models.FocusPoint
	for rows.Next() {
		var p models.FocusPoint
		if err := rows.Scan(&p.ID, &p.UserID, &p.RouteID, &p.Latitude, &p.Longitude, &p.Label, &p.FocusType, &p.FocusLabel); err != nil {
			return nil, fmt.Errorf("scan focus point: %w", err)
		}
		pins = append(pins, p)
	}
	return pins, rows.Err()
}
