package spatial

import (
	"math"

	"github.com/golang/geo/s2"

	"github.com/driveloop/drivescore-backend-go/internal/models"
)

// Constants
const (
	EarthRadiusMeters = 6371000.0 // Earth's mean radius in meters
	EarthRadiusKm     = 6371.0    // Earth's mean radius in kilometers

	// Coordinates with both |lat| and |lng| below this are treated as the
	// sensor's (0,0) placeholder fix and excluded from odometry.
	zeroCoordEpsilon = 0.0001
)

// HaversineKm calculates the great-circle distance between two points in
// kilometers using the Haversine formula
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}

// HaversineM calculates the great-circle distance between two points in meters
func HaversineM(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// ValidFix reports whether a GPS fix carries usable coordinates.
func ValidFix(p models.PositionSample) bool {
	if math.Abs(p.Latitude) < zeroCoordEpsilon && math.Abs(p.Longitude) < zeroCoordEpsilon {
		return false
	}
	return true
}

// TripDistanceKm sums the Haversine distance across consecutive valid GPS
// fixes, in recording order. Placeholder (0,0) fixes are skipped. Returns
// 0 when fewer than two valid fixes remain. Result is rounded to 3
// decimals, matching the persisted trip distance precision.
func TripDistanceKm(positions []models.PositionSample) float64 {
	var coords []models.PositionSample
	for _, p := range positions {
		if ValidFix(p) {
			coords = append(coords, p)
		}
	}

	if len(coords) < 2 {
		return 0.0
	}

	var totalKm float64
	for i := 1; i < len(coords); i++ {
		totalKm += HaversineKm(
			coords[i-1].Latitude, coords[i-1].Longitude,
			coords[i].Latitude, coords[i].Longitude,
		)
	}

	return math.Round(totalKm*1000) / 1000
}
