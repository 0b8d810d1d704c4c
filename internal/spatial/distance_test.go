package spatial

import (
	"math"
	"testing"

	"github.com/driveloop/drivescore-backend-go/internal/models"
)

func TestHaversineKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		wantKm                 float64
		tolKm                  float64
	}{
		{"same point", 35.0, 139.0, 35.0, 139.0, 0, 1e-9},
		{"tokyo to osaka", 35.6762, 139.6503, 34.6937, 135.5023, 400, 5},
		{"one degree of latitude", 0, 0, 1, 0, 111.19, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.wantKm) > tt.tolKm {
				t.Errorf("HaversineKm = %v, want %v +/- %v", got, tt.wantKm, tt.tolKm)
			}
		})
	}
}

func TestHaversineMMatchesKm(t *testing.T) {
	km := HaversineKm(35.0, 139.0, 35.1, 139.1)
	m := HaversineM(35.0, 139.0, 35.1, 139.1)
	if math.Abs(m-km*1000) > 1e-6 {
		t.Errorf("HaversineM = %v, want %v", m, km*1000)
	}
}

func TestValidFix(t *testing.T) {
	tests := []struct {
		name string
		fix  models.PositionSample
		want bool
	}{
		{"placeholder origin", models.PositionSample{Latitude: 0, Longitude: 0}, false},
		{"near origin placeholder", models.PositionSample{Latitude: 0.00005, Longitude: -0.00005}, false},
		{"zero lat real lng", models.PositionSample{Latitude: 0, Longitude: 139.65}, true},
		{"real fix", models.PositionSample{Latitude: 35.67, Longitude: 139.65}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidFix(tt.fix); got != tt.want {
				t.Errorf("ValidFix(%+v) = %v, want %v", tt.fix, got, tt.want)
			}
		})
	}
}

func TestTripDistanceKm(t *testing.T) {
	tests := []struct {
		name      string
		positions []models.PositionSample
		want      float64
	}{
		{"empty", nil, 0},
		{
			"single valid fix",
			[]models.PositionSample{{Latitude: 35.0, Longitude: 139.0}},
			0,
		},
		{
			"all placeholders",
			[]models.PositionSample{{}, {}, {}},
			0,
		},
		{
			"placeholders skipped between valid fixes",
			[]models.PositionSample{
				{Latitude: 0, Longitude: 0},
				{Latitude: 35.0, Longitude: 139.0},
				{Latitude: 0, Longitude: 0},
				{Latitude: 35.0, Longitude: 139.0},
			},
			0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TripDistanceKm(tt.positions); got != tt.want {
				t.Errorf("TripDistanceKm = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTripDistanceKmRounding(t *testing.T) {
	positions := []models.PositionSample{
		{Latitude: 35.0, Longitude: 139.0},
		{Latitude: 35.01, Longitude: 139.0},
	}
	got := TripDistanceKm(positions)
	if got != math.Round(got*1000)/1000 {
		t.Errorf("TripDistanceKm = %v, not rounded to 3 decimals", got)
	}
	if got <= 1.0 || got >= 1.3 {
		t.Errorf("TripDistanceKm = %v, want roughly 1.112 km", got)
	}
}
