package models

// MotionSample represents one instant of accelerometer and speed data.
// Two streams share this shape: the raw sensor log (g_logs) and the
// smoothed moving-average log (avg_g_logs); only the smoothed stream
// carries the cumulative trip distance.
type MotionSample struct {
	GX          float64 `json:"g_x" db:"g_x"` // lateral (left/right)
	GY          float64 `json:"g_y" db:"g_y"` // vertical
	GZ          float64 `json:"g_z" db:"g_z"` // longitudinal (front/back)
	Speed       float64 `json:"speed" db:"speed"`
	TimestampMs int64   `json:"timestamp_ms" db:"timestamp_ms"`
	Event       string  `json:"event,omitempty" db:"event"`
	Quality     string  `json:"quality,omitempty" db:"quality"`
	DistanceKm  float64 `json:"distance_km,omitempty" db:"distance_km"` // cumulative, smoothed stream only
}

// PositionSample represents one GPS fix.
type PositionSample struct {
	Latitude    float64 `json:"latitude" db:"latitude"`
	Longitude   float64 `json:"longitude" db:"longitude"`
	Speed       float64 `json:"speed" db:"speed"`
	TimestampMs int64   `json:"timestamp_ms" db:"timestamp_ms"`
	Event       string  `json:"event,omitempty" db:"event"`
}

// Motion event constants
const (
	EventNormal      = "normal"
	EventSuddenBrake = "sudden_brake"
	EventSuddenAccel = "sudden_accel"
	EventSharpTurn   = "sharp_turn"
)

// Quality tag constants
const (
	QualityUnknown  = "unknown"
	QualityGood     = "good"
	QualityDegraded = "degraded"
)
