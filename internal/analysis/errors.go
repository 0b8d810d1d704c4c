package analysis

import "errors"

// Hard configuration errors. Data-variance conditions (too few samples,
// pin not reached, empty windows) are not errors; they produce canonical
// zero-valued results instead.
var (
	// ErrInvalidSampleRate means the configured sampling rate implies a
	// time delta below the physical minimum.
	ErrInvalidSampleRate = errors.New("analysis: sample rate too high, time delta below minimum")

	// ErrUnknownFocusType means a focus type outside the closed set was
	// passed by the caller.
	ErrUnknownFocusType = errors.New("analysis: unknown focus type")
)
