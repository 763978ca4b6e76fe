// Package capture abstracts audio input acquisition: microphone permission,
// stream opening, and frame reads. The detection session owns the returned
// stream exclusively.
package capture

import "errors"

// ErrPermissionDenied indicates the host refused microphone access. Callers
// degrade to a fallback acquisition strategy; this is never fatal.
var ErrPermissionDenied = errors.New("capture: microphone permission denied")

// Stream delivers fixed-size frames of time-domain samples in [-1, 1].
type Stream interface {
	// ReadFrame fills dst with the next frame, blocking until enough
	// samples are available.
	ReadFrame(dst []float64) error

	// Close releases the underlying device resources.
	Close() error
}

// Input is the input/permission collaborator: it grants (or denies) access
// and opens sample streams at a requested rate and frame size.
type Input interface {
	RequestPermission() error
	OpenStream(sampleRate, frameSize int) (Stream, error)
}
