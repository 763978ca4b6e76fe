package pitch

import "errors"

// ZeroCrossing is a cheap time-domain estimator counting sign changes.
// Accuracy is poor on harmonically rich signals, but it needs no spectral
// machinery, which makes it the backbone of the degraded acquisition
// strategy.
type ZeroCrossing struct {
	// MinCrossings guards against near-DC frames producing a bogus
	// estimate from one or two stray sign changes.
	MinCrossings int
}

// NewZeroCrossing creates a zero-crossing estimator.
func NewZeroCrossing() *ZeroCrossing {
	return &ZeroCrossing{MinCrossings: 4}
}

func (z *ZeroCrossing) Name() string { return "zero-crossing" }

// Estimate derives frequency from the sign-change rate: two crossings per
// waveform period.
func (z *ZeroCrossing) Estimate(frame []float64, sampleRate int) (float64, error) {
	if len(frame) < 2 {
		return 0, errors.New("frame too short")
	}

	crossings := 0
	for i := 1; i < len(frame); i++ {
		if (frame[i] > 0 && frame[i-1] <= 0) || (frame[i] <= 0 && frame[i-1] > 0) {
			crossings++
		}
	}
	if crossings < z.MinCrossings {
		return 0, errors.New("too few crossings")
	}

	return float64(crossings) * float64(sampleRate) / (2.0 * float64(len(frame))), nil
}
