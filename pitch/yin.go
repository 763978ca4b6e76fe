package pitch

import (
	"errors"
	"fmt"
)

// DefaultYINThreshold is the allowed uncertainty in the cumulative mean
// normalized difference before a lag candidate is accepted.
const DefaultYINThreshold = 0.15

// YIN implements the YIN fundamental frequency estimator.
//
// Reference: de Cheveigné, A., Kawahara, H. (2002). "YIN, a fundamental
// frequency estimator for speech and music"
type YIN struct {
	// Threshold is the absolute threshold applied to the cumulative mean
	// normalized difference function (0.1-0.5 is sensible).
	Threshold float64
}

// NewYIN creates a YIN estimator with the default threshold.
func NewYIN() *YIN {
	return &YIN{Threshold: DefaultYINThreshold}
}

func (y *YIN) Name() string { return "yin" }

// Estimate runs the YIN difference pipeline over the frame: squared
// difference function, cumulative mean normalization, absolute threshold
// with a walk to the local minimum, and parabolic refinement of the lag.
func (y *YIN) Estimate(frame []float64, sampleRate int) (float64, error) {
	halfN := len(frame) / 2
	if halfN < 2 {
		return 0, fmt.Errorf("frame too short: %d samples", len(frame))
	}

	// Squared difference of the signal with a shifted copy of itself.
	diff := make([]float64, halfN)
	for tau := 1; tau < halfN; tau++ {
		sum := 0.0
		for i := 0; i < halfN; i++ {
			delta := frame[i] - frame[i+tau]
			sum += delta * delta
		}
		diff[tau] = sum
	}

	// Cumulative mean normalized difference.
	cmndf := make([]float64, halfN)
	cmndf[0] = 1.0
	runningSum := 0.0
	for tau := 1; tau < halfN; tau++ {
		runningSum += diff[tau]
		if runningSum == 0 {
			cmndf[tau] = 1.0
			continue
		}
		cmndf[tau] = diff[tau] * float64(tau) / runningSum
	}

	// First dip under the threshold, walked forward to its local minimum.
	tau := -1
	for candidate := 2; candidate < halfN; candidate++ {
		if cmndf[candidate] < y.Threshold {
			for candidate+1 < halfN && cmndf[candidate+1] < cmndf[candidate] {
				candidate++
			}
			tau = candidate
			break
		}
	}
	if tau < 0 {
		return 0, errors.New("no lag under threshold")
	}

	period := parabolicInterpolation(cmndf, tau)
	if period <= 0 {
		return 0, errors.New("degenerate period")
	}
	return float64(sampleRate) / period, nil
}
