package pitch

import (
	"errors"
	"fmt"
)

// AMDF estimates pitch from the deepest valley of the average magnitude
// difference function, an energy-based period measure that needs no
// multiplications and behaves well on percussive attacks.
//
// Reference: Ross, M. et al. (1974). "Average magnitude difference function
// pitch extractor"
type AMDF struct {
	// MaxValleyRatio is the largest ratio between the deepest valley and
	// the mean difference for the valley to count as a period. Values near
	// 1 accept nearly flat functions (noise); values near 0 demand strong
	// periodicity.
	MaxValleyRatio float64

	MinFreq float64
	MaxFreq float64
}

// NewAMDF creates an AMDF estimator with defaults matching the estimator's
// plausible instrument range.
func NewAMDF() *AMDF {
	return &AMDF{
		MaxValleyRatio: 0.5,
		MinFreq:        80.0,
		MaxFreq:        1200.0,
	}
}

func (a *AMDF) Name() string { return "amdf" }

// Estimate computes the AMDF over the plausible lag range and picks the
// deepest valley, refined with parabolic interpolation.
func (a *AMDF) Estimate(frame []float64, sampleRate int) (float64, error) {
	n := len(frame)
	if n < 4 {
		return 0, fmt.Errorf("frame too short: %d samples", n)
	}

	minLag := int(float64(sampleRate) / a.MaxFreq)
	maxLag := int(float64(sampleRate) / a.MinFreq)
	if minLag < 1 {
		minLag = 1
	}
	if maxLag > n/2 {
		maxLag = n / 2
	}
	if minLag >= maxLag {
		return 0, errors.New("frame shorter than one period of the search range")
	}

	lo := minLag - 1
	amdf := make([]float64, maxLag-lo+2)
	total := 0.0
	for tau := lo; tau <= maxLag+1 && tau < n; tau++ {
		sum := 0.0
		count := 0
		for i := 0; i+tau < n; i++ {
			d := frame[i] - frame[i+tau]
			if d < 0 {
				d = -d
			}
			sum += d
			count++
		}
		amdf[tau-lo] = sum / float64(count)
		total += amdf[tau-lo]
	}
	mean := total / float64(len(amdf))
	if mean == 0 {
		return 0, errors.New("silent frame")
	}

	// Take the first valley under the depth threshold rather than the
	// global minimum: valleys at integer multiples of a fractional period
	// can dip lower than the true one and would fold the estimate down an
	// octave.
	bestLag := -1
	threshold := mean * a.MaxValleyRatio
	for tau := minLag; tau <= maxLag; tau++ {
		i := tau - lo
		if amdf[i] < amdf[i-1] && amdf[i] <= amdf[i+1] && amdf[i] < threshold {
			bestLag = tau
			break
		}
	}
	if bestLag < 0 {
		return 0, errors.New("no valley deep enough")
	}

	lag := parabolicInterpolation(amdf, bestLag-lo) + float64(lo)
	if lag <= 0 {
		return 0, errors.New("degenerate lag")
	}
	return float64(sampleRate) / lag, nil
}
