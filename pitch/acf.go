package pitch

import (
	"errors"
	"fmt"
)

// AutoCorrelation estimates pitch from the first strong peak of the
// normalized time-domain autocorrelation function.
//
// Reference: Rabiner, L.R. (1977). "On the use of autocorrelation analysis
// for pitch detection"
type AutoCorrelation struct {
	// MinCorrelation is the normalized correlation a lag peak must reach
	// to count as periodic.
	MinCorrelation float64

	// Lag search range expressed as a frequency range
	MinFreq float64
	MaxFreq float64
}

// NewAutoCorrelation creates an autocorrelation estimator with defaults
// matching the estimator's plausible instrument range.
func NewAutoCorrelation() *AutoCorrelation {
	return &AutoCorrelation{
		MinCorrelation: 0.3,
		MinFreq:        80.0,
		MaxFreq:        1200.0,
	}
}

func (a *AutoCorrelation) Name() string { return "acf" }

// Estimate computes r(tau)/r(0) over the plausible lag range and picks the
// strongest local maximum, refined with parabolic interpolation.
func (a *AutoCorrelation) Estimate(frame []float64, sampleRate int) (float64, error) {
	n := len(frame)
	if n < 4 {
		return 0, fmt.Errorf("frame too short: %d samples", n)
	}

	r0 := 0.0
	for _, v := range frame {
		r0 += v * v
	}
	if r0 == 0 {
		return 0, errors.New("silent frame")
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

	// Normalized autocorrelation over the lag range, with one lag of margin
	// on each side for peak picking.
	lo := minLag - 1
	corr := make([]float64, maxLag-lo+2)
	for tau := lo; tau <= maxLag+1 && tau < n; tau++ {
		sum := 0.0
		for i := 0; i+tau < n; i++ {
			sum += frame[i] * frame[i+tau]
		}
		corr[tau-lo] = sum / r0
	}

	bestLag := -1
	bestCorr := a.MinCorrelation
	for tau := minLag; tau <= maxLag; tau++ {
		i := tau - lo
		if corr[i] > corr[i-1] && corr[i] >= corr[i+1] && corr[i] > bestCorr {
			bestCorr = corr[i]
			bestLag = tau
		}
	}
	if bestLag < 0 {
		return 0, errors.New("no correlation peak above threshold")
	}

	lag := parabolicInterpolation(corr, bestLag-lo) + float64(lo)
	if lag <= 0 {
		return 0, errors.New("degenerate lag")
	}
	return float64(sampleRate) / lag, nil
}
