package pitch

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// HPS estimates pitch with the harmonic product spectrum: the magnitude
// spectrum is multiplied by downsampled copies of itself so the shared
// fundamental of the harmonics stands out.
//
// Reference: Schroeder, M.R. (1968). "Period histogram and product spectrum"
type HPS struct {
	// Harmonics is the number of downsampled spectra multiplied in.
	Harmonics int

	// ZeroPadding multiplies the FFT size for finer bin resolution.
	ZeroPadding int

	MinFreq float64
	MaxFreq float64
}

// NewHPS creates an HPS estimator with defaults matching the estimator's
// plausible instrument range.
func NewHPS() *HPS {
	return &HPS{
		Harmonics:   4,
		ZeroPadding: 4,
		MinFreq:     80.0,
		MaxFreq:     1200.0,
	}
}

func (h *HPS) Name() string { return "hps" }

// Estimate windows and zero-pads the frame, computes the magnitude
// spectrum with go-dsp, forms the harmonic product, and picks the peak bin
// within the plausible range.
func (h *HPS) Estimate(frame []float64, sampleRate int) (float64, error) {
	n := len(frame)
	if n < 4 {
		return 0, errors.New("frame too short")
	}

	pad := h.ZeroPadding
	if pad < 1 {
		pad = 1
	}
	fftSize := n * pad
	padded := make([]float64, fftSize)
	for i, v := range frame {
		// Hann window keeps spectral leakage out of the harmonic product.
		w := 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/float64(n-1)))
		padded[i] = v * w
	}

	spectrum := fft.FFTReal(padded)
	magnitude := make([]float64, len(spectrum)/2)
	for i := range magnitude {
		magnitude[i] = cmplx.Abs(spectrum[i])
	}

	hps := make([]float64, len(magnitude))
	copy(hps, magnitude)
	for harmonic := 2; harmonic <= h.Harmonics; harmonic++ {
		for i := 0; i < len(hps)/harmonic; i++ {
			hps[i] *= magnitude[i*harmonic]
		}
	}

	binHz := float64(sampleRate) / float64(fftSize)
	minBin := int(h.MinFreq / binHz)
	maxBin := int(h.MaxFreq / binHz)
	if minBin < 1 {
		minBin = 1
	}
	if maxBin >= len(hps) {
		maxBin = len(hps) - 1
	}
	if minBin >= maxBin {
		return 0, errors.New("plausible range below spectral resolution")
	}

	maxIdx := minBin
	maxVal := hps[minBin]
	for i := minBin; i <= maxBin; i++ {
		if hps[i] > maxVal {
			maxVal = hps[i]
			maxIdx = i
		}
	}
	if maxVal <= 0 {
		return 0, errors.New("flat spectrum")
	}

	bin := parabolicInterpolation(hps, maxIdx)
	return bin * binHz, nil
}
