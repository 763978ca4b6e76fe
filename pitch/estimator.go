// Package pitch implements the real-time pitch estimation pipeline: an RMS
// volume gate, several independent fundamental-frequency estimators whose
// results are reconciled into a single estimate, and a variance-bounded
// stability filter over a short rolling window of estimates.
package pitch

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/solfege/logging"
)

// Algorithm is a single fundamental-frequency estimator. Estimate returns
// a frequency in Hz or an error when no estimate can be made from the
// frame. Implementations must be usable on every cadence tick, so they
// keep no per-call allocations beyond scratch slices.
type Algorithm interface {
	Name() string
	Estimate(frame []float64, sampleRate int) (float64, error)
}

// Reading is the outcome of processing one audio frame. Volume is always
// populated so callers can drive a live meter even when no pitch is voiced.
// Gated marks frames the volume threshold silenced; an unvoiced, ungated
// reading means the algorithms produced no plausible estimate.
type Reading struct {
	Frequency float64 `json:"frequency"` // Hz, valid only when Voiced
	Voiced    bool    `json:"voiced"`
	Gated     bool    `json:"gated"`
	Volume    float64 `json:"volume"` // RMS amplitude of the frame
}

// EstimatorParams contains parameters for frame estimation
type EstimatorParams struct {
	SampleRate int `json:"sample_rate"`

	// Plausible instrument range; estimates outside are discarded
	MinFreq float64 `json:"min_freq"`
	MaxFreq float64 `json:"max_freq"`

	// Frames with RMS below this threshold are treated as silence
	VolumeThreshold float64 `json:"volume_threshold"`
}

// DefaultEstimatorParams returns parameters tuned for a single melodic
// instrument in a quiet room.
func DefaultEstimatorParams(sampleRate int) EstimatorParams {
	return EstimatorParams{
		SampleRate:      sampleRate,
		MinFreq:         80.0,
		MaxFreq:         1200.0,
		VolumeThreshold: 0.01,
	}
}

// Estimator runs a set of independent frequency-estimation algorithms over
// audio frames and reconciles their outputs. A frame below the volume
// threshold short-circuits to an unvoiced reading. Individual algorithm
// failures (including panics) are excluded from that frame's average and
// never interrupt the cadence.
type Estimator struct {
	params     EstimatorParams
	algorithms []Algorithm
}

// NewEstimator creates an estimator over the given algorithms.
func NewEstimator(params EstimatorParams, algorithms ...Algorithm) *Estimator {
	return &Estimator{
		params:     params,
		algorithms: algorithms,
	}
}

// Params returns the current parameters.
func (e *Estimator) Params() EstimatorParams {
	return e.params
}

// SetVolumeThreshold updates the silence gate. Takes effect on the next
// processed frame.
func (e *Estimator) SetVolumeThreshold(v float64) {
	e.params.VolumeThreshold = v
}

// Process runs the volume gate and, when open, every algorithm over the
// frame, averaging the plausible survivors.
func (e *Estimator) Process(frame []float64) Reading {
	rms := RMS(frame)
	if rms < e.params.VolumeThreshold {
		return Reading{Gated: true, Volume: rms}
	}

	survivors := make([]float64, 0, len(e.algorithms))
	for _, alg := range e.algorithms {
		freq, err := e.runAlgorithm(alg, frame)
		if err != nil {
			logging.Debug("pitch: estimate failed", logging.Fields{
				"algorithm": alg.Name(),
				"err":       err.Error(),
			})
			continue
		}
		if freq < e.params.MinFreq || freq > e.params.MaxFreq {
			continue
		}
		survivors = append(survivors, freq)
	}

	if len(survivors) == 0 {
		return Reading{Volume: rms}
	}
	return Reading{
		Frequency: stat.Mean(survivors, nil),
		Voiced:    true,
		Volume:    rms,
	}
}

// runAlgorithm isolates a single algorithm; a panic is converted into an
// estimation error so the remaining algorithms still contribute.
func (e *Estimator) runAlgorithm(alg Algorithm, frame []float64) (freq float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", alg.Name(), r)
		}
	}()
	return alg.Estimate(frame, e.params.SampleRate)
}

// RMS calculates the root-mean-square amplitude of a frame.
func RMS(frame []float64) float64 {
	if len(frame) == 0 {
		return 0.0
	}

	sumSquares := 0.0
	for _, v := range frame {
		sumSquares += v * v
	}
	return math.Sqrt(sumSquares / float64(len(frame)))
}

// parabolicInterpolation refines a peak or trough location using the two
// neighboring values.
func parabolicInterpolation(data []float64, idx int) float64 {
	if idx <= 0 || idx >= len(data)-1 {
		return float64(idx)
	}

	y1 := data[idx-1]
	y2 := data[idx]
	y3 := data[idx+1]

	a := (y1 - 2*y2 + y3) / 2
	b := (y3 - y1) / 2
	if a == 0 {
		return float64(idx)
	}
	return float64(idx) - b/(2*a)
}
