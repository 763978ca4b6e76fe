package pitch

import "gonum.org/v1/gonum/stat"

// StabilizerParams bounds what counts as a sustained, intentional note
// rather than transient noise.
type StabilizerParams struct {
	// HistorySize is the detection window capacity.
	HistorySize int `json:"history_size"`

	// MinSamples is the minimum accumulated count before a lock is
	// considered at all.
	MinSamples int `json:"min_samples"`

	// MaxVariance is the stability bound in Hz²; the window locks only
	// while its sample variance stays below it.
	MaxVariance float64 `json:"max_variance"`
}

// DefaultStabilizerParams returns the stock window bounds. The variance
// bound is a heuristic without a derivation; treat it as tunable.
func DefaultStabilizerParams() StabilizerParams {
	return StabilizerParams{
		HistorySize: 5,
		MinSamples:  3,
		MaxVariance: 5.0,
	}
}

// Stabilizer maintains the rolling window of raw frequency estimates and
// decides when the estimate has settled enough to resolve into a note.
type Stabilizer struct {
	params StabilizerParams
	window *Window
}

// NewStabilizer creates a stabilizer with the given bounds.
func NewStabilizer(params StabilizerParams) *Stabilizer {
	if params.HistorySize < 1 {
		params.HistorySize = DefaultStabilizerParams().HistorySize
	}
	if params.MinSamples < 1 {
		params.MinSamples = 1
	}
	return &Stabilizer{
		params: params,
		window: NewWindow(params.HistorySize),
	}
}

// Params returns the stabilizer bounds.
func (s *Stabilizer) Params() StabilizerParams {
	return s.params
}

// Add pushes a raw frequency estimate into the window.
func (s *Stabilizer) Add(freq float64) {
	s.window.Push(freq)
}

// Reset clears the window. Called whenever the volume gate closes.
func (s *Stabilizer) Reset() {
	s.window.Clear()
}

// Len returns the number of estimates currently windowed.
func (s *Stabilizer) Len() int {
	return s.window.Len()
}

// Stable reports whether the windowed estimates have settled, and if so
// returns their mean frequency. The window is stable once it has
// accumulated MinSamples estimates whose sample variance is below
// MaxVariance.
func (s *Stabilizer) Stable() (float64, bool) {
	values := s.window.Values()
	if len(values) < s.params.MinSamples {
		return 0, false
	}

	mean, variance := stat.MeanVariance(values, nil)
	if variance >= s.params.MaxVariance {
		return 0, false
	}
	return mean, true
}
