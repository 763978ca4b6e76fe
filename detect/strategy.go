package detect

import "github.com/RyanBlaney/solfege/pitch"

// Strategy is a per-frame acquisition analysis chain, chosen once when the
// session starts based on what the environment can support.
type Strategy interface {
	Name() string

	// Process turns one frame into a volume-gated frequency reading.
	Process(frame []float64) pitch.Reading

	// SetVolumeThreshold adjusts the silence gate; applies on the next
	// processed frame.
	SetVolumeThreshold(v float64)
}

// FullSpectral runs the complete estimator bank: time-domain (YIN,
// autocorrelation, AMDF) plus the FFT-based harmonic product spectrum.
type FullSpectral struct {
	est *pitch.Estimator
}

// NewFullSpectral builds the full analysis chain.
func NewFullSpectral(params pitch.EstimatorParams) *FullSpectral {
	yin := pitch.NewYIN()
	acf := pitch.NewAutoCorrelation()
	acf.MinFreq, acf.MaxFreq = params.MinFreq, params.MaxFreq
	amdf := pitch.NewAMDF()
	amdf.MinFreq, amdf.MaxFreq = params.MinFreq, params.MaxFreq
	hps := pitch.NewHPS()
	hps.MinFreq, hps.MaxFreq = params.MinFreq, params.MaxFreq

	return &FullSpectral{
		est: pitch.NewEstimator(params, yin, acf, amdf, hps),
	}
}

func (f *FullSpectral) Name() string { return "full-spectral" }

func (f *FullSpectral) Process(frame []float64) pitch.Reading {
	return f.est.Process(frame)
}

func (f *FullSpectral) SetVolumeThreshold(v float64) {
	f.est.SetVolumeThreshold(v)
}

// Degraded is the fallback chain for hosts without spectral analysis
// support or without device access: cheap time-domain estimators only.
type Degraded struct {
	est *pitch.Estimator
}

// NewDegraded builds the fallback analysis chain.
func NewDegraded(params pitch.EstimatorParams) *Degraded {
	amdf := pitch.NewAMDF()
	amdf.MinFreq, amdf.MaxFreq = params.MinFreq, params.MaxFreq

	return &Degraded{
		est: pitch.NewEstimator(params, pitch.NewZeroCrossing(), amdf),
	}
}

func (d *Degraded) Name() string { return "degraded" }

func (d *Degraded) Process(frame []float64) pitch.Reading {
	return d.est.Process(frame)
}

func (d *Degraded) SetVolumeThreshold(v float64) {
	d.est.SetVolumeThreshold(v)
}
