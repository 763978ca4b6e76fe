package capture

import (
	"errors"
	"math"
	"sync"
)

// SimInput is a simulated input source. It backs the degraded acquisition
// strategy when no real device is available, drives demo mode, and gives
// tests a deterministic microphone. The zero value produces silence.
type SimInput struct {
	// Freq and Amplitude describe a synthesized tone; Freq of zero means
	// silence.
	Freq      float64
	Amplitude float64

	// DenyPermission makes RequestPermission fail with ErrPermissionDenied.
	DenyPermission bool

	// FailOpen makes OpenStream fail, exercising the acquisition-failure
	// degrade path.
	FailOpen bool

	// Script, when non-empty, is returned frame by frame before the
	// synthesized tone takes over.
	Script [][]float64
}

// NewSimInput returns a silent simulated input.
func NewSimInput() *SimInput {
	return &SimInput{}
}

// NewSimTone returns a simulated input producing a steady sine tone.
func NewSimTone(freq, amplitude float64) *SimInput {
	return &SimInput{Freq: freq, Amplitude: amplitude}
}

func (s *SimInput) RequestPermission() error {
	if s.DenyPermission {
		return ErrPermissionDenied
	}
	return nil
}

func (s *SimInput) OpenStream(sampleRate, frameSize int) (Stream, error) {
	if s.FailOpen {
		return nil, errors.New("sim: stream unavailable")
	}
	script := make([][]float64, len(s.Script))
	copy(script, s.Script)
	return &simStream{
		freq:       s.Freq,
		amplitude:  s.Amplitude,
		sampleRate: sampleRate,
		script:     script,
	}, nil
}

type simStream struct {
	mu         sync.Mutex
	freq       float64
	amplitude  float64
	sampleRate int
	phase      float64
	script     [][]float64
	closed     bool
}

func (s *simStream) ReadFrame(dst []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("sim: stream closed")
	}

	if len(s.script) > 0 {
		frame := s.script[0]
		s.script = s.script[1:]
		n := copy(dst, frame)
		for i := n; i < len(dst); i++ {
			dst[i] = 0
		}
		return nil
	}

	if s.freq <= 0 || s.amplitude == 0 {
		for i := range dst {
			dst[i] = 0
		}
		return nil
	}

	// A few decaying harmonics make the tone behave like a plucked string
	// rather than a bare oscillator.
	step := 2.0 * math.Pi * s.freq / float64(s.sampleRate)
	for i := range dst {
		dst[i] = s.amplitude * (math.Sin(s.phase) +
			0.5*math.Sin(2*s.phase) +
			0.25*math.Sin(3*s.phase) +
			0.125*math.Sin(4*s.phase))
		s.phase += step
	}
	// Keep the phase bounded over long runs.
	s.phase = math.Mod(s.phase, 2.0*math.Pi)
	return nil
}

func (s *simStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
