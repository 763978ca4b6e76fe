// Package detect orchestrates the real-time detection pipeline: it owns the
// input stream, runs the sampling cadence, and funnels stabilized note
// detections to a callback.
package detect

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RyanBlaney/solfege/capture"
	"github.com/RyanBlaney/solfege/logging"
	"github.com/RyanBlaney/solfege/notes"
	"github.com/RyanBlaney/solfege/pitch"
)

// ErrAcquisitionFailure indicates no input stream could be opened at all,
// not even the simulated fallback.
var ErrAcquisitionFailure = errors.New("detect: acquisition failure")

// State is the session lifecycle state.
type State int

const (
	Stopped State = iota
	Listening
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Listening:
		return "listening"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// Event is one cadence tick's result. Volume is always populated; Note is
// meaningful only when HasNote is set.
type Event struct {
	Note    notes.Note
	HasNote bool
	Volume  float64
}

// Callback receives every cadence tick's event. It is invoked from the
// sampling goroutine; Pause, Resume, and Stop may be called from inside it.
type Callback func(Event)

// Config holds the session's detection parameters.
type Config struct {
	SampleRate   int
	FrameSize    int
	TickInterval time.Duration

	// SpectralAnalysis is the host capability probe: when false the
	// degraded strategy is chosen even with a working input device.
	SpectralAnalysis bool

	// Plausible instrument range and silence gate, passed through to the
	// estimators.
	MinFreq         float64
	MaxFreq         float64
	VolumeThreshold float64

	Stabilizer pitch.StabilizerParams
}

// DefaultConfig returns detection parameters suitable for a desktop host.
func DefaultConfig() Config {
	return Config{
		SampleRate:       44100,
		FrameSize:        2048,
		TickInterval:     100 * time.Millisecond,
		SpectralAnalysis: true,
		MinFreq:          80.0,
		MaxFreq:          1200.0,
		VolumeThreshold:  0.01,
		Stabilizer:       pitch.DefaultStabilizerParams(),
	}
}

func (c Config) estimatorParams() pitch.EstimatorParams {
	return pitch.EstimatorParams{
		SampleRate:      c.SampleRate,
		MinFreq:         c.MinFreq,
		MaxFreq:         c.MaxFreq,
		VolumeThreshold: c.VolumeThreshold,
	}
}

// Session is the detection session controller. It owns the input stream and
// detection window exclusively and walks the Stopped -> Listening <-> Paused
// state machine. One session is active per training run.
type Session struct {
	mu sync.Mutex

	cfg      Config
	table    *notes.Table
	input    capture.Input
	fallback capture.Input

	state      State
	strategy   Strategy
	stream     capture.Stream
	stabilizer *pitch.Stabilizer
	callback   Callback
	instrument string

	// gen invalidates in-flight ticks: every transition bumps it, and a
	// tick whose generation no longer matches does nothing. This is what
	// keeps a stale tick from firing after pause takes effect.
	gen    uint64
	stopCh chan struct{}
}

// NewSession creates a stopped session over the given note table and input
// source.
func NewSession(table *notes.Table, input capture.Input, cfg Config) *Session {
	return &Session{
		cfg:      cfg,
		table:    table,
		input:    input,
		fallback: capture.NewSimInput(),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StrategyName returns the name of the selected acquisition strategy, or
// "" before Start.
func (s *Session) StrategyName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.strategy == nil {
		return ""
	}
	return s.strategy.Name()
}

// Start requests device access, selects the acquisition strategy, and
// begins the sampling cadence, delivering one Event per tick to cb.
// Permission denial and stream failure degrade to the fallback strategy
// over a simulated stream instead of failing the run.
func (s *Session) Start(cb Callback) error {
	if cb == nil {
		return errors.New("detect: nil callback")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Stopped {
		return fmt.Errorf("detect: start while %s", s.state)
	}

	spectral := s.cfg.SpectralAnalysis
	var stream capture.Stream

	if err := s.input.RequestPermission(); err != nil {
		logging.Warn("detect: permission denied, using degraded strategy", logging.Fields{
			"err": err.Error(),
		})
		spectral = false
	} else {
		st, err := s.input.OpenStream(s.cfg.SampleRate, s.cfg.FrameSize)
		if err != nil {
			logging.Warn("detect: input stream failed, using degraded strategy", logging.Fields{
				"err": err.Error(),
			})
			spectral = false
		} else {
			stream = st
		}
	}

	if stream == nil {
		st, err := s.fallback.OpenStream(s.cfg.SampleRate, s.cfg.FrameSize)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrAcquisitionFailure, err)
		}
		stream = st
	}

	if spectral {
		s.strategy = NewFullSpectral(s.cfg.estimatorParams())
	} else {
		s.strategy = NewDegraded(s.cfg.estimatorParams())
	}

	s.stream = stream
	s.stabilizer = pitch.NewStabilizer(s.cfg.Stabilizer)
	s.callback = cb
	s.state = Listening
	s.gen++
	s.stopCh = make(chan struct{})
	go s.run(s.gen, s.stopCh)

	logging.Info("detect: session started", logging.Fields{
		"strategy": s.strategy.Name(),
		"tick":     s.cfg.TickInterval.String(),
	})
	return nil
}

// Pause halts the sampling cadence without releasing the stream or any
// configuration, so Resume needs no new permission or device handle.
// No-op unless currently listening.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Listening {
		return
	}
	s.state = Paused
	s.gen++
	close(s.stopCh)
	logging.Debug("detect: paused")
}

// Resume restarts the sampling cadence with the configuration held across
// Pause. No-op unless currently paused.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Paused {
		return
	}
	s.state = Listening
	s.gen++
	s.stopCh = make(chan struct{})
	go s.run(s.gen, s.stopCh)
	logging.Debug("detect: resumed")
}

// Stop halts the cadence from any state, clears the detection window, and
// releases the stream.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Listening {
		close(s.stopCh)
	}
	s.gen++
	if s.stream != nil {
		if err := s.stream.Close(); err != nil {
			logging.Warn("detect: stream close failed", logging.Fields{"err": err.Error()})
		}
		s.stream = nil
	}
	if s.stabilizer != nil {
		s.stabilizer.Reset()
	}
	s.strategy = nil
	s.callback = nil
	s.state = Stopped
	logging.Info("detect: session stopped")
}

// SetVolumeThreshold updates the silence gate; the change applies on the
// next cadence tick.
func (s *Session) SetVolumeThreshold(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.VolumeThreshold = v
	if s.strategy != nil {
		s.strategy.SetVolumeThreshold(v)
	}
}

// VolumeThreshold returns the current silence gate.
func (s *Session) VolumeThreshold() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.VolumeThreshold
}

// SetInstrument records the playback instrument. Detection is unaffected;
// the instrument only matters to the output collaborator.
func (s *Session) SetInstrument(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instrument = name
}

// Instrument returns the recorded playback instrument.
func (s *Session) Instrument() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.instrument
}

// run is the sampling cadence loop. One loop goroutine exists per listening
// period; Pause and Stop end it via stopCh, and the generation check keeps
// an already-queued tick from doing work after a transition.
func (s *Session) run(gen uint64, stopCh chan struct{}) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	frame := make([]float64, s.cfg.FrameSize)
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !s.tick(gen, frame) {
				return
			}
		}
	}
}

// tick performs one cadence step: read a frame, gate and estimate, update
// the stability window, resolve a note, and deliver the event. Returns
// false when this loop's generation has been invalidated.
func (s *Session) tick(gen uint64, frame []float64) bool {
	s.mu.Lock()
	if s.gen != gen || s.state != Listening {
		s.mu.Unlock()
		return false
	}

	cb := s.callback
	if err := s.stream.ReadFrame(frame); err != nil {
		logging.Warn("detect: frame read failed", logging.Fields{"err": err.Error()})
		s.stabilizer.Reset()
		s.mu.Unlock()
		cb(Event{})
		return true
	}

	reading := s.strategy.Process(frame)

	var ev Event
	if reading.Gated {
		// Silence: stale history must not leak across it.
		s.stabilizer.Reset()
		ev = Event{Volume: reading.Volume}
	} else if !reading.Voiced {
		// Estimation came up empty this tick; the window stands.
		ev = Event{Volume: reading.Volume}
	} else {
		s.stabilizer.Add(reading.Frequency)
		ev = Event{Volume: reading.Volume}
		if mean, ok := s.stabilizer.Stable(); ok {
			if note, ok := s.table.FindClosestNote(mean); ok {
				ev.Note = note
				ev.HasNote = true
			}
		}
	}

	s.mu.Unlock()
	cb(ev)
	return true
}
