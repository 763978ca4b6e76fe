package detect

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/RyanBlaney/solfege/capture"
	"github.com/RyanBlaney/solfege/notes"
)

func quietConfig() Config {
	cfg := DefaultConfig()
	// A tick interval long enough that no tick fires unless a test wants
	// one.
	cfg.TickInterval = time.Hour
	return cfg
}

func TestSessionStateMachine(t *testing.T) {
	s := NewSession(notes.NewTable(), capture.NewSimInput(), quietConfig())

	if s.State() != Stopped {
		t.Fatalf("initial state = %s", s.State())
	}
	if err := s.Start(func(Event) {}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if s.State() != Listening {
		t.Fatalf("state after start = %s", s.State())
	}
	if err := s.Start(func(Event) {}); err == nil {
		t.Error("second start must fail")
	}

	s.Pause()
	if s.State() != Paused {
		t.Fatalf("state after pause = %s", s.State())
	}
	s.Pause() // no-op
	if s.State() != Paused {
		t.Fatalf("state after second pause = %s", s.State())
	}

	s.Resume()
	if s.State() != Listening {
		t.Fatalf("state after resume = %s", s.State())
	}
	s.Resume() // no-op
	if s.State() != Listening {
		t.Fatalf("state after second resume = %s", s.State())
	}

	s.Stop()
	if s.State() != Stopped {
		t.Fatalf("state after stop = %s", s.State())
	}
}

func TestResumeWithoutPauseIsNoOp(t *testing.T) {
	s := NewSession(notes.NewTable(), capture.NewSimInput(), quietConfig())

	s.Resume()
	if s.State() != Stopped {
		t.Fatalf("resume from stopped changed state to %s", s.State())
	}
}

func TestPauseResumeFiresNoTick(t *testing.T) {
	var ticks atomic.Int64
	s := NewSession(notes.NewTable(), capture.NewSimInput(), quietConfig())

	if err := s.Start(func(Event) { ticks.Add(1) }); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.Pause()
	s.Resume()
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	if n := ticks.Load(); n != 0 {
		t.Fatalf("%d ticks fired across pause/resume with an idle cadence", n)
	}
}

func TestStrategySelection(t *testing.T) {
	tests := []struct {
		name     string
		input    *capture.SimInput
		spectral bool
		want     string
	}{
		{"full capability", capture.NewSimInput(), true, "full-spectral"},
		{"no spectral support", capture.NewSimInput(), false, "degraded"},
		{"permission denied", &capture.SimInput{DenyPermission: true}, true, "degraded"},
		{"stream failure", &capture.SimInput{FailOpen: true}, true, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := quietConfig()
			cfg.SpectralAnalysis = tt.spectral
			s := NewSession(notes.NewTable(), tt.input, cfg)
			if err := s.Start(func(Event) {}); err != nil {
				t.Fatalf("start: %v", err)
			}
			defer s.Stop()
			if got := s.StrategyName(); got != tt.want {
				t.Fatalf("strategy = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSessionDetectsSimulatedTone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickInterval = 2 * time.Millisecond

	s := NewSession(notes.NewTable(), capture.NewSimTone(440, 0.3), cfg)

	events := make(chan Event, 256)
	if err := s.Start(func(ev Event) {
		select {
		case events <- ev:
		default:
		}
	}); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Volume <= 0 {
				t.Fatal("volume not reported")
			}
			if ev.HasNote {
				if ev.Note.Name != "A4" {
					t.Fatalf("detected %s, want A4", ev.Note.Name)
				}
				return
			}
		case <-deadline:
			t.Fatal("no note locked within deadline")
		}
	}
}

func TestSessionSilenceEmitsNoNote(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickInterval = 2 * time.Millisecond

	s := NewSession(notes.NewTable(), capture.NewSimInput(), cfg)

	events := make(chan Event, 16)
	if err := s.Start(func(ev Event) {
		select {
		case events <- ev:
		default:
		}
	}); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	for range 5 {
		select {
		case ev := <-events:
			if ev.HasNote {
				t.Fatalf("silence produced note %s", ev.Note.Name)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("no events from silent stream")
		}
	}
}

func TestSetVolumeThreshold(t *testing.T) {
	s := NewSession(notes.NewTable(), capture.NewSimInput(), quietConfig())

	s.SetVolumeThreshold(0.02)
	if got := s.VolumeThreshold(); got != 0.02 {
		t.Fatalf("threshold = %v", got)
	}

	if err := s.Start(func(Event) {}); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()
	s.SetVolumeThreshold(0.03)
	if got := s.VolumeThreshold(); got != 0.03 {
		t.Fatalf("threshold after live update = %v", got)
	}
}

func TestSetInstrumentDoesNotTouchDetection(t *testing.T) {
	s := NewSession(notes.NewTable(), capture.NewSimInput(), quietConfig())
	if err := s.Start(func(Event) {}); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	before := s.StrategyName()
	s.SetInstrument("cello")
	if s.Instrument() != "cello" {
		t.Fatalf("instrument = %q", s.Instrument())
	}
	if s.StrategyName() != before {
		t.Error("instrument change must not touch the strategy")
	}
}
