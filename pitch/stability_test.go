package pitch

import (
	"math"
	"testing"
)

func TestWindowFIFOEviction(t *testing.T) {
	w := NewWindow(3)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		w.Push(v)
	}
	if w.Len() != 3 {
		t.Fatalf("window length = %d, want 3", w.Len())
	}
	got := w.Values()
	want := []float64{3, 4, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("window values = %v, want %v", got, want)
		}
	}
}

func TestWindowNeverExceedsCapacity(t *testing.T) {
	w := NewWindow(5)
	for i := range 100 {
		w.Push(float64(i))
		if w.Len() > 5 {
			t.Fatalf("window grew to %d", w.Len())
		}
	}
	if !w.Full() {
		t.Error("window should be full after 100 pushes")
	}
}

func TestWindowClear(t *testing.T) {
	w := NewWindow(4)
	w.Push(440)
	w.Push(441)
	w.Clear()
	if w.Len() != 0 {
		t.Fatalf("length after clear = %d", w.Len())
	}
}

func TestStabilizerLocksOnSteadyEstimates(t *testing.T) {
	s := NewStabilizer(DefaultStabilizerParams())
	for _, v := range []float64{440, 441, 439, 440, 440} {
		s.Add(v)
	}
	mean, ok := s.Stable()
	if !ok {
		t.Fatal("steady window must be stable")
	}
	if math.Abs(mean-440) > 1 {
		t.Errorf("mean = %v, want ~440", mean)
	}
}

func TestStabilizerRejectsJitter(t *testing.T) {
	s := NewStabilizer(DefaultStabilizerParams())
	for _, v := range []float64{440, 500, 380, 420, 460} {
		s.Add(v)
	}
	if _, ok := s.Stable(); ok {
		t.Error("high-variance window must not be stable")
	}
}

func TestStabilizerNeedsMinimumSamples(t *testing.T) {
	s := NewStabilizer(DefaultStabilizerParams())
	s.Add(440)
	s.Add(440)
	if _, ok := s.Stable(); ok {
		t.Error("two samples are below the minimum count")
	}
	s.Add(440)
	if _, ok := s.Stable(); !ok {
		t.Error("three identical samples must be stable")
	}
}

func TestStabilizerReset(t *testing.T) {
	s := NewStabilizer(DefaultStabilizerParams())
	for range 5 {
		s.Add(440)
	}
	s.Reset()
	if s.Len() != 0 {
		t.Fatalf("length after reset = %d", s.Len())
	}
	if _, ok := s.Stable(); ok {
		t.Error("empty window must not be stable")
	}
}
