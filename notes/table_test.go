package notes

import (
	"math"
	"math/rand"
	"testing"
)

func TestFindClosestNoteExact(t *testing.T) {
	table := NewTable()

	tests := []struct {
		freq float64
		want string
	}{
		{440.0, "A4"},
		{261.63, "C4"},
		{82.41, "E2"},
		{987.77, "B5"},
	}
	for _, tt := range tests {
		got, ok := table.FindClosestNote(tt.freq)
		if !ok {
			t.Fatalf("FindClosestNote(%v): no match", tt.freq)
		}
		if got.Name != tt.want {
			t.Errorf("FindClosestNote(%v) = %s, want %s", tt.freq, got.Name, tt.want)
		}
	}
}

func TestFindClosestNoteMinimizesDifference(t *testing.T) {
	table := NewTable()

	for _, freq := range []float64{100, 215.3, 440.1, 700, 1200} {
		got, ok := table.FindClosestNote(freq)
		if !ok {
			continue
		}
		for _, n := range table.Notes() {
			if math.Abs(freq-n.Frequency) < math.Abs(freq-got.Frequency) {
				t.Errorf("FindClosestNote(%v) = %s, but %s is closer", freq, got.Name, n.Name)
			}
		}
	}
}

func TestFindClosestNoteTolerance(t *testing.T) {
	table := NewTable()

	// Slightly sharp of A4 resolves; way off between catalog coverage does not.
	if _, ok := table.FindClosestNote(445); !ok {
		t.Error("expected 445 Hz to resolve to A4")
	}
	// Far above the top of the catalog: nearest note is more than 5% away.
	if n, ok := table.FindClosestNote(4000); ok {
		t.Errorf("expected no match for 4000 Hz, got %s", n.Name)
	}
}

func TestFindClosestNoteRejectsNonPositive(t *testing.T) {
	table := NewTable()

	for _, freq := range []float64{0, -1, -440} {
		if n, ok := table.FindClosestNote(freq); ok {
			t.Errorf("FindClosestNote(%v) = %s, want no match", freq, n.Name)
		}
	}
}

func TestRandomNoteWithinIntervalBounds(t *testing.T) {
	table := NewTable()
	rnd := rand.New(rand.NewSource(1))

	ref, _ := table.Lookup("A4")
	refIdx, _ := table.Index("A4")

	const maxInterval = 3
	for range 200 {
		n := table.RandomNoteWithinInterval(rnd, ref, maxInterval)
		idx, ok := table.Index(n.Name)
		if !ok {
			t.Fatalf("returned note %s not in catalog", n.Name)
		}
		if d := abs(idx - refIdx); d > maxInterval {
			t.Fatalf("note %s is %d steps from A4, want <= %d", n.Name, d, maxInterval)
		}
	}
}

func TestRandomNoteWithinIntervalClampsAtEdges(t *testing.T) {
	table := NewTable()
	rnd := rand.New(rand.NewSource(2))

	first := table.At(0)
	for range 100 {
		n := table.RandomNoteWithinInterval(rnd, first, 4)
		idx, _ := table.Index(n.Name)
		if idx < 0 || idx > 4 {
			t.Fatalf("edge clamp violated: got index %d", idx)
		}
	}
}

func TestRandomNoteWithinIntervalUnknownReference(t *testing.T) {
	table := NewTable()
	rnd := rand.New(rand.NewSource(3))

	// An unknown reference must fall back to an unconstrained pick, not panic.
	n := table.RandomNoteWithinInterval(rnd, Note{Name: "H9", Frequency: 1}, 2)
	if _, ok := table.Index(n.Name); !ok {
		t.Fatalf("fallback returned note %s outside catalog", n.Name)
	}
}

func TestMIDIKey(t *testing.T) {
	table := NewTable()

	a4, _ := table.Lookup("A4")
	if got := a4.MIDIKey(); got != 69 {
		t.Errorf("A4 MIDI key = %d, want 69", got)
	}
	c4, _ := table.Lookup("C4")
	if got := c4.MIDIKey(); got != 60 {
		t.Errorf("C4 MIDI key = %d, want 60", got)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
