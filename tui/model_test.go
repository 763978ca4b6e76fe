package tui

import (
	"strings"
	"testing"

	"github.com/RyanBlaney/solfege/notes"
	"github.com/RyanBlaney/solfege/trainer"
)

func TestRenderSequence(t *testing.T) {
	table := notes.NewTable()
	c4, _ := table.Lookup("C4")
	e4, _ := table.Lookup("E4")

	s := trainer.Snapshot{
		Phase:    trainer.AwaitingInput,
		Sequence: []notes.Note{c4, e4},
		Progress: trainer.Progress{CurrentSequence: 1, NotesPlayed: []int{0}},
	}
	out := renderSequence(s)
	if !strings.Contains(out, "C4") || !strings.Contains(out, "E4") {
		t.Fatalf("sequence names missing from %q", out)
	}

	empty := renderSequence(trainer.Snapshot{})
	if !strings.Contains(empty, "waiting") {
		t.Fatalf("empty snapshot rendered %q", empty)
	}
}

func TestMeterPercent(t *testing.T) {
	tests := []struct {
		volume float64
		want   float64
	}{
		{0, 0},
		{0.1, 0.5},
		{0.2, 1},
		{0.5, 1},
		{-0.1, 0},
	}
	for _, tt := range tests {
		if got := meterPercent(tt.volume); got != tt.want {
			t.Errorf("meterPercent(%v) = %v, want %v", tt.volume, got, tt.want)
		}
	}
}
