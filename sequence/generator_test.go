package sequence

import (
	"math/rand"
	"testing"

	"github.com/RyanBlaney/solfege/notes"
)

func TestGenerateLengthAndIntervalBound(t *testing.T) {
	table := notes.NewTable()
	gen := NewWithSource(table, rand.NewSource(7))

	tests := []struct {
		length      int
		maxInterval int
	}{
		{1, 1},
		{2, 12},
		{3, 5},
		{5, 1},
		{5, 12},
	}

	for _, tt := range tests {
		for range 50 {
			seq := gen.Generate(tt.length, tt.maxInterval)
			if len(seq) != tt.length {
				t.Fatalf("Generate(%d, %d): length = %d", tt.length, tt.maxInterval, len(seq))
			}
			for i := 1; i < len(seq); i++ {
				a, _ := table.Index(seq[i-1].Name)
				b, _ := table.Index(seq[i].Name)
				d := a - b
				if d < 0 {
					d = -d
				}
				if d > tt.maxInterval {
					t.Fatalf("adjacent pair %s -> %s spans %d steps, want <= %d",
						seq[i-1].Name, seq[i].Name, d, tt.maxInterval)
				}
			}
		}
	}
}

func TestGenerateZeroLength(t *testing.T) {
	table := notes.NewTable()
	gen := NewWithSource(table, rand.NewSource(8))

	if seq := gen.Generate(0, 3); len(seq) != 0 {
		t.Fatalf("Generate(0, 3) returned %d notes", len(seq))
	}
}
