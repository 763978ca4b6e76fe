// Package notes holds the fixed, ordered catalog of musical notes and its
// lookup logic: closest-note resolution with a relative tolerance and
// interval-bounded random selection.
package notes

import (
	"fmt"
	"math"
	"strings"
)

// Note represents a single catalog entry: a named pitch with its fundamental
// frequency and a reference to the sound sample used for playback.
// Notes are immutable; the catalog is built once at process start.
type Note struct {
	Name      string  `json:"name"`
	Frequency float64 `json:"frequency"` // Hz, > 0
	SampleRef string  `json:"sample_ref"`
}

// MIDIKey returns the MIDI key number closest to the note's frequency
// (A4 = 440 Hz = key 69). Used by MIDI playback.
func (n Note) MIDIKey() uint8 {
	key := math.Round(69.0 + 12.0*math.Log2(n.Frequency/440.0))
	if key < 0 {
		key = 0
	}
	if key > 127 {
		key = 127
	}
	return uint8(key)
}

var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// generateCatalog builds an equal-temperament catalog of size notes starting
// at startOctave's C. Frequencies follow f(n) = f0 * 2^(n/12) with the
// reference anchored to A4 = 440 Hz.
func generateCatalog(startOctave, size int) []Note {
	// Semitone offset of the starting C relative to A4.
	// C4 is 9 semitones below A4; each octave is 12 semitones.
	offset := float64((startOctave-4)*12 - 9)
	startFreq := 440.0 * math.Pow(2, offset/12.0)

	catalog := make([]Note, size)
	for i := 0; i < size; i++ {
		freq := startFreq * math.Pow(2, float64(i)/12.0)
		octave := startOctave + i/12
		name := fmt.Sprintf("%s%d", noteNames[i%12], octave)
		catalog[i] = Note{
			Name:      name,
			Frequency: freq,
			SampleRef: sampleRef(name),
		}
	}
	return catalog
}

// sampleRef maps a note name to its sample file reference, e.g. "C#4" ->
// "samples/cs4.wav". Sample loading itself is the host's concern.
func sampleRef(name string) string {
	ref := strings.ToLower(strings.ReplaceAll(name, "#", "s"))
	return "samples/" + ref + ".wav"
}
