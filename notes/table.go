package notes

import (
	"math"
	"math/rand"
)

// DefaultTolerance is the relative frequency tolerance for closest-note
// resolution. A candidate match further than this fraction of the matched
// note's frequency away is rejected, which keeps octave confusion and broad
// band noise from being forced into a match.
const DefaultTolerance = 0.05

// Table is a fixed, ordered catalog of notes with closest-note resolution
// and interval-bounded random selection. The zero value is not usable;
// construct with NewTable or NewTableWithTolerance.
type Table struct {
	catalog   []Note
	index     map[string]int
	tolerance float64
}

// NewTable creates the standard five-octave catalog (C2..B6) with the
// default resolution tolerance.
func NewTable() *Table {
	return NewTableWithTolerance(DefaultTolerance)
}

// NewTableWithTolerance creates the standard catalog with a custom relative
// resolution tolerance. Non-positive tolerances fall back to the default.
func NewTableWithTolerance(tolerance float64) *Table {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return newTable(generateCatalog(2, 60), tolerance)
}

// NewTableFromNotes creates a table over a caller-supplied catalog, keeping
// catalog order. Intended for tests and non-standard instruments.
func NewTableFromNotes(catalog []Note, tolerance float64) *Table {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	owned := make([]Note, len(catalog))
	copy(owned, catalog)
	return newTable(owned, tolerance)
}

func newTable(catalog []Note, tolerance float64) *Table {
	index := make(map[string]int, len(catalog))
	for i, n := range catalog {
		index[n.Name] = i
	}
	return &Table{
		catalog:   catalog,
		index:     index,
		tolerance: tolerance,
	}
}

// Len returns the number of notes in the catalog.
func (t *Table) Len() int {
	return len(t.catalog)
}

// At returns the note at catalog position i.
func (t *Table) At(i int) Note {
	return t.catalog[i]
}

// Notes returns a copy of the full catalog in order.
func (t *Table) Notes() []Note {
	out := make([]Note, len(t.catalog))
	copy(out, t.catalog)
	return out
}

// Index returns the catalog position of the named note.
func (t *Table) Index(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Lookup returns the named note.
func (t *Table) Lookup(name string) (Note, bool) {
	i, ok := t.index[name]
	if !ok {
		return Note{}, false
	}
	return t.catalog[i], true
}

// FindClosestNote returns the catalog note with minimal absolute frequency
// difference from freq. It returns false for non-positive frequencies, and
// for matches whose difference exceeds the table tolerance relative to the
// matched note's frequency.
func (t *Table) FindClosestNote(freq float64) (Note, bool) {
	if freq <= 0 || len(t.catalog) == 0 {
		return Note{}, false
	}

	best := 0
	bestDiff := math.Abs(freq - t.catalog[0].Frequency)
	for i := 1; i < len(t.catalog); i++ {
		diff := math.Abs(freq - t.catalog[i].Frequency)
		if diff < bestDiff {
			bestDiff = diff
			best = i
		}
	}

	matched := t.catalog[best]
	if bestDiff > t.tolerance*matched.Frequency {
		return Note{}, false
	}
	return matched, true
}

// RandomNote returns a uniformly random catalog note.
func (t *Table) RandomNote(rnd *rand.Rand) Note {
	return t.catalog[rnd.Intn(len(t.catalog))]
}

// RandomNoteWithinInterval returns a uniformly random note whose catalog
// position lies within maxInterval steps of the reference note, clamped to
// the table bounds. An unknown reference falls back to an unconstrained
// random note.
func (t *Table) RandomNoteWithinInterval(rnd *rand.Rand, reference Note, maxInterval int) Note {
	refIdx, ok := t.index[reference.Name]
	if !ok {
		return t.RandomNote(rnd)
	}

	lo := refIdx - maxInterval
	if lo < 0 {
		lo = 0
	}
	hi := refIdx + maxInterval
	if hi > len(t.catalog)-1 {
		hi = len(t.catalog) - 1
	}

	return t.catalog[lo+rnd.Intn(hi-lo+1)]
}
