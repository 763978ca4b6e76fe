// Package sequence builds randomized note sequences for training trials.
package sequence

import (
	"math/rand"
	"time"

	"github.com/RyanBlaney/solfege/notes"
)

// Generator produces bounded-length note sequences where every adjacent
// pair stays within a maximum catalog-index interval.
type Generator struct {
	table *notes.Table
	rnd   *rand.Rand
}

// New returns a Generator over the given table, seeded with the current time.
func New(table *notes.Table) *Generator {
	return NewWithSource(table, rand.NewSource(time.Now().UnixNano()))
}

// NewWithSource returns a Generator with a caller-supplied random source,
// so tests can be deterministic.
func NewWithSource(table *notes.Table, src rand.Source) *Generator {
	return &Generator{
		table: table,
		rnd:   rand.New(src),
	}
}

// Generate returns a sequence of exactly length notes. The first note is
// uniform over the whole catalog; each subsequent note is chosen within
// maxInterval catalog steps of its immediate predecessor. Repeated notes
// are allowed.
func (g *Generator) Generate(length, maxInterval int) []notes.Note {
	if length <= 0 {
		return nil
	}

	seq := make([]notes.Note, 0, length)
	seq = append(seq, g.table.RandomNote(g.rnd))
	for len(seq) < length {
		prev := seq[len(seq)-1]
		seq = append(seq, g.table.RandomNoteWithinInterval(g.rnd, prev, maxInterval))
	}
	return seq
}
