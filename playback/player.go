// Package playback is the output collaborator: it turns catalog notes into
// audible demonstrations. Playback calls are awaited sequentially, never
// overlapped.
package playback

import (
	"context"
	"time"

	"github.com/RyanBlaney/solfege/notes"
)

// Player plays single notes and whole sequences. Implementations must
// tolerate being invoked repeatedly in short succession; errors are
// reported but callers treat them as skippable.
type Player interface {
	PlayNote(ctx context.Context, n notes.Note) error
	PlaySequence(ctx context.Context, seq []notes.Note, interNoteDelay time.Duration) error
}

// NopPlayer is a silent Player for tests and --silent runs.
type NopPlayer struct{}

func (NopPlayer) PlayNote(ctx context.Context, n notes.Note) error {
	return ctx.Err()
}

func (NopPlayer) PlaySequence(ctx context.Context, seq []notes.Note, interNoteDelay time.Duration) error {
	return ctx.Err()
}
