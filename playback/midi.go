package playback

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters the rtmidi driver

	"github.com/RyanBlaney/solfege/logging"
	"github.com/RyanBlaney/solfege/notes"
)

// General MIDI programs for the supported instrument names.
var gmPrograms = map[string]uint8{
	"piano":  0,
	"guitar": 24,
	"bass":   32,
	"violin": 40,
	"cello":  42,
	"flute":  73,
}

// MIDIPlayer demonstrates notes through the first available MIDI output
// port. Note names are mapped onto MIDI keys from their catalog
// frequencies.
type MIDIPlayer struct {
	send         func(midi.Message) error
	channel      uint8
	velocity     uint8
	noteDuration time.Duration
}

// NewMIDIPlayer opens the first MIDI output port.
func NewMIDIPlayer() (*MIDIPlayer, error) {
	out, err := midi.OutPort(0)
	if err != nil {
		return nil, fmt.Errorf("no MIDI output port: %w", err)
	}
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("open MIDI output: %w", err)
	}

	logging.Info("playback: MIDI output open", logging.Fields{"port": out.String()})
	return &MIDIPlayer{
		send:         send,
		velocity:     100,
		noteDuration: 400 * time.Millisecond,
	}, nil
}

// SetInstrument switches the General MIDI program. Unknown names fall back
// to piano.
func (p *MIDIPlayer) SetInstrument(name string) error {
	program, ok := gmPrograms[strings.ToLower(name)]
	if !ok {
		logging.Warn("playback: unknown instrument, using piano", logging.Fields{"instrument": name})
		program = gmPrograms["piano"]
	}
	return p.send(midi.ProgramChange(p.channel, program))
}

// PlayNote sounds one note for the player's note duration.
func (p *MIDIPlayer) PlayNote(ctx context.Context, n notes.Note) error {
	key := n.MIDIKey()
	if err := p.send(midi.NoteOn(p.channel, key, p.velocity)); err != nil {
		return fmt.Errorf("note on %s: %w", n.Name, err)
	}

	var waitErr error
	select {
	case <-ctx.Done():
		waitErr = ctx.Err()
	case <-time.After(p.noteDuration):
	}

	if err := p.send(midi.NoteOff(p.channel, key)); err != nil && waitErr == nil {
		return fmt.Errorf("note off %s: %w", n.Name, err)
	}
	return waitErr
}

// PlaySequence plays the notes in order, waiting interNoteDelay between
// consecutive notes. Notes are never overlapped.
func (p *MIDIPlayer) PlaySequence(ctx context.Context, seq []notes.Note, interNoteDelay time.Duration) error {
	for i, n := range seq {
		if err := p.PlayNote(ctx, n); err != nil {
			return err
		}
		if i < len(seq)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interNoteDelay):
			}
		}
	}
	return nil
}

// Close releases the MIDI driver.
func (p *MIDIPlayer) Close() error {
	midi.CloseDriver()
	return nil
}
