// Package trainer runs the call-and-response training loop: generate a
// sequence, demonstrate it, await matching detections, and advance once the
// sequence has been sung back correctly enough times.
package trainer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/RyanBlaney/solfege/detect"
	"github.com/RyanBlaney/solfege/logging"
	"github.com/RyanBlaney/solfege/notes"
	"github.com/RyanBlaney/solfege/playback"
)

// Phase is the trainer's position in the training loop.
type Phase int

const (
	Idle Phase = iota
	SequenceGenerated
	Demonstrating
	AwaitingInput
	TrialComplete
	Finished
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case SequenceGenerated:
		return "sequence-generated"
	case Demonstrating:
		return "demonstrating"
	case AwaitingInput:
		return "awaiting-input"
	case TrialComplete:
		return "trial-complete"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Detector is the slice of the detection session the trainer drives.
// Detection is paused while the trainer is producing sound so the app does
// not hear itself.
type Detector interface {
	Pause()
	Resume()
}

// SequenceSource produces target sequences. *sequence.Generator satisfies
// it.
type SequenceSource interface {
	Generate(length, maxInterval int) []notes.Note
}

// Progress tracks how far the user is through the current sequence.
type Progress struct {
	// CurrentSequence counts sequences starting at 1.
	CurrentSequence int `json:"current_sequence"`
	// NotesPlayed holds the indices matched so far in this repetition.
	NotesPlayed []int `json:"notes_played"`
	// CorrectRepetitions counts completed repetitions of the current
	// sequence.
	CorrectRepetitions int `json:"correct_repetitions"`
}

// Snapshot is a copy of the trainer state handed to the observer on every
// transition. The observer must not call back into the trainer.
type Snapshot struct {
	Phase    Phase
	Sequence []notes.Note
	Progress Progress
}

// Params configure a training run.
type Params struct {
	NotesPerTurn        int `json:"notes_per_turn"`
	MaxInterval         int `json:"max_interval"`
	RepetitionsRequired int `json:"repetitions_required"`
	// TotalSequences of zero means the run continues until cancelled.
	TotalSequences       int           `json:"total_sequences"`
	DemonstrationRepeats int           `json:"demonstration_repeats"`
	InterNoteDelay       time.Duration `json:"inter_note_delay"`
	SettleDelay          time.Duration `json:"settle_delay"`
}

// DefaultParams returns the stock training run configuration.
func DefaultParams() Params {
	return Params{
		NotesPerTurn:         1,
		MaxInterval:          12,
		RepetitionsRequired:  3,
		TotalSequences:       0,
		DemonstrationRepeats: 3,
		InterNoteDelay:       300 * time.Millisecond,
		SettleDelay:          700 * time.Millisecond,
	}
}

// successFigure is the ascending flourish played when a trial completes.
var successFigure = []string{"C5", "E5", "G5", "C6"}

// Trainer orchestrates the loop. HandleDetection is its detection callback;
// wiring it into a detect.Session makes matched notes advance the run.
type Trainer struct {
	mu       sync.Mutex
	table    *notes.Table
	source   SequenceSource
	player   playback.Player
	detector Detector
	params   Params
	onUpdate func(Snapshot)

	ctx      context.Context
	phase    Phase
	seq      []notes.Note
	progress Progress
	done     chan struct{}
}

// New builds a Trainer. Start must be called before detections are handled.
func New(table *notes.Table, source SequenceSource, player playback.Player, detector Detector, params Params) *Trainer {
	if params.DemonstrationRepeats <= 0 {
		params.DemonstrationRepeats = 3
	}
	return &Trainer{
		table:    table,
		source:   source,
		player:   player,
		detector: detector,
		params:   params,
		phase:    Idle,
		done:     make(chan struct{}),
	}
}

// SetObserver registers a callback invoked with a state snapshot on every
// transition. Must be set before Start.
func (t *Trainer) SetObserver(fn func(Snapshot)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onUpdate = fn
}

// Start generates and demonstrates the first sequence, then returns with
// the trainer awaiting input. It blocks for the duration of the first
// demonstration.
func (t *Trainer) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.phase != Idle {
		return errors.New("trainer: already started")
	}
	t.ctx = ctx
	t.progress.CurrentSequence = 1
	t.beginSequence()
	return nil
}

// Done is closed when the run reaches Finished.
func (t *Trainer) Done() <-chan struct{} {
	return t.done
}

// Phase returns the current phase.
func (t *Trainer) Phase() Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase
}

// Snapshot returns a copy of the current state.
func (t *Trainer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// HandleDetection consumes one detection event. Matches outside
// AwaitingInput and notes that do not match the expected position are
// ignored without penalty.
func (t *Trainer) HandleDetection(ev detect.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.phase != AwaitingInput || !ev.HasNote {
		return
	}

	pos := len(t.progress.NotesPlayed)
	if pos >= len(t.seq) {
		return
	}
	if ev.Note.Name != t.seq[pos].Name {
		return
	}

	t.progress.NotesPlayed = append(t.progress.NotesPlayed, pos)
	logging.Debug("trainer: note matched", logging.Fields{
		"note":     ev.Note.Name,
		"position": pos,
	})

	if len(t.progress.NotesPlayed) < len(t.seq) {
		t.notifyLocked()
		return
	}

	// Repetition complete.
	t.progress.NotesPlayed = nil
	t.progress.CorrectRepetitions++
	if t.progress.CorrectRepetitions < t.params.RepetitionsRequired {
		t.notifyLocked()
		return
	}
	t.completeTrial()
}

// beginSequence generates the next sequence and demonstrates it. Called
// with the lock held.
func (t *Trainer) beginSequence() {
	if t.ctx.Err() != nil {
		t.finishLocked()
		return
	}

	t.seq = t.source.Generate(t.params.NotesPerTurn, t.params.MaxInterval)
	t.progress.NotesPlayed = nil
	t.progress.CorrectRepetitions = 0
	t.phase = SequenceGenerated
	t.notifyLocked()

	names := make([]string, len(t.seq))
	for i, n := range t.seq {
		names[i] = n.Name
	}
	logging.Info("trainer: new sequence", logging.Fields{
		"sequence": names,
		"number":   t.progress.CurrentSequence,
	})

	t.demonstrate()

	t.phase = AwaitingInput
	t.notifyLocked()
}

// demonstrate plays the sequence for the user. Detection pauses while the
// trainer is making sound and resumes on every exit path. Called with the
// lock held.
func (t *Trainer) demonstrate() {
	t.phase = Demonstrating
	t.notifyLocked()

	t.detector.Pause()
	defer t.detector.Resume()

	for i := 0; i < t.params.DemonstrationRepeats; i++ {
		if err := t.player.PlaySequence(t.ctx, t.seq, t.params.InterNoteDelay); err != nil {
			logging.Warn("trainer: demonstration playback failed", logging.Fields{
				"error": err.Error(),
			})
			return
		}
		if i < t.params.DemonstrationRepeats-1 {
			t.sleep(t.params.InterNoteDelay)
		}
	}
}

// completeTrial plays the success figure and either finishes the run or
// advances to the next sequence. Called with the lock held.
func (t *Trainer) completeTrial() {
	t.phase = TrialComplete
	t.notifyLocked()
	logging.Info("trainer: trial complete", logging.Fields{
		"sequence": t.progress.CurrentSequence,
	})

	t.playSuccessFigure()

	if t.params.TotalSequences > 0 && t.progress.CurrentSequence >= t.params.TotalSequences {
		t.finishLocked()
		return
	}

	t.progress.CurrentSequence++
	t.sleep(t.params.SettleDelay)
	t.beginSequence()
}

// playSuccessFigure plays the completion flourish with detection
// suppressed. Called with the lock held.
func (t *Trainer) playSuccessFigure() {
	figure := make([]notes.Note, 0, len(successFigure))
	for _, name := range successFigure {
		if n, ok := t.table.Lookup(name); ok {
			figure = append(figure, n)
		}
	}
	if len(figure) == 0 {
		return
	}

	t.detector.Pause()
	defer t.detector.Resume()
	if err := t.player.PlaySequence(t.ctx, figure, t.params.InterNoteDelay/2); err != nil {
		logging.Warn("trainer: success figure playback failed", logging.Fields{
			"error": err.Error(),
		})
	}
}

func (t *Trainer) finishLocked() {
	if t.phase == Finished {
		return
	}
	t.phase = Finished
	t.notifyLocked()
	close(t.done)
}

// sleep waits without giving up on context cancellation. Called with the
// lock held; acceptable because detection callbacks queue behind the lock
// rather than being lost.
func (t *Trainer) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-t.ctx.Done():
	case <-time.After(d):
	}
}

func (t *Trainer) snapshotLocked() Snapshot {
	seq := make([]notes.Note, len(t.seq))
	copy(seq, t.seq)
	played := make([]int, len(t.progress.NotesPlayed))
	copy(played, t.progress.NotesPlayed)
	return Snapshot{
		Phase:    t.phase,
		Sequence: seq,
		Progress: Progress{
			CurrentSequence:    t.progress.CurrentSequence,
			NotesPlayed:        played,
			CorrectRepetitions: t.progress.CorrectRepetitions,
		},
	}
}

func (t *Trainer) notifyLocked() {
	if t.onUpdate != nil {
		t.onUpdate(t.snapshotLocked())
	}
}
