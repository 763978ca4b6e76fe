package trainer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/RyanBlaney/solfege/detect"
	"github.com/RyanBlaney/solfege/notes"
)

// fixedSource always returns the same sequence and counts how often it was
// asked.
type fixedSource struct {
	seq   []notes.Note
	calls int
}

func (f *fixedSource) Generate(length, maxInterval int) []notes.Note {
	f.calls++
	out := make([]notes.Note, len(f.seq))
	copy(out, f.seq)
	return out
}

// countingDetector records pause/resume balance.
type countingDetector struct {
	pauses  atomic.Int64
	resumes atomic.Int64
}

func (d *countingDetector) Pause()  { d.pauses.Add(1) }
func (d *countingDetector) Resume() { d.resumes.Add(1) }

// recordingPlayer records every sequence it is asked to play and can be
// made to fail.
type recordingPlayer struct {
	sequences [][]string
	err       error
}

func (p *recordingPlayer) PlayNote(ctx context.Context, n notes.Note) error {
	return p.err
}

func (p *recordingPlayer) PlaySequence(ctx context.Context, seq []notes.Note, d time.Duration) error {
	names := make([]string, len(seq))
	for i, n := range seq {
		names[i] = n.Name
	}
	p.sequences = append(p.sequences, names)
	return p.err
}

func mustNote(t *testing.T, table *notes.Table, name string) notes.Note {
	t.Helper()
	n, ok := table.Lookup(name)
	if !ok {
		t.Fatalf("note %s missing from catalog", name)
	}
	return n
}

func newTestTrainer(t *testing.T, seq []string, params Params) (*Trainer, *fixedSource, *countingDetector, *recordingPlayer, *notes.Table) {
	t.Helper()
	table := notes.NewTable()
	src := &fixedSource{}
	for _, name := range seq {
		src.seq = append(src.seq, mustNote(t, table, name))
	}
	det := &countingDetector{}
	player := &recordingPlayer{}
	tr := New(table, src, player, det, params)
	return tr, src, det, player, table
}

func fastParams() Params {
	p := DefaultParams()
	p.NotesPerTurn = 2
	p.DemonstrationRepeats = 1
	p.InterNoteDelay = 0
	p.SettleDelay = 0
	return p
}

func detection(n notes.Note) detect.Event {
	return detect.Event{Note: n, HasNote: true, Volume: 0.1}
}

func TestTrainerCompletesTrial(t *testing.T) {
	params := fastParams()
	params.RepetitionsRequired = 2
	params.TotalSequences = 1
	tr, _, det, _, table := newTestTrainer(t, []string{"C4", "E4"}, params)

	var completions atomic.Int64
	tr.SetObserver(func(s Snapshot) {
		if s.Phase == TrialComplete {
			completions.Add(1)
		}
	})

	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if tr.Phase() != AwaitingInput {
		t.Fatalf("phase after start = %s", tr.Phase())
	}

	c4 := mustNote(t, table, "C4")
	e4 := mustNote(t, table, "E4")

	tr.HandleDetection(detection(c4))
	tr.HandleDetection(detection(e4))
	if got := tr.Snapshot().Progress.CorrectRepetitions; got != 1 {
		t.Fatalf("repetitions after first pass = %d", got)
	}
	if tr.Phase() != AwaitingInput {
		t.Fatalf("phase after first repetition = %s", tr.Phase())
	}

	tr.HandleDetection(detection(c4))
	tr.HandleDetection(detection(e4))

	if n := completions.Load(); n != 1 {
		t.Fatalf("trial completed %d times, want 1", n)
	}
	if tr.Phase() != Finished {
		t.Fatalf("phase after final repetition = %s", tr.Phase())
	}
	select {
	case <-tr.Done():
	default:
		t.Fatal("done channel not closed after finish")
	}
	if det.pauses.Load() != det.resumes.Load() {
		t.Fatalf("pause/resume imbalance: %d pauses, %d resumes",
			det.pauses.Load(), det.resumes.Load())
	}
}

func TestTrainerIgnoresOutOfOrderNotes(t *testing.T) {
	params := fastParams()
	params.RepetitionsRequired = 1
	tr, _, _, _, table := newTestTrainer(t, []string{"C4", "E4"}, params)
	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	e4 := mustNote(t, table, "E4")
	tr.HandleDetection(detection(e4))
	tr.HandleDetection(detection(e4))

	snap := tr.Snapshot()
	if len(snap.Progress.NotesPlayed) != 0 {
		t.Fatalf("out-of-order note advanced progress: %v", snap.Progress.NotesPlayed)
	}
	if snap.Phase != AwaitingInput {
		t.Fatalf("phase = %s", snap.Phase)
	}
}

func TestTrainerMismatchBetweenMatchesIsSilent(t *testing.T) {
	params := fastParams()
	params.RepetitionsRequired = 1
	params.TotalSequences = 1
	tr, _, _, _, table := newTestTrainer(t, []string{"C4", "E4"}, params)
	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	c4 := mustNote(t, table, "C4")
	e4 := mustNote(t, table, "E4")
	g4 := mustNote(t, table, "G4")

	tr.HandleDetection(detection(c4))
	tr.HandleDetection(detection(g4)) // wrong, must not reset progress
	if got := len(tr.Snapshot().Progress.NotesPlayed); got != 1 {
		t.Fatalf("progress after mismatch = %d, want 1", got)
	}
	tr.HandleDetection(detection(e4))

	if tr.Phase() != Finished {
		t.Fatalf("phase = %s, want finished", tr.Phase())
	}
}

func TestTrainerStopsAtTotalSequences(t *testing.T) {
	params := fastParams()
	params.RepetitionsRequired = 1
	params.TotalSequences = 1
	tr, src, _, _, table := newTestTrainer(t, []string{"C4", "E4"}, params)
	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	tr.HandleDetection(detection(mustNote(t, table, "C4")))
	tr.HandleDetection(detection(mustNote(t, table, "E4")))

	if tr.Phase() != Finished {
		t.Fatalf("phase = %s", tr.Phase())
	}
	if src.calls != 1 {
		t.Fatalf("generated %d sequences after finishing, want 1", src.calls)
	}
}

func TestTrainerAdvancesWhenUnbounded(t *testing.T) {
	params := fastParams()
	params.RepetitionsRequired = 1
	params.TotalSequences = 0
	tr, src, _, _, table := newTestTrainer(t, []string{"C4", "E4"}, params)
	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	tr.HandleDetection(detection(mustNote(t, table, "C4")))
	tr.HandleDetection(detection(mustNote(t, table, "E4")))

	snap := tr.Snapshot()
	if snap.Phase != AwaitingInput {
		t.Fatalf("phase after unbounded trial = %s", snap.Phase)
	}
	if snap.Progress.CurrentSequence != 2 {
		t.Fatalf("sequence counter = %d, want 2", snap.Progress.CurrentSequence)
	}
	if src.calls != 2 {
		t.Fatalf("generator calls = %d, want 2", src.calls)
	}
}

func TestTrainerResumesDetectionOnPlaybackFailure(t *testing.T) {
	params := fastParams()
	tr, _, det, player, _ := newTestTrainer(t, []string{"C4"}, params)
	player.err = errors.New("synth offline")

	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	if tr.Phase() != AwaitingInput {
		t.Fatalf("phase after failed demonstration = %s", tr.Phase())
	}
	if det.pauses.Load() != det.resumes.Load() {
		t.Fatalf("detection left paused: %d pauses, %d resumes",
			det.pauses.Load(), det.resumes.Load())
	}
}

func TestTrainerDoubleStartFails(t *testing.T) {
	tr, _, _, _, _ := newTestTrainer(t, []string{"C4"}, fastParams())
	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := tr.Start(context.Background()); err == nil {
		t.Fatal("second start must fail")
	}
}
