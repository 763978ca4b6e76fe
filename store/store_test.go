package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndListRuns(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "solfege.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := s.SaveRun(ctx, Run{
			StartedAt:          base.Add(time.Duration(i) * time.Hour),
			EndedAt:            base.Add(time.Duration(i)*time.Hour + 10*time.Minute),
			NotesPerTurn:       2,
			MaxInterval:        7,
			Repetitions:        3,
			SequencesCompleted: i,
			Instrument:         "piano",
			Strategy:           "full-spectral",
		})
		if err != nil {
			t.Fatalf("save run %d: %v", i, err)
		}
	}

	runs, err := s.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].SequencesCompleted != 2 {
		t.Errorf("most recent run has %d sequences, want 2", runs[0].SequencesCompleted)
	}
	if !runs[0].EndedAt.After(runs[1].EndedAt) {
		t.Error("runs not ordered most recent first")
	}
	if runs[0].Instrument != "piano" || runs[0].Strategy != "full-spectral" {
		t.Errorf("round trip mismatch: %+v", runs[0])
	}
}

func TestOpenCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "solfege.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
