// Package main provides the CLI entrypoint for solfege.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/solfege/capture"
	"github.com/RyanBlaney/solfege/config"
	"github.com/RyanBlaney/solfege/detect"
	"github.com/RyanBlaney/solfege/logging"
	"github.com/RyanBlaney/solfege/notes"
	"github.com/RyanBlaney/solfege/playback"
	"github.com/RyanBlaney/solfege/sequence"
	"github.com/RyanBlaney/solfege/store"
	"github.com/RyanBlaney/solfege/trainer"
	"github.com/RyanBlaney/solfege/tui"
)

var (
	trainNotes      int
	trainInterval   int
	trainReps       int
	trainSequences  int
	trainThreshold  float64
	trainInstrument string
	trainSimulate   float64
	trainSilent     bool
	trainHeadless   bool
	trainVerbose    bool

	statsLast int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaults := config.DefaultSettings()
	rootCmd := &cobra.Command{
		Use:           "solfege",
		Short:         "Ear training: sing back what you hear",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTrainCmd,
	}

	rootCmd.Flags().IntVar(&trainNotes, "notes", defaults.NotesPerTurn, "notes per sequence (1-5)")
	rootCmd.Flags().IntVar(&trainInterval, "interval", defaults.MaxInterval, "max interval between adjacent notes in semitones (1-12)")
	rootCmd.Flags().IntVar(&trainReps, "reps", defaults.RepetitionsRequired, "repetitions required per sequence (1-10)")
	rootCmd.Flags().IntVar(&trainSequences, "sequences", defaults.TotalSequences, "sequences per run, 0 for unbounded (0-100)")
	rootCmd.Flags().Float64Var(&trainThreshold, "threshold", defaults.VolumeThreshold, "volume gate RMS threshold (0.001-0.05)")
	rootCmd.Flags().StringVar(&trainInstrument, "instrument", defaults.Instrument, "demonstration instrument")
	rootCmd.Flags().Float64Var(&trainSimulate, "simulate", 0, "replace the microphone with a simulated tone at this frequency (Hz)")
	rootCmd.Flags().BoolVar(&trainSilent, "silent", false, "skip audible demonstrations")
	rootCmd.Flags().BoolVar(&trainHeadless, "headless", false, "run without the TUI, logging events instead")
	rootCmd.Flags().BoolVar(&trainVerbose, "verbose", false, "debug logging")

	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newNotesCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runTrainCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	settings := resolveSettings(cmd, fileCfg)
	if err := settings.Validate(); err != nil {
		return err
	}

	if trainVerbose {
		logging.SetLevel(logging.DebugLevel)
	}
	if !trainHeadless {
		// The TUI owns the terminal; routing log lines through it would
		// tear the display.
		logging.SetGlobalLogger(&logging.NoOpLogger{})
	}

	table := notes.NewTable()
	gen := sequence.New(table)

	var input capture.Input
	if cmd.Flags().Changed("simulate") {
		input = capture.NewSimTone(trainSimulate, 0.3)
	} else {
		input = capture.NewMicInput()
	}

	var player playback.Player = playback.NopPlayer{}
	if !trainSilent {
		midiPlayer, err := playback.NewMIDIPlayer()
		if err != nil {
			logging.Warn("no MIDI output, demonstrations will be silent", logging.Fields{
				"error": err.Error(),
			})
		} else {
			defer midiPlayer.Close()
			if err := midiPlayer.SetInstrument(settings.Instrument); err != nil {
				logging.Warn("failed to set instrument", logging.Fields{"error": err.Error()})
			}
			player = midiPlayer
		}
	}

	detectCfg := detect.DefaultConfig()
	detectCfg.VolumeThreshold = settings.VolumeThreshold
	session := detect.NewSession(table, input, detectCfg)
	session.SetInstrument(settings.Instrument)

	params := trainer.DefaultParams()
	params.NotesPerTurn = settings.NotesPerTurn
	params.MaxInterval = settings.MaxInterval
	params.RepetitionsRequired = settings.RepetitionsRequired
	params.TotalSequences = settings.TotalSequences
	tr := trainer.New(table, gen, player, session, params)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	startedAt := time.Now()
	var runErr error
	if trainHeadless {
		runErr = runHeadless(ctx, session, tr)
	} else {
		runErr = runTUI(ctx, session, tr)
	}
	session.Stop()
	if runErr != nil {
		return runErr
	}

	saveRun(settings, session.StrategyName(), startedAt, tr.Snapshot())
	return nil
}

func runHeadless(ctx context.Context, session *detect.Session, tr *trainer.Trainer) error {
	tr.SetObserver(func(s trainer.Snapshot) {
		logging.Info("phase", logging.Fields{
			"phase":       s.Phase.String(),
			"sequence":    s.Progress.CurrentSequence,
			"repetitions": s.Progress.CorrectRepetitions,
		})
	})

	if err := session.Start(tr.HandleDetection); err != nil {
		return fmt.Errorf("failed to start detection: %w", err)
	}
	go func() {
		if err := tr.Start(ctx); err != nil {
			logging.Error(err, "failed to start trainer")
		}
	}()

	select {
	case <-ctx.Done():
	case <-tr.Done():
	}
	return nil
}

func runTUI(ctx context.Context, session *detect.Session, tr *trainer.Trainer) error {
	model := tui.NewModel(session)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	tr.SetObserver(func(s trainer.Snapshot) {
		program.Send(tui.SnapshotMsg(s))
	})

	if err := session.Start(func(ev detect.Event) {
		tr.HandleDetection(ev)
		program.Send(tui.DetectionMsg(ev))
	}); err != nil {
		return fmt.Errorf("failed to start detection: %w", err)
	}

	go func() {
		if err := tr.Start(ctx); err != nil {
			return
		}
		<-tr.Done()
		program.Send(tui.DoneMsg{})
	}()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func saveRun(settings config.Settings, strategy string, startedAt time.Time, snap trainer.Snapshot) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		logging.Warn("failed to open run history", logging.Fields{"error": err.Error()})
		return
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logging.Warn("failed to close run history", logging.Fields{"error": cerr.Error()})
		}
	}()

	completed := snap.Progress.CurrentSequence - 1
	if snap.Phase == trainer.Finished {
		completed = snap.Progress.CurrentSequence
	}
	if completed < 0 {
		completed = 0
	}

	_, err = st.SaveRun(context.Background(), store.Run{
		StartedAt:          startedAt,
		EndedAt:            time.Now(),
		NotesPerTurn:       settings.NotesPerTurn,
		MaxInterval:        settings.MaxInterval,
		Repetitions:        settings.RepetitionsRequired,
		SequencesCompleted: completed,
		Instrument:         settings.Instrument,
		Strategy:           strategy,
	})
	if err != nil {
		logging.Warn("failed to save run", logging.Fields{"error": err.Error()})
	}
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show recent runs",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().IntVar(&statsLast, "last", 10, "number of runs to show")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logging.Warn("failed to close run history", logging.Fields{"error": cerr.Error()})
		}
	}()

	runs, err := st.RecentRuns(context.Background(), statsLast)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-20s %6s %6s %6s %10s %-10s %s\n",
		"ENDED", "NOTES", "INTVL", "REPS", "SEQUENCES", "INSTRUMENT", "STRATEGY")
	for _, run := range runs {
		fmt.Fprintf(out, "%-20s %6d %6d %6d %10d %-10s %s\n",
			run.EndedAt.Local().Format("2006-01-02 15:04"),
			run.NotesPerTurn,
			run.MaxInterval,
			run.Repetitions,
			run.SequencesCompleted,
			run.Instrument,
			run.Strategy,
		)
	}
	return nil
}

func newNotesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notes",
		Short: "Print the note catalog",
		Args:  cobra.NoArgs,
		RunE:  runNotesCmd,
	}
}

func runNotesCmd(cmd *cobra.Command, _ []string) error {
	table := notes.NewTable()
	out := cmd.OutOrStdout()
	for _, n := range table.Notes() {
		fmt.Fprintf(out, "%-4s %10.2f Hz  midi %3d\n", n.Name, n.Frequency, n.MIDIKey())
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create the config file if missing and print its path",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(cmd *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func defaultConfigTemplate() string {
	d := config.DefaultSettings()
	return fmt.Sprintf(`# solfege configuration
# Uncomment a value to enable it. CLI flags override config values.

[training]
# notes-per-turn = %d      # Notes per sequence (1-5)
# max-interval = %d       # Max interval in semitones (1-12)
# repetitions = %d         # Repetitions required per sequence (1-10)
# total-sequences = %d     # Sequences per run, 0 for unbounded (0-100)
# volume-threshold = %.3f # RMS gate below which input is silence
# instrument = %q     # Demonstration instrument
`,
		d.NotesPerTurn,
		d.MaxInterval,
		d.RepetitionsRequired,
		d.TotalSequences,
		d.VolumeThreshold,
		d.Instrument,
	)
}

func resolveSettings(cmd *cobra.Command, fileCfg config.FileConfig) config.Settings {
	settings := fileCfg.Apply(config.DefaultSettings())
	if cmd.Flags().Changed("notes") {
		settings.NotesPerTurn = trainNotes
	}
	if cmd.Flags().Changed("interval") {
		settings.MaxInterval = trainInterval
	}
	if cmd.Flags().Changed("reps") {
		settings.RepetitionsRequired = trainReps
	}
	if cmd.Flags().Changed("sequences") {
		settings.TotalSequences = trainSequences
	}
	if cmd.Flags().Changed("threshold") {
		settings.VolumeThreshold = trainThreshold
	}
	if cmd.Flags().Changed("instrument") {
		settings.Instrument = trainInstrument
	}
	return settings
}
