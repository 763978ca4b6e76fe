// Package tui provides the Bubble Tea training interface.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/RyanBlaney/solfege/detect"
	"github.com/RyanBlaney/solfege/trainer"
)

// SnapshotMsg carries a trainer state snapshot into the UI.
type SnapshotMsg trainer.Snapshot

// DetectionMsg carries a detection event into the UI.
type DetectionMsg detect.Event

// DoneMsg signals that the training run finished.
type DoneMsg struct{}

// thresholdStep is how far one keypress moves the volume gate.
const thresholdStep = 0.002

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	phaseStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	noteStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	matchedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	finishedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// Model implements the Bubble Tea training UI. It is a passive view: the
// trainer and the detection session push state in through messages, and
// the only state the UI mutates itself is pause and the volume threshold.
type Model struct {
	session *detect.Session

	width  int
	height int

	snapshot trainer.Snapshot
	lastNote string
	volume   float64
	done     bool

	meter progress.Model
}

// NewModel constructs the training TUI model around a running session.
func NewModel(session *detect.Session) *Model {
	meter := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	meter.Width = 30
	return &Model{
		session: session,
		meter:   meter,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case SnapshotMsg:
		m.snapshot = trainer.Snapshot(msg)
		return m, nil
	case DetectionMsg:
		m.volume = msg.Volume
		if msg.HasNote {
			m.lastNote = msg.Note.Name
		}
		return m, nil
	case DoneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "p":
		switch m.session.State() {
		case detect.Listening:
			m.session.Pause()
		case detect.Paused:
			m.session.Resume()
		}
		return m, nil
	case "+", "=":
		m.session.SetVolumeThreshold(m.session.VolumeThreshold() + thresholdStep)
		return m, nil
	case "-":
		t := m.session.VolumeThreshold() - thresholdStep
		if t < 0.001 {
			t = 0.001
		}
		m.session.SetVolumeThreshold(t)
		return m, nil
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("solfege"))
	b.WriteString("  ")
	b.WriteString(phaseStyle.Render(m.phaseLine()))
	b.WriteString("\n\n")

	if m.done {
		b.WriteString(finishedStyle.Render("Run complete. Press q to exit."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(renderSequence(m.snapshot))
	b.WriteString("\n\n")

	heard := "—"
	if m.lastNote != "" {
		heard = m.lastNote
	}
	b.WriteString("Heard: ")
	b.WriteString(noteStyle.Render(heard))
	b.WriteString("\n")

	b.WriteString("Level: ")
	b.WriteString(m.meter.ViewAs(meterPercent(m.volume)))
	b.WriteString("\n\n")

	b.WriteString(footerStyle.Render(m.footer()))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) phaseLine() string {
	line := m.snapshot.Phase.String()
	if m.session.State() == detect.Paused && m.snapshot.Phase == trainer.AwaitingInput {
		line += " (paused)"
	}
	return line
}

func (m *Model) footer() string {
	segments := []string{
		fmt.Sprintf("sequence %d", m.snapshot.Progress.CurrentSequence),
		fmt.Sprintf("reps %d", m.snapshot.Progress.CorrectRepetitions),
		fmt.Sprintf("gate %.3f", m.session.VolumeThreshold()),
		"p pause · +/- gate · q quit",
	}
	return strings.Join(segments, "  ")
}

// renderSequence shows the target sequence with matched positions
// highlighted.
func renderSequence(s trainer.Snapshot) string {
	if len(s.Sequence) == 0 {
		return pendingStyle.Render("waiting for sequence")
	}
	matched := make(map[int]bool, len(s.Progress.NotesPlayed))
	for _, i := range s.Progress.NotesPlayed {
		matched[i] = true
	}
	parts := make([]string, len(s.Sequence))
	for i, n := range s.Sequence {
		if matched[i] {
			parts[i] = matchedStyle.Render(n.Name)
		} else {
			parts[i] = pendingStyle.Render(n.Name)
		}
	}
	return strings.Join(parts, "  ")
}

// meterPercent maps an RMS volume onto the meter, saturating at a level a
// strong singing voice reaches easily.
func meterPercent(volume float64) float64 {
	const fullScale = 0.2
	p := volume / fullScale
	if p > 1 {
		p = 1
	}
	if p < 0 {
		p = 0
	}
	return p
}
