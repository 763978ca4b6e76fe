// Package config holds the user-adjustable training settings, the TOML
// configuration file, and XDG path helpers.
package config

import "fmt"

// Settings are the validated, user-adjustable parameters of a training
// run.
type Settings struct {
	// NotesPerTurn is the sequence length, 1 to 5.
	NotesPerTurn int `toml:"notes-per-turn" json:"notes_per_turn"`
	// MaxInterval bounds adjacent notes in semitones, 1 to 12.
	MaxInterval int `toml:"max-interval" json:"max_interval"`
	// RepetitionsRequired is how often a sequence must be sung back, 1 to
	// 10.
	RepetitionsRequired int `toml:"repetitions" json:"repetitions_required"`
	// TotalSequences bounds the run; 0 means unbounded, at most 100.
	TotalSequences int `toml:"total-sequences" json:"total_sequences"`
	// VolumeThreshold is the RMS gate below which input is treated as
	// silence, 0.001 to 0.05.
	VolumeThreshold float64 `toml:"volume-threshold" json:"volume_threshold"`
	// Instrument selects the demonstration voice.
	Instrument string `toml:"instrument" json:"instrument"`
}

// DefaultSettings returns the stock settings.
func DefaultSettings() Settings {
	return Settings{
		NotesPerTurn:        1,
		MaxInterval:         12,
		RepetitionsRequired: 3,
		TotalSequences:      0,
		VolumeThreshold:     0.01,
		Instrument:          "piano",
	}
}

// Validate checks every field against its documented range.
func (s Settings) Validate() error {
	if s.NotesPerTurn < 1 || s.NotesPerTurn > 5 {
		return fmt.Errorf("notes-per-turn %d out of range [1, 5]", s.NotesPerTurn)
	}
	if s.MaxInterval < 1 || s.MaxInterval > 12 {
		return fmt.Errorf("max-interval %d out of range [1, 12]", s.MaxInterval)
	}
	if s.RepetitionsRequired < 1 || s.RepetitionsRequired > 10 {
		return fmt.Errorf("repetitions %d out of range [1, 10]", s.RepetitionsRequired)
	}
	if s.TotalSequences < 0 || s.TotalSequences > 100 {
		return fmt.Errorf("total-sequences %d out of range [0, 100]", s.TotalSequences)
	}
	if s.VolumeThreshold < 0.001 || s.VolumeThreshold > 0.05 {
		return fmt.Errorf("volume-threshold %g out of range [0.001, 0.05]", s.VolumeThreshold)
	}
	return nil
}
