package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file. Fields are pointers
// so an absent key leaves the default in place.
type FileConfig struct {
	Training TrainingConfig `toml:"training"`
}

// TrainingConfig maps the [training] table.
type TrainingConfig struct {
	NotesPerTurn    *int     `toml:"notes-per-turn"`
	MaxInterval     *int     `toml:"max-interval"`
	Repetitions     *int     `toml:"repetitions"`
	TotalSequences  *int     `toml:"total-sequences"`
	VolumeThreshold *float64 `toml:"volume-threshold"`
	Instrument      *string  `toml:"instrument"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not
// an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Apply overlays the file's values onto the settings.
func (c FileConfig) Apply(s Settings) Settings {
	tr := c.Training
	if tr.NotesPerTurn != nil {
		s.NotesPerTurn = *tr.NotesPerTurn
	}
	if tr.MaxInterval != nil {
		s.MaxInterval = *tr.MaxInterval
	}
	if tr.Repetitions != nil {
		s.RepetitionsRequired = *tr.Repetitions
	}
	if tr.TotalSequences != nil {
		s.TotalSequences = *tr.TotalSequences
	}
	if tr.VolumeThreshold != nil {
		s.VolumeThreshold = *tr.VolumeThreshold
	}
	if tr.Instrument != nil {
		s.Instrument = *tr.Instrument
	}
	return s
}
