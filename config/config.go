package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Tempo bounds for playback, in BPM
const (
	MinTempo     = 20
	MaxTempo     = 300
	DefaultTempo = 120
)

// OutputConfig selects the MIDI output used for playback
type OutputConfig struct {
	PortName string `json:"portName,omitempty"`
}

// PlaybackConfig stores transport preferences
type PlaybackConfig struct {
	Tempo int  `json:"tempo,omitempty"` // fixed playback BPM; the file's tempo map is not applied
	Loop  bool `json:"loop,omitempty"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette      string `json:"palette,omitempty"`      // GIMP .gpl file, built-in palette if empty
	TextEncoding string `json:"textEncoding,omitempty"` // for track names, e.g. "shift_jis"
}

// DebugConfig controls the debug log
type DebugConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Output   OutputConfig   `json:"output,omitempty"`
	Playback PlaybackConfig `json:"playback,omitempty"`
	UI       UIConfig       `json:"ui,omitempty"`
	Debug    DebugConfig    `json:"debug,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Playback: PlaybackConfig{
			Tempo: DefaultTempo,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "smfplay"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path, or returns defaults if it does not exist
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Playback.Tempo = ClampTempo(cfg.Playback.Tempo)

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// RememberTempo stores bpm as the playback tempo and reports whether it changed
func (c *Config) RememberTempo(bpm int) bool {
	bpm = ClampTempo(bpm)
	if c.Playback.Tempo == bpm {
		return false
	}
	c.Playback.Tempo = bpm
	return true
}

// ClampTempo limits bpm to [MinTempo, MaxTempo]; zero means DefaultTempo
func ClampTempo(bpm int) int {
	if bpm == 0 {
		return DefaultTempo
	}
	if bpm < MinTempo {
		return MinTempo
	}
	if bpm > MaxTempo {
		return MaxTempo
	}
	return bpm
}
