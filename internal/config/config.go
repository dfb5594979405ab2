// ABOUTME: Persistent trainer preferences
// ABOUTME: JSON config under ~/.config/pitchloop with defaults for missing fields
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the preferences file structure
type Config struct {
	InputDevice      string  `json:"inputDevice,omitempty"`
	LoopDelayMs      int     `json:"loopDelayMs"`
	Looping          bool    `json:"looping"`
	MarginSeconds    float64 `json:"marginSeconds"`
	MaxRecordSeconds float64 `json:"maxRecordSeconds"`
	Output           string  `json:"output,omitempty"`
	WorkDir          string  `json:"workDir,omitempty"`
	YScale           float64 `json:"yScale,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LoopDelayMs:      0,
		Looping:          false,
		MarginSeconds:    0.35,
		MaxRecordSeconds: 10,
	}
}

// Dir returns the config directory path
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "pitchloop"), nil
}

// DefaultPath returns the full path to config.json
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config at path, or returns defaults if it does not exist.
// Fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the config to path, creating its directory
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// LoopDelay returns the configured loop delay
func (c *Config) LoopDelay() time.Duration {
	return time.Duration(c.LoopDelayMs) * time.Millisecond
}

// Margin returns the configured loop margin
func (c *Config) Margin() time.Duration {
	return time.Duration(c.MarginSeconds * float64(time.Second))
}

// MaxRecording returns the configured recording cap
func (c *Config) MaxRecording() time.Duration {
	return time.Duration(c.MaxRecordSeconds * float64(time.Second))
}

// ResolveWorkDir returns WorkDir, or the cache directory default when unset
func (c *Config) ResolveWorkDir() (string, error) {
	if c.WorkDir != "" {
		return c.WorkDir, nil
	}
	cache, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cache, "pitchloop"), nil
}
