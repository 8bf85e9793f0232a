// Package hostconfig provides JSON-file configuration for the host
// window and key bindings: a struct tagged for encoding/json, a
// constructor filling sane defaults, and LoadFromFile falling back to
// writing those defaults out when no file exists yet.
package hostconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the host's persisted configuration.
type Config struct {
	Window WindowConfig `json:"window"`
	Input  InputConfig  `json:"input"`
	Paths  PathsConfig  `json:"paths"`
}

// WindowConfig describes the ebiten window.
type WindowConfig struct {
	Scale      int  `json:"scale"` // NES resolution multiplier
	Fullscreen bool `json:"fullscreen"`
	VSync      bool `json:"vsync"`
}

// InputConfig maps keyboard keys to the two controller ports.
type InputConfig struct {
	Player1Keys KeyMapping `json:"player1_keys"`
	Player2Keys KeyMapping `json:"player2_keys"`
}

// KeyMapping names one ebiten key per NES button, as the string form of
// an ebiten.Key constant (e.g. "KeyW", "KeyArrowUp").
type KeyMapping struct {
	Up     string `json:"up"`
	Down   string `json:"down"`
	Left   string `json:"left"`
	Right  string `json:"right"`
	A      string `json:"a"`
	B      string `json:"b"`
	Start  string `json:"start"`
	Select string `json:"select"`
}

// PathsConfig holds ROM and save-data directory settings. They are saved
// and loaded with the rest of the config; no code in this module reads
// from or writes to these directories.
type PathsConfig struct {
	ROMs     string `json:"roms"`
	SaveData string `json:"save_data"`
}

// New returns a Config filled with defaults matching a typical
// emulator's out-of-the-box keybindings.
func New() *Config {
	return &Config{
		Window: WindowConfig{
			Scale:      3,
			Fullscreen: false,
			VSync:      true,
		},
		Input: InputConfig{
			Player1Keys: KeyMapping{
				Up: "KeyW", Down: "KeyS", Left: "KeyA", Right: "KeyD",
				A: "KeyJ", B: "KeyK", Start: "KeyEnter", Select: "KeySpace",
			},
			Player2Keys: KeyMapping{
				Up: "KeyArrowUp", Down: "KeyArrowDown", Left: "KeyArrowLeft", Right: "KeyArrowRight",
				A: "KeyN", B: "KeyM", Start: "KeyShiftRight", Select: "KeyControlRight",
			},
		},
		Paths: PathsConfig{
			ROMs:     "./roms",
			SaveData: "./saves",
		},
	}
}

// LoadFromFile reads config as JSON from path. If the file doesn't exist
// yet, it writes out the defaults and returns them.
func LoadFromFile(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		c := New()
		return c, c.SaveToFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("hostconfig: read %s: %w", path, err)
	}

	c := New()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("hostconfig: parse %s: %w", path, err)
	}
	return c, nil
}

// SaveToFile writes c as indented JSON to path, creating parent
// directories as needed.
func (c *Config) SaveToFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("hostconfig: create directory %s: %w", dir, err)
		}
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("hostconfig: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("hostconfig: write %s: %w", path, err)
	}
	return nil
}
