package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// saveConfig is the JSON-marshaling intermediary that uses string durations.
type saveConfig struct {
	Server saveServerConfig `json:"server"`
	Editor EditorConfig     `json:"editor"`
	Keymap KeymapConfig     `json:"keymap"`
	UI     UIConfig         `json:"ui"`
}

type saveServerConfig struct {
	URL     string `json:"url,omitempty"`
	Timeout string `json:"timeout,omitempty"`
	WSPath  string `json:"wsPath,omitempty"`
}

// toSaveConfig converts Config to the JSON-serializable format.
func toSaveConfig(cfg *Config) saveConfig {
	return saveConfig{
		Server: saveServerConfig{
			URL:     cfg.Server.URL,
			Timeout: cfg.Server.Timeout.String(),
			WSPath:  cfg.Server.WSPath,
		},
		Editor: cfg.Editor,
		Keymap: cfg.Keymap,
		UI:     cfg.UI,
	}
}

// Save writes the config to ~/.config/steamnotes/config.json. Top-level keys
// it does not manage are carried over from the existing file.
func Save(cfg *Config) error {
	path := ConfigPath()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	merged := map[string]json.RawMessage{}
	if existing, err := os.ReadFile(path); err == nil {
		// A corrupt file is overwritten.
		_ = json.Unmarshal(existing, &merged)
	}

	managed, err := json.Marshal(toSaveConfig(cfg))
	if err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(managed, &fields); err != nil {
		return err
	}
	for k, v := range fields {
		merged[k] = v
	}

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SaveKeymapOverride records a single key override and saves.
func SaveKeymapOverride(key, command string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	if command == "" {
		delete(cfg.Keymap.Overrides, key)
	} else {
		cfg.Keymap.Overrides[key] = command
	}
	return Save(cfg)
}
