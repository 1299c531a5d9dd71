package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configDir  = ".config/steamnotes"
	configFile = "config.json"
)

// Environment overrides, applied after the config file.
const (
	EnvURL     = "STEAMNOTES_URL"
	EnvTimeout = "STEAMNOTES_TIMEOUT"
)

// rawConfig is the unmarshaling intermediary shared by JSON and YAML.
type rawConfig struct {
	Server rawServerConfig `json:"server" yaml:"server"`
	Editor rawEditorConfig `json:"editor" yaml:"editor"`
	Keymap KeymapConfig    `json:"keymap" yaml:"keymap"`
	UI     rawUIConfig     `json:"ui" yaml:"ui"`
}

type rawServerConfig struct {
	URL     string `json:"url" yaml:"url"`
	Timeout string `json:"timeout" yaml:"timeout"`
	WSPath  string `json:"wsPath" yaml:"wsPath"`
}

type rawEditorConfig struct {
	FolderPanel  string `json:"folderPanel" yaml:"folderPanel"`
	FitPadding   *int   `json:"fitPadding" yaml:"fitPadding"`
	PreviewStyle string `json:"previewStyle" yaml:"previewStyle"`
}

type rawUIConfig struct {
	ShowFooter      *bool `json:"showFooter" yaml:"showFooter"`
	ShowBreadcrumbs *bool `json:"showBreadcrumbs" yaml:"showBreadcrumbs"`
}

// Load loads configuration from the default location.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom loads configuration from a specific path.
// If path is empty, uses ~/.config/steamnotes/config.json.
// Files ending in .yaml or .yml are decoded as YAML.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = ConfigPath()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			raw, err := decode(path, data)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
			mergeConfig(cfg, raw)
		case os.IsNotExist(err):
			// defaults
		default:
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func decode(path string, data []byte) (*rawConfig, error) {
	var raw rawConfig
	if isYAML(path) {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		return &raw, nil
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return &raw, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// mergeConfig merges raw config values into the config.
func mergeConfig(cfg *Config, raw *rawConfig) {
	// Server
	if raw.Server.URL != "" {
		cfg.Server.URL = strings.TrimRight(raw.Server.URL, "/")
	}
	if raw.Server.Timeout != "" {
		if d, err := time.ParseDuration(raw.Server.Timeout); err == nil {
			cfg.Server.Timeout = d
		} else {
			slog.Warn("config: invalid server timeout", "value", raw.Server.Timeout, "error", err)
		}
	}
	if raw.Server.WSPath != "" {
		cfg.Server.WSPath = raw.Server.WSPath
	}

	// Editor
	if raw.Editor.FolderPanel != "" {
		cfg.Editor.FolderPanel = strings.ToLower(raw.Editor.FolderPanel)
	}
	if raw.Editor.FitPadding != nil {
		cfg.Editor.FitPadding = *raw.Editor.FitPadding
	}
	if raw.Editor.PreviewStyle != "" {
		cfg.Editor.PreviewStyle = raw.Editor.PreviewStyle
	}

	// Keymap
	for k, v := range raw.Keymap.Overrides {
		cfg.Keymap.Overrides[k] = v
	}

	// UI
	if raw.UI.ShowFooter != nil {
		cfg.UI.ShowFooter = *raw.UI.ShowFooter
	}
	if raw.UI.ShowBreadcrumbs != nil {
		cfg.UI.ShowBreadcrumbs = *raw.UI.ShowBreadcrumbs
	}
}

// applyEnv lets the environment (and a .env file loaded by main) point the
// client at another server without editing the config file.
func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvURL)); v != "" {
		cfg.Server.URL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(os.Getenv(EnvTimeout)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.Timeout = d
		} else {
			slog.Warn("config: invalid timeout in environment", "var", EnvTimeout, "value", v)
		}
	}
}

// ExpandPath expands ~ to home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// testConfigPath overrides ConfigPath in tests.
var testConfigPath string

// SetTestConfigPath points ConfigPath at path. For tests only.
func SetTestConfigPath(path string) { testConfigPath = path }

// ResetTestConfigPath restores the default ConfigPath.
func ResetTestConfigPath() { testConfigPath = "" }

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	if testConfigPath != "" {
		return testConfigPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, configDir, configFile)
}

// Dir returns the directory holding the config, state and log files.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, configDir)
}
