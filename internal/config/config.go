package config

import (
	"fmt"
	"net/url"
	"time"
)

// Folder panel modes.
const (
	PanelAuto   = "auto"
	PanelOpen   = "open"
	PanelClosed = "closed"
)

// DefaultServerURL is the production SteamedNotes deployment.
const DefaultServerURL = "https://www.steamednotes.com"

// Config is the root configuration structure.
type Config struct {
	Server ServerConfig `json:"server"`
	Editor EditorConfig `json:"editor"`
	Keymap KeymapConfig `json:"keymap"`
	UI     UIConfig     `json:"ui"`
}

// ServerConfig locates the SteamedNotes API.
type ServerConfig struct {
	URL     string        `json:"url"`
	Timeout time.Duration `json:"timeout"` // per request
	WSPath  string        `json:"wsPath"`  // websocket endpoint, relative to URL
}

// EditorConfig configures the note editor screen.
type EditorConfig struct {
	// FolderPanel is "auto" (open on wide terminals), "open" or "closed".
	// A manual toggle saved in state wins over this setting.
	FolderPanel string `json:"folderPanel"`
	// FitPadding is the number of blank rows kept below the body text.
	FitPadding int `json:"fitPadding"`
	// PreviewStyle is the glamour style for the markdown preview
	// ("dark", "light", "notty", "auto").
	PreviewStyle string `json:"previewStyle"`
}

// KeymapConfig holds key binding overrides.
type KeymapConfig struct {
	Overrides map[string]string `json:"overrides" yaml:"overrides"`
}

// UIConfig configures UI appearance.
type UIConfig struct {
	ShowFooter      bool `json:"showFooter"`
	ShowBreadcrumbs bool `json:"showBreadcrumbs"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:     DefaultServerURL,
			Timeout: 15 * time.Second,
			WSPath:  "/api/ws",
		},
		Editor: EditorConfig{
			FolderPanel:  PanelAuto,
			FitPadding:   1,
			PreviewStyle: "dark",
		},
		Keymap: KeymapConfig{
			Overrides: make(map[string]string),
		},
		UI: UIConfig{
			ShowFooter:      true,
			ShowBreadcrumbs: true,
		},
	}
}

// Validate checks the configuration for errors, correcting out-of-range
// values in place.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server url %q: must be an http or https URL", c.Server.URL)
	}
	if c.Server.Timeout <= 0 {
		c.Server.Timeout = 15 * time.Second
	}
	if c.Server.WSPath == "" {
		c.Server.WSPath = "/api/ws"
	}
	switch c.Editor.FolderPanel {
	case PanelAuto, PanelOpen, PanelClosed:
	default:
		c.Editor.FolderPanel = PanelAuto
	}
	if c.Editor.FitPadding < 0 {
		c.Editor.FitPadding = 0
	}
	if c.Editor.PreviewStyle == "" {
		c.Editor.PreviewStyle = "dark"
	}
	if c.Keymap.Overrides == nil {
		c.Keymap.Overrides = make(map[string]string)
	}
	return nil
}

// PanelOpenFor resolves the folder panel default for a terminal size.
// Cells are roughly twice as tall as they are wide, so "auto" opens the
// panel when the screen is wider than it is tall.
func (c *Config) PanelOpenFor(width, height int) bool {
	switch c.Editor.FolderPanel {
	case PanelOpen:
		return true
	case PanelClosed:
		return false
	}
	return width > 2*height
}
