package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/steamednotes/steamnotes/internal/api"
	"github.com/steamednotes/steamnotes/internal/app"
	"github.com/steamednotes/steamnotes/internal/config"
	"github.com/steamednotes/steamnotes/internal/keymap"
	"github.com/steamednotes/steamnotes/internal/plugin"
	"github.com/steamednotes/steamnotes/internal/plugins/messages"
	"github.com/steamednotes/steamnotes/internal/plugins/noteeditor"
	"github.com/steamednotes/steamnotes/internal/plugins/signin"
	"github.com/steamednotes/steamnotes/internal/state"
)

// Version is set at build time via ldflags
var Version = ""

var (
	configPath   = flag.String("config", "", "path to config file (.json, .yaml)")
	serverURL    = flag.String("url", "", "SteamedNotes server URL (overrides config)")
	noteID       = flag.String("note", "", "open this note id instead of the last one")
	bindFlag     = flag.String("bind", "", "save a key override as key=command and exit (empty command clears it)")
	debugFlag    = flag.Bool("debug", false, "enable debug logging")
	versionFlag  = flag.Bool("version", false, "print version and exit")
	shortVersion = flag.Bool("v", false, "print version and exit (short)")
)

func main() {
	flag.Parse()

	if *versionFlag || *shortVersion {
		fmt.Printf("steamnotes version %s\n", effectiveVersion(Version))
		os.Exit(0)
	}

	// .env is optional; real environment variables win
	_ = godotenv.Load()

	logger, closeLog := setupLogger(*debugFlag)
	defer closeLog()

	if *bindFlag != "" {
		if err := saveBinding(*bindFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save binding: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	path := config.ConfigPath()
	if *configPath != "" {
		path = config.ExpandPath(*configPath)
	} else if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		// First run: leave a default file to edit and watch
		if err := config.Save(config.Default()); err != nil {
			logger.Warn("could not write default config", "path", path, "error", err)
		}
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *serverURL != "" {
		cfg.Server.URL = strings.TrimSpace(*serverURL)
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid -url: %v\n", err)
			os.Exit(1)
		}
	}

	// Load persistent state (ignore errors - state is optional)
	if err := state.Init(); err != nil {
		logger.Warn("state unavailable", "error", err)
	}

	client, err := api.New(api.Options{
		BaseURL: cfg.Server.URL,
		Timeout: cfg.Server.Timeout,
		WSPath:  cfg.Server.WSPath,
		Logger:  logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create API client: %v\n", err)
		os.Exit(1)
	}

	km := keymap.NewRegistry()
	km.RegisterDefaults()
	for key, cmdID := range cfg.Keymap.Overrides {
		km.SetUserOverride(key, cmdID)
	}

	pluginCtx := &plugin.Context{
		Config: cfg,
		Logger: logger,
		Keymap: km,
		API:    client,
	}
	registry := plugin.NewRegistry(pluginCtx)
	for _, p := range []plugin.Plugin{noteeditor.New(), signin.New(), messages.New()} {
		if err := registry.Register(p); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start %s: %v\n", p.Name(), err)
			os.Exit(1)
		}
	}

	initial := ""
	if *noteID != "" {
		initial = app.NotePath(*noteID)
	}

	model := app.New(app.Options{
		Registry:    registry,
		Keymap:      km,
		Config:      cfg,
		Session:     client,
		Version:     effectiveVersion(Version),
		InitialPath: initial,
	})
	p := tea.NewProgram(model, tea.WithAltScreen())

	if w, err := config.Watch(path, p.Send, logger); err != nil {
		logger.Warn("config watch disabled", "path", path, "error", err)
	} else {
		defer w.Close()
	}

	logger.Info("starting", "version", effectiveVersion(Version), "server", client.BaseURL(), "timeout", client.Timeout())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running application: %v\n", err)
		os.Exit(1)
	}
}

// saveBinding parses key=command and records it in the config file.
func saveBinding(arg string) error {
	k, cmdID, ok := strings.Cut(arg, "=")
	k = strings.TrimSpace(k)
	if !ok || k == "" {
		return fmt.Errorf("want key=command, got %q", arg)
	}
	cmdID = strings.TrimSpace(cmdID)
	if cmdID != "" && !knownCommand(cmdID) {
		return fmt.Errorf("unknown command %q", cmdID)
	}
	return config.SaveKeymapOverride(k, cmdID)
}

func knownCommand(id string) bool {
	for _, b := range keymap.DefaultBindings() {
		if b.Command == id {
			return true
		}
	}
	return false
}

// setupLogger writes to the log file next to the config; the terminal
// belongs to the TUI. Falls back to stderr when the file cannot be opened.
func setupLogger(debugOn bool) (*slog.Logger, func()) {
	level := slog.LevelInfo
	if debugOn {
		level = slog.LevelDebug
	}
	var out io.Writer = os.Stderr
	closeFn := func() {}
	if dir := config.Dir(); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err == nil {
			f, err := os.OpenFile(filepath.Join(dir, "steamnotes.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err == nil {
				out = f
				closeFn = func() { _ = f.Close() }
			}
		}
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger, closeFn
}

// effectiveVersion returns the version string, with fallback to build info.
func effectiveVersion(v string) string {
	if v != "" {
		return v
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	// Fall back to VCS info
	var revision string
	var dirty bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	if revision == "" {
		return "devel"
	}
	ver := "devel+" + revision
	if len(ver) > 20 {
		ver = ver[:20]
	}
	if dirty {
		ver += "+dirty"
	}
	return ver
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: steamnotes [options]\n\n")
		fmt.Fprintf(os.Stderr, "A terminal client for SteamedNotes.\n\n")
		fmt.Fprintf(os.Stderr, "Environment: %s, %s override the config file.\n\n", config.EnvURL, config.EnvTimeout)
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
}
