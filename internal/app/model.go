// Package app is the root Bubble Tea model: it routes paths to screens,
// gates every screen but sign-in behind a valid session, and owns the
// header, footer, toasts and dialogs.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/steamednotes/steamnotes/internal/config"
	"github.com/steamednotes/steamnotes/internal/keymap"
	"github.com/steamednotes/steamnotes/internal/msg"
	"github.com/steamednotes/steamnotes/internal/plugin"
	"github.com/steamednotes/steamnotes/internal/state"
	"github.com/steamednotes/steamnotes/internal/styles"
	"github.com/steamednotes/steamnotes/internal/ui"
)

// Session is the part of the API the app needs for the auth gate.
type Session interface {
	IsSignedIn(ctx context.Context) (bool, error)
	Logout(ctx context.Context) error
}

// AuthGate tracks the signed-in state. Until Checked, screens are not
// mounted and a checking line is shown instead.
type AuthGate struct {
	Checked  bool
	SignedIn bool
	Email    string
}

// Options configures New.
type Options struct {
	Registry *plugin.Registry
	Keymap   *keymap.Registry
	Config   *config.Config
	Session  Session
	Version  string
	// InitialPath is opened once the session check completes; "" opens
	// the last note.
	InitialPath string
}

// Model is the root Bubble Tea model for steamnotes.
type Model struct {
	cfg      *config.Config
	registry *plugin.Registry
	keymap   *keymap.Registry
	session  Session
	logger   *slog.Logger
	global   *keymap.Handle

	// UI state
	width, height int
	ready         bool
	showFooter    bool
	showHelp      bool
	help          help.Model

	// Open confirmation dialog and the message sent when it is accepted
	confirm   *ui.ConfirmDialog
	onConfirm tea.Msg

	auth    AuthGate
	route   Route
	active  plugin.Plugin
	pending string // path to open after sign-in

	// Status/toast messages
	statusMsg     string
	statusExpiry  time.Time
	statusIsError bool

	version string
}

// New creates the root model and attaches the global key handlers.
func New(opts Options) Model {
	logger := slog.Default()
	if ctx := opts.Registry.Context(); ctx != nil && ctx.Logger != nil {
		logger = ctx.Logger
	}
	h := help.New()
	h.Styles.FullKey = styles.FooterKey
	h.Styles.FullDesc = styles.Muted
	h.Styles.FullSeparator = styles.Subtle

	m := Model{
		cfg:        opts.Config,
		registry:   opts.Registry,
		keymap:     opts.Keymap,
		session:    opts.Session,
		logger:     logger,
		showFooter: opts.Config.UI.ShowFooter,
		help:       h,
		pending:    opts.InitialPath,
		version:    opts.Version,
	}
	m.global = opts.Keymap.Acquire(keymap.ContextGlobal,
		keymap.Command{ID: "quit", Name: "Quit", Handler: emit(quitRequestMsg{})},
		keymap.Command{ID: "logout", Name: "Sign out", Handler: emit(logoutRequestMsg{})},
		keymap.Command{ID: "open-messages", Name: "Messages", Handler: func() tea.Cmd { return msg.Navigate("/messages") }},
		keymap.Command{ID: "toggle-footer", Handler: emit(toggleFooterMsg{})},
		keymap.Command{ID: "toggle-help", Name: "Help", Handler: emit(toggleHelpMsg{})},
	)
	return m
}

// Init starts the plugins and the session check.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(), checkSession(m.session, m.epoch(), m.cfg.Server.Timeout)}
	cmds = append(cmds, m.registry.Start()...)
	return tea.Batch(cmds...)
}

// Auth returns the auth gate state.
func (m Model) Auth() AuthGate { return m.auth }

// Route returns the mounted route.
func (m Model) Route() Route { return m.route }

// Active returns the mounted screen, nil before the session check.
func (m Model) Active() plugin.Plugin { return m.active }

func (m Model) epoch() uint64 {
	if ctx := m.registry.Context(); ctx != nil {
		return ctx.Epoch
	}
	return 0
}

// bumpEpoch invalidates every async result started under the previous
// session.
func (m *Model) bumpEpoch() {
	if ctx := m.registry.Context(); ctx != nil {
		ctx.Epoch++
	}
}

// focusContext is the keymap context of the mounted screen.
func (m Model) focusContext() string {
	if m.active == nil {
		return keymap.ContextGlobal
	}
	return m.active.FocusContext()
}

// dirty reports unsaved edits on the mounted screen.
func (m Model) dirty() bool {
	d, ok := m.active.(plugin.Dirtier)
	return ok && d.Dirty()
}

// contentSize is the area left for screens between header and footer.
func (m Model) contentSize() (int, int) {
	h := m.height - headerHeight
	if m.showFooter {
		h -= footerHeight
	}
	return m.width, max(h, 0)
}

// navigate resolves path and mounts its screen, applying the auth gate.
func (m *Model) navigate(path string) tea.Cmd {
	if !m.auth.Checked {
		m.pending = path
		return nil
	}
	r := ParseRoute(path, state.GetLastNoteID())
	if !m.auth.SignedIn && r.Screen != ScreenSignIn {
		m.pending = r.Path
		r = ParseRoute("/signin", "")
	}
	return m.mount(r)
}

// mount swaps the active screen. The old one is always unmounted first so
// its key bindings are gone before the new screen acquires its own.
func (m *Model) mount(r Route) tea.Cmd {
	m.unmountActive()
	p := m.registry.Get(r.Screen)
	if p == nil {
		m.logger.Error("no screen for route", "path", r.Path, "screen", r.Screen)
		return msg.ShowErrorToast("Unavailable: "+r.Path, 3*time.Second)
	}
	m.route = r
	m.active = p
	p.SetFocused(true)
	if s, ok := p.(plugin.Sizer); ok {
		s.SetSize(m.contentSize())
	}
	m.logger.Debug("route", "path", r.Path)
	if mt, ok := p.(plugin.Mountable); ok {
		return mt.Mount(r.Params)
	}
	return nil
}

func (m *Model) unmountActive() {
	if m.active == nil {
		return
	}
	if mt, ok := m.active.(plugin.Mountable); ok {
		mt.Unmount()
	}
	m.active.SetFocused(false)
	m.active = nil
	m.route = Route{}
}

// signOut drops the session locally and routes to sign-in. resume keeps
// the current path so signing in again returns to it.
func (m *Model) signOut(resume bool) tea.Cmd {
	path := m.route.Path
	m.auth.SignedIn = false
	m.bumpEpoch()
	m.unmountActive()
	m.pending = ""
	if resume {
		m.pending = path
	}
	return m.mount(ParseRoute("/signin", ""))
}

// ShowToast displays a temporary status message.
func (m *Model) ShowToast(text string, duration time.Duration, isError bool) {
	m.statusMsg = text
	m.statusExpiry = time.Now().Add(duration)
	m.statusIsError = isError
}

// ClearToast clears an expired toast message.
func (m *Model) ClearToast(now time.Time) {
	if m.statusMsg != "" && now.After(m.statusExpiry) {
		m.statusMsg = ""
		m.statusIsError = false
	}
}

// askConfirm opens a dialog; accepting it feeds onConfirm back into Update.
func (m *Model) askConfirm(d *ui.ConfirmDialog, onConfirm tea.Msg) {
	m.confirm = d
	m.onConfirm = onConfirm
}

// quit tears everything down so every screen releases its bindings.
func (m *Model) quit() tea.Cmd {
	m.unmountActive()
	m.registry.Stop()
	m.global.Release()
	return tea.Quit
}

// applyConfig re-applies settings that can change while running.
func (m *Model) applyConfig(cfg *config.Config) {
	*m.cfg = *cfg
	m.keymap.ResetUserOverrides()
	for k, cmd := range cfg.Keymap.Overrides {
		m.keymap.SetUserOverride(k, cmd)
	}
	m.showFooter = cfg.UI.ShowFooter
	if s, ok := m.active.(plugin.Sizer); ok {
		s.SetSize(m.contentSize())
	}
}
