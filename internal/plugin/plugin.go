package plugin

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Plugin defines the interface for every steamnotes screen.
type Plugin interface {
	ID() string
	Name() string
	Init(ctx *Context) error
	Start() tea.Cmd
	Stop()
	Update(msg tea.Msg) (Plugin, tea.Cmd)
	View(width, height int) string
	IsFocused() bool
	SetFocused(bool)
	FocusContext() string
}

// Params are the path parameters of the route a screen is mounted on.
type Params map[string]string

// Mountable is implemented by screens that hold per-route state. Mount is
// called when the router enters the screen's route, Unmount on every way
// out of it (route change, logout, quit).
type Mountable interface {
	Mount(params Params) tea.Cmd
	Unmount()
}

// TextInputConsumer is an optional capability for plugins that need
// printable keys forwarded as typed text instead of being intercepted by
// app-level shortcuts.
type TextInputConsumer interface {
	ConsumesTextInput() bool
}

// Dirtier is implemented by screens holding unsaved edits. The app asks
// before quitting or signing out while Dirty reports true.
type Dirtier interface {
	Dirty() bool
}

// EpochMessage is implemented by async messages that need staleness detection.
// Messages from async operations should embed an Epoch field and implement this interface.
type EpochMessage interface {
	GetEpoch() uint64
}

// IsStale returns true if the message's epoch doesn't match the current context epoch.
// The app bumps the epoch whenever the session changes, so results started
// under a previous sign-in are discarded:
//
//	if plugin.IsStale(p.ctx, msg) { return p, nil }
func IsStale(ctx *Context, msg EpochMessage) bool {
	return ctx != nil && msg.GetEpoch() != ctx.Epoch
}

// Sizer is implemented by screens that need their size before the first
// View, for layout decisions made on mount.
type Sizer interface {
	SetSize(width, height int)
}
