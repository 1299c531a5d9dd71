package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Message types for tea.Cmd
type (
	// TickMsg is sent on each clock tick; expired toasts are cleared on it.
	TickMsg time.Time

	// authCheckedMsg reports the startup session check.
	authCheckedMsg struct {
		Epoch    uint64
		SignedIn bool
		Err      error
	}

	// loggedOutMsg reports the logout request finished.
	loggedOutMsg struct {
		Err error
	}

	// Global command requests, emitted by keymap handlers so the model
	// applies them inside Update.
	quitRequestMsg   struct{}
	logoutRequestMsg struct{}
	toggleFooterMsg  struct{}
	toggleHelpMsg    struct{}
)

// tickCmd returns a command that ticks every second.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func emit(m tea.Msg) func() tea.Cmd {
	return func() tea.Cmd {
		return func() tea.Msg { return m }
	}
}

// checkSession asks the server whether the cookie session is still valid.
func checkSession(s Session, epoch uint64, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		ok, err := s.IsSignedIn(ctx)
		return authCheckedMsg{Epoch: epoch, SignedIn: ok, Err: err}
	}
}

func logout(s Session, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return loggedOutMsg{Err: s.Logout(ctx)}
	}
}
