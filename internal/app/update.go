package app

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/steamednotes/steamnotes/internal/api"
	"github.com/steamednotes/steamnotes/internal/config"
	"github.com/steamednotes/steamnotes/internal/msg"
	"github.com/steamednotes/steamnotes/internal/plugin"
	"github.com/steamednotes/steamnotes/internal/state"
	"github.com/steamednotes/steamnotes/internal/styles"
	"github.com/steamednotes/steamnotes/internal/ui"
)

// quitConfirmedMsg is sent when the unsaved-changes dialog is accepted.
type quitConfirmedMsg struct{}

// Update handles all messages and returns the updated model and commands.
func (m Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(message)

	case tea.WindowSizeMsg:
		m.width = message.Width
		m.height = message.Height
		m.ready = true
		m.help.Width = message.Width
		if s, ok := m.active.(plugin.Sizer); ok {
			s.SetSize(m.contentSize())
		}
		return m, nil

	case TickMsg:
		m.ClearToast(time.Time(message))
		return m, tickCmd()

	case msg.ToastMsg:
		m.ShowToast(message.Message, message.Duration, message.IsError)
		return m, nil

	case msg.NavigateMsg:
		return m, m.navigate(message.Path)

	case authCheckedMsg:
		if message.Epoch != m.epoch() || m.auth.Checked {
			return m, nil
		}
		m.auth.Checked = true
		m.auth.SignedIn = message.SignedIn
		var toast tea.Cmd
		if message.Err != nil {
			m.logger.Warn("session check failed", "error", message.Err)
			toast = msg.ShowErrorToast("Could not reach server: "+api.UserMessage(message.Err), 4*time.Second)
		}
		if m.auth.SignedIn {
			m.auth.Email = state.GetLastEmail()
		}
		path := m.pending
		m.pending = ""
		return m, tea.Batch(m.navigate(path), toast)

	case msg.SignedInMsg:
		m.auth.Checked = true
		m.auth.SignedIn = true
		m.auth.Email = message.Email
		m.bumpEpoch()
		path := m.pending
		m.pending = ""
		m.logger.Info("signed in", "email", message.Email)
		return m, tea.Batch(m.navigate(path), msg.ShowToast("Signed in as "+message.Email, 2*time.Second))

	case msg.SessionExpiredMsg:
		if !m.auth.SignedIn {
			return m, nil
		}
		m.logger.Info("session expired", "path", m.route.Path)
		return m, tea.Batch(m.signOut(true), msg.ShowErrorToast("Session expired, please sign in again", 3*time.Second))

	case logoutRequestMsg:
		if !m.auth.SignedIn {
			return m, nil
		}
		if m.dirty() {
			d := ui.NewConfirmDialog("Sign out?", "This note has unsaved changes. Sign out and discard them?")
			d.ConfirmLabel = " Sign out "
			d.BorderColor = styles.Warning
			m.askConfirm(d, msg.LogoutMsg{})
			return m, nil
		}
		return m, func() tea.Msg { return msg.LogoutMsg{} }

	case msg.LogoutMsg:
		if !m.auth.SignedIn {
			return m, nil
		}
		m.logger.Info("signing out", "email", m.auth.Email)
		return m, tea.Batch(m.signOut(false), logout(m.session, m.cfg.Server.Timeout))

	case loggedOutMsg:
		if message.Err != nil && !errors.Is(message.Err, api.ErrUnauthorized) {
			m.logger.Warn("logout request failed", "error", message.Err)
			return m, msg.ShowErrorToast("Signed out locally; server logout failed", 3*time.Second)
		}
		return m, msg.ShowToast("Signed out", 2*time.Second)

	case quitRequestMsg:
		if m.dirty() {
			d := ui.NewConfirmDialog("Quit steamnotes?", "This note has unsaved changes. Quit and discard them?")
			d.ConfirmLabel = " Quit "
			d.BorderColor = styles.Error
			m.askConfirm(d, quitConfirmedMsg{})
			return m, nil
		}
		return m, m.quit()

	case quitConfirmedMsg:
		return m, m.quit()

	case toggleFooterMsg:
		m.showFooter = !m.showFooter
		if s, ok := m.active.(plugin.Sizer); ok {
			s.SetSize(m.contentSize())
		}
		return m, nil

	case toggleHelpMsg:
		m.showHelp = !m.showHelp
		return m, nil

	case config.ReloadedMsg:
		m.applyConfig(message.Config)
		m.logger.Info("config reloaded")
		return m, msg.ShowToast("Config reloaded", 2*time.Second)

	case config.ReloadFailedMsg:
		m.logger.Warn("config reload failed", "error", message.Err)
		return m, msg.ShowErrorToast("Config error: "+message.Err.Error(), 4*time.Second)
	}

	// Forward other messages to all plugins; each drops results that are
	// not its own or are stale
	var cmds []tea.Cmd
	for _, p := range m.registry.Plugins() {
		np, cmd := p.Update(message)
		if np != p {
			m.registry.Replace(np)
			if p == m.active {
				m.active = np
			}
		}
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, tea.Batch(cmds...)
}

// handleKeyMsg routes a key: open dialogs first, then the keymap for the
// mounted screen's context, then the screen itself.
func (m Model) handleKeyMsg(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirm != nil {
		switch m.confirm.HandleKey(k) {
		case ui.ActionConfirm:
			next := m.onConfirm
			m.confirm, m.onConfirm = nil, nil
			return m, func() tea.Msg { return next }
		case ui.ActionCancel:
			m.confirm, m.onConfirm = nil, nil
		}
		return m, nil
	}

	if m.showHelp {
		switch k.String() {
		case "esc", "q", "f1", "?":
			m.showHelp = false
			return m, nil
		}
		if k.String() != "ctrl+c" {
			return m, nil
		}
	}

	if cmd, ok := m.keymap.Handle(k, m.focusContext()); ok {
		return m, cmd
	}

	if m.active == nil {
		return m, nil
	}
	np, cmd := m.active.Update(k)
	if np != m.active {
		m.registry.Replace(np)
		m.active = np
	}
	return m, cmd
}
