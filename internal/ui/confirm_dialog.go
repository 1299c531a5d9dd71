package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/steamednotes/steamnotes/internal/styles"
)

// Dialog widths.
const (
	ModalWidthSmall  = 40
	ModalWidthMedium = 50
)

// Dialog actions returned by HandleKey.
const (
	ActionConfirm = "confirm"
	ActionCancel  = "cancel"
)

// ConfirmDialog is a yes/no prompt with two buttons.
type ConfirmDialog struct {
	Title        string
	Message      string
	ConfirmLabel string // e.g. " Quit ", " Sign out "
	CancelLabel  string
	BorderColor  lipgloss.Color
	Width        int

	cancelFocused bool
}

// NewConfirmDialog creates a dialog with the confirm button focused.
func NewConfirmDialog(title, message string) *ConfirmDialog {
	return &ConfirmDialog{
		Title:        title,
		Message:      message,
		ConfirmLabel: " Confirm ",
		CancelLabel:  " Cancel ",
		BorderColor:  styles.Primary,
		Width:        ModalWidthMedium,
	}
}

// HandleKey returns ActionConfirm, ActionCancel, or "" when the dialog
// stays open.
func (d *ConfirmDialog) HandleKey(k tea.KeyMsg) string {
	switch k.String() {
	case "y", "Y":
		return ActionConfirm
	case "n", "N", "esc":
		return ActionCancel
	case "tab", "shift+tab", "left", "right", "h", "l":
		d.cancelFocused = !d.cancelFocused
	case "enter":
		if d.cancelFocused {
			return ActionCancel
		}
		return ActionConfirm
	}
	return ""
}

// View renders the dialog box.
func (d *ConfirmDialog) View() string {
	inner := d.Width - styles.ModalBox.GetHorizontalFrameSize()
	if inner < 10 {
		inner = 10
	}

	confirm, cancel := styles.ButtonFocused, styles.Button
	if d.cancelFocused {
		confirm, cancel = styles.Button, styles.ButtonFocused
	}

	var b strings.Builder
	b.WriteString(styles.ModalTitle.Render(d.Title))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Width(inner).Render(d.Message))
	b.WriteString("\n\n")
	b.WriteString(confirm.Render(d.ConfirmLabel) + "  " + cancel.Render(d.CancelLabel))

	return styles.ModalBox.BorderForeground(d.BorderColor).Width(inner).Render(b.String())
}
