package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"github.com/steamednotes/steamnotes/internal/keymap"
	"github.com/steamednotes/steamnotes/internal/styles"
	"github.com/steamednotes/steamnotes/internal/ui"
)

const (
	headerHeight = 1
	footerHeight = 1
	minWidth     = 40
	minHeight    = 10

	hintSeparator = "  "
)

// View renders the entire application UI.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	// Show warning if terminal is too small
	if m.width < minWidth || m.height < minHeight {
		text := fmt.Sprintf("Terminal too small (%dx%d)\nMinimum: %dx%d",
			m.width, m.height, minWidth, minHeight)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			styles.ErrorText.Render(text))
	}

	w, h := m.contentSize()

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderContent(w, h))
	if m.showFooter {
		b.WriteString("\n")
		b.WriteString(m.renderFooter())
	}

	bg := b.String()
	switch {
	case m.confirm != nil:
		return ui.Overlay(bg, m.confirm.View(), m.width, m.height)
	case m.showHelp:
		return ui.Overlay(bg, m.renderHelp(), m.width, m.height)
	}
	return bg
}

func (m Model) renderHeader() string {
	title := styles.Logo.Render("SteamedNotes")
	if m.route.Path != "" {
		title += styles.Muted.Render("  " + m.route.Path)
	}

	var who string
	switch {
	case !m.auth.Checked:
		who = styles.Muted.Render("checking session")
	case m.auth.SignedIn && m.auth.Email != "":
		who = styles.Subtle.Render(m.auth.Email)
	case m.auth.SignedIn:
		who = styles.Subtle.Render("signed in")
	default:
		who = styles.Muted.Render("signed out")
	}

	inner := m.width - styles.Header.GetHorizontalFrameSize()
	spacing := max(inner-lipgloss.Width(title)-lipgloss.Width(who), 1)
	line := ansi.Truncate(title+strings.Repeat(" ", spacing)+who, inner, "…")
	return styles.Header.Width(m.width).MaxWidth(m.width).Render(line)
}

func (m Model) renderContent(width, height int) string {
	if height == 0 {
		return ""
	}
	if !m.auth.Checked {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			styles.Muted.Render("Checking session..."))
	}
	if m.active == nil {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			styles.Muted.Render("Nothing to show"))
	}
	// MaxHeight truncates screens that overflow so the header stays put
	return lipgloss.NewStyle().Width(width).Height(height).MaxHeight(height).
		Render(m.active.View(width, height))
}

// renderFooter renders the bottom bar with key hints and the toast.
func (m Model) renderFooter() string {
	var status string
	if m.statusMsg != "" {
		style := styles.ToastSuccess
		if m.statusIsError {
			style = styles.ToastError
		}
		status = style.Render(ansi.Truncate(m.statusMsg, max(m.width/2, 10), "…"))
	}

	hints := m.footerHints()
	avail := m.width - lipgloss.Width(status) - 2
	line := renderHints(fitHints(hints, avail))

	spacing := max(m.width-lipgloss.Width(line)-lipgloss.Width(status), 0)
	footer := line + strings.Repeat(" ", spacing) + status
	return styles.Footer.Width(m.width).MaxWidth(m.width).Render(footer)
}

// footerHints lists the mounted screen's commands before the global ones.
func (m Model) footerHints() []keymap.Hint {
	var hints []keymap.Hint
	if ctx := m.focusContext(); ctx != keymap.ContextGlobal {
		hints = m.keymap.Hints(ctx)
	}
	return append(hints, m.keymap.Hints(keymap.ContextGlobal)...)
}

// hintWidth is the cell width of one rendered hint: the key padded by one
// cell each side, a space, then the label.
func hintWidth(h keymap.Hint) int {
	return runewidth.StringWidth(h.Key) + 2 + 1 + runewidth.StringWidth(h.Name)
}

// fitHints keeps the leading hints that fit in width cells.
func fitHints(hints []keymap.Hint, width int) []keymap.Hint {
	used := 0
	for i, h := range hints {
		w := hintWidth(h)
		if i > 0 {
			w += runewidth.StringWidth(hintSeparator)
		}
		if used+w > width {
			return hints[:i]
		}
		used += w
	}
	return hints
}

func renderHints(hints []keymap.Hint) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, styles.KeyHint.Render(h.Key)+" "+h.Name)
	}
	return strings.Join(parts, hintSeparator)
}

// renderHelp lists every binding of the mounted screen and the global ones.
func (m Model) renderHelp() string {
	var groups [][]key.Binding
	if ctx := m.focusContext(); ctx != keymap.ContextGlobal {
		groups = append(groups, m.keymap.Bindings(ctx))
	}
	groups = append(groups, m.keymap.Bindings(keymap.ContextGlobal))

	var b strings.Builder
	b.WriteString(styles.ModalTitle.Render("Keys"))
	b.WriteString("\n")
	b.WriteString(m.help.FullHelpView(groups))
	b.WriteString("\n\n")
	b.WriteString(styles.Muted.Render("esc to close"))
	if m.version != "" {
		b.WriteString(styles.Subtle.Render("  steamnotes " + m.version))
	}
	return styles.ModalBox.Render(b.String())
}
