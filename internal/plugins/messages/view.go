package messages

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/steamednotes/steamnotes/internal/api"
	"github.com/steamednotes/steamnotes/internal/styles"
)

// View renders the status line, the most recent messages and the input.
func (p *Plugin) View(width, height int) string {
	p.input.Width = max(width-4, 1)

	status := styles.Muted.Render(p.status.String())
	switch p.status {
	case StatusConnected:
		status = styles.Saved.Render("● connected")
	case StatusClosed:
		status = styles.ErrorText.Render("● disconnected")
	}
	if p.lastErr != nil {
		status += styles.Muted.Render("  " + api.UserMessage(p.lastErr))
	}

	// header and its margin, status, input
	rows := max(height-4, 1)
	start := max(len(p.history)-rows, 0)
	lines := make([]string, 0, rows)
	for _, e := range p.history[start:] {
		prefix := "  "
		style := styles.Body
		if e.Outgoing {
			prefix = "› "
			style = styles.Muted
		}
		lines = append(lines, style.Render(ansi.Truncate(prefix+e.Text, width-2, "…")))
	}
	if len(lines) == 0 {
		lines = append(lines, styles.Subtle.Render("No messages yet"))
	}

	var b strings.Builder
	b.WriteString(styles.PanelHeader.Render("Messages"))
	b.WriteString("\n")
	b.WriteString(ansi.Truncate(status, width-2, "…"))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Height(rows).Render(strings.Join(lines, "\n")))
	b.WriteString("\n")
	b.WriteString(p.input.View())

	return lipgloss.NewStyle().Width(width).Height(height).MaxHeight(height).PaddingLeft(1).Render(b.String())
}
