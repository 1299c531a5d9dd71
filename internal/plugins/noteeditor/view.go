package noteeditor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/steamednotes/steamnotes/internal/api"
	"github.com/steamednotes/steamnotes/internal/editor"
	"github.com/steamednotes/steamnotes/internal/styles"
)

const (
	minPanelWidth = 20
	maxPanelWidth = 36

	// breadcrumbs + title + blank + status
	chromeRows = 4
)

// SetSize records the screen size and re-fits the inputs.
func (p *Plugin) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.layout()
}

// panelWidth is the folder panel's outer width, 0 when hidden.
func (p *Plugin) panelWidth() int {
	if p.ctrl == nil || !p.ctrl.PanelOpen() {
		return 0
	}
	w := p.width / 4
	if w < minPanelWidth {
		w = minPanelWidth
	}
	if w > maxPanelWidth {
		w = maxPanelWidth
	}
	if w > p.width/2 {
		w = p.width / 2
	}
	return w
}

// layout sizes the title input and auto-fits the body textarea.
func (p *Plugin) layout() {
	if p.width == 0 || p.height == 0 {
		return
	}
	w := p.width - p.panelWidth() - 2
	if w < 1 {
		w = 1
	}
	p.title.Width = w
	p.body.SetWidth(w)

	padding := 0
	if p.ctx != nil && p.ctx.Config != nil {
		padding = p.ctx.Config.Editor.FitPadding
	}
	p.body.SetHeight(fitHeight(p.bodyLines, padding, p.height-chromeRows))
}

// fitHeight grows the body with its content: one row per line plus padding,
// at least one row and never more than available.
func fitHeight(lines, padding, available int) int {
	h := lines + padding
	if h > available {
		h = available
	}
	if h < 1 {
		h = 1
	}
	return h
}

// View renders the plugin.
func (p *Plugin) View(width, height int) string {
	if width != p.width || height != p.height {
		p.SetSize(width, height)
	}
	if p.ctrl == nil {
		return ""
	}

	main := p.renderMain(width - p.panelWidth())
	if pw := p.panelWidth(); pw > 0 {
		main = lipgloss.JoinHorizontal(lipgloss.Top, p.renderPanel(pw, height), main)
	}

	var b strings.Builder
	if p.ctx == nil || p.ctx.Config == nil || p.ctx.Config.UI.ShowBreadcrumbs {
		b.WriteString(p.renderBreadcrumbs(width))
		b.WriteString("\n")
	}
	b.WriteString(main)

	// Constrain output to allocated height
	return lipgloss.NewStyle().Width(width).Height(height).MaxHeight(height).Render(b.String())
}

func (p *Plugin) renderMain(width int) string {
	style := lipgloss.NewStyle().Width(width).PaddingLeft(1)

	switch p.ctrl.Phase() {
	case editor.PhaseIdle, editor.PhaseLoading:
		return style.Render(p.spinner.View() + " Loading note...")
	case editor.PhaseLoadError:
		return style.Render(styles.ErrorText.Render(loadErrorText(p.ctrl.LoadErr())))
	}

	var b strings.Builder
	b.WriteString(p.title.View())
	b.WriteString("\n\n")
	if p.preview {
		b.WriteString(p.renderer.Render(p.ctrl.Buffer().Body, width-2))
	} else {
		b.WriteString(p.body.View())
	}
	b.WriteString("\n")
	b.WriteString(p.renderStatus(width - 2))
	return style.Render(b.String())
}

func loadErrorText(err error) string {
	if errors.Is(err, editor.ErrNoNote) {
		return "No note selected."
	}
	return "Error: " + api.UserMessage(err)
}

// renderStatus is the line under the body: save state, or the save error.
func (p *Plugin) renderStatus(width int) string {
	var s string
	switch {
	case p.ctrl.Saving():
		s = p.spinner.View() + " Saving..."
	case p.ctrl.Phase() == editor.PhaseSaveError:
		s = styles.ErrorText.Render("Save failed: " + api.UserMessage(p.ctrl.SaveErr()))
		if p.ctrl.Dirty() {
			s += "  " + styles.Dirty.Render("unsaved")
		}
	case p.ctrl.Dirty():
		s = styles.Dirty.Render("● unsaved")
	default:
		s = styles.Saved.Render("saved")
	}
	if p.preview {
		s += styles.Muted.Render("  preview (esc to edit)")
	}
	return ansi.Truncate(s, width, "…")
}

// crumbs lists the breadcrumb segments for a note: root, room, folder, and
// the working title.
func crumbs(note *api.Note, title string) []string {
	parts := []string{"root"}
	if note == nil {
		return parts
	}
	if note.RoomName != "" {
		parts = append(parts, note.RoomName)
	}
	if note.FolderName != "" {
		parts = append(parts, note.FolderName)
	}
	if title == "" {
		title = "Untitled"
	}
	return append(parts, title)
}

func (p *Plugin) renderBreadcrumbs(width int) string {
	parts := crumbs(p.ctrl.Note(), p.ctrl.Buffer().Title)
	sep := styles.CrumbSeparator.Render(" / ")
	rendered := make([]string, len(parts))
	for i, part := range parts {
		if i == len(parts)-1 {
			rendered[i] = styles.CrumbCurrent.Render(part)
		} else {
			rendered[i] = styles.Crumb.Render(part)
		}
	}
	line := " " + strings.Join(rendered, sep)
	if p.ctrl.Dirty() {
		line += styles.Dirty.Render(" *")
	}
	return ansi.Truncate(line, width, "…")
}

// renderPanel draws the folder listing with the current note highlighted.
func (p *Plugin) renderPanel(width, height int) string {
	style := styles.PanelInactive
	if p.field == fieldPanel {
		style = styles.PanelActive
	}
	inner := width - style.GetHorizontalFrameSize()
	if inner < 1 {
		inner = 1
	}

	header := "Folder"
	if n := p.ctrl.Note(); n != nil && n.FolderName != "" {
		header = n.FolderName
	}

	var b strings.Builder
	b.WriteString(styles.PanelHeader.Render(ansi.Truncate(header, inner, "…")))
	b.WriteString("\n")

	sibs := p.ctrl.Siblings()
	switch {
	case p.ctrl.SiblingErr() != nil:
		b.WriteString(styles.ErrorText.Render(ansi.Truncate(api.UserMessage(p.ctrl.SiblingErr()), inner, "…")))
	case p.ctrl.SiblingsLoading() && len(sibs) == 0:
		b.WriteString(p.spinner.View() + " Loading...")
	case p.ctrl.SiblingsLoaded() && len(sibs) == 0:
		b.WriteString(styles.Muted.Render("No notes available"))
	default:
		b.WriteString(p.renderSiblings(sibs, inner, height-style.GetVerticalFrameSize()-2))
	}

	return style.Width(inner).Height(height - style.GetVerticalFrameSize()).Render(b.String())
}

func (p *Plugin) renderSiblings(sibs []editor.Sibling, width, rows int) string {
	if rows < 1 {
		rows = 1
	}
	// Keep the cursor visible
	start := 0
	if p.panelCursor >= rows {
		start = p.panelCursor - rows + 1
	}
	end := start + rows
	if end > len(sibs) {
		end = len(sibs)
	}

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		s := sibs[i]
		title := s.Title
		if title == "" {
			title = fmt.Sprintf("#%s", s.ID)
		}
		marker := "  "
		if p.field == fieldPanel && i == p.panelCursor {
			marker = "> "
		}
		line := ansi.Truncate(marker+title, width, "…")
		switch {
		case s.ID == p.ctrl.NoteID():
			line = styles.ListItemCurrent.Render(line)
		case p.field == fieldPanel && i == p.panelCursor:
			line = styles.ListItemSelected.Render(line)
		default:
			line = styles.ListItemNormal.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
