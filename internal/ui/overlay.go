// Package ui holds small view components shared by the app shell.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// DimStyle greys out the screen behind a dialog. Existing colors are
// stripped first; faint does not combine reliably with them.
var DimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))

// blockWidth returns the widest visual line.
func blockWidth(lines []string) int {
	w := 0
	for _, line := range lines {
		if lw := ansi.StringWidth(line); lw > w {
			w = lw
		}
	}
	return w
}

func dim(s string) string {
	return DimStyle.Render(ansi.Strip(s))
}

// spliceRow places fg over bg starting at column x. The background on both
// sides of fg is dimmed.
func spliceRow(bg, fg string, x, fgWidth, total int) string {
	plain := ansi.Strip(bg)
	plainWidth := ansi.StringWidth(plain)

	var b strings.Builder
	if x > 0 {
		left := ansi.Truncate(plain, x, "")
		b.WriteString(DimStyle.Render(left))
		if lw := ansi.StringWidth(left); lw < x {
			b.WriteString(strings.Repeat(" ", x-lw))
		}
	}
	b.WriteString(fg)
	if right := x + fgWidth; right < total && plainWidth > right {
		b.WriteString(DimStyle.Render(ansi.Cut(plain, right, plainWidth)))
	}
	return b.String()
}

// Overlay centers box over a dimmed copy of background. The result is
// exactly height lines.
func Overlay(background, box string, width, height int) string {
	bg := strings.Split(background, "\n")
	fg := strings.Split(box, "\n")

	fgWidth := blockWidth(fg)
	x := max((width-fgWidth)/2, 0)
	y := max((height-len(fg))/2, 0)

	out := make([]string, height)
	for row := 0; row < height; row++ {
		line := ""
		if row < len(bg) {
			line = bg[row]
		}
		if i := row - y; i >= 0 && i < len(fg) {
			out[row] = spliceRow(line, fg[i], x, fgWidth, width)
		} else {
			out[row] = dim(line)
		}
	}
	return strings.Join(out, "\n")
}
