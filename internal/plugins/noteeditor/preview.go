package noteeditor

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// previewRenderer renders note bodies as markdown, caching the last result
// since View runs on every message.
type previewRenderer struct {
	style string

	width    int
	renderer *glamour.TermRenderer

	lastBody string
	lastOut  string
}

func newPreviewRenderer(style string) *previewRenderer {
	if style == "" {
		style = "dark"
	}
	return &previewRenderer{style: style}
}

// Render returns body as styled markdown wrapped at width. A body that
// fails to render is shown as plain text.
func (r *previewRenderer) Render(body string, width int) string {
	if width < 10 {
		width = 10
	}
	if r.renderer == nil || r.width != width {
		tr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return body
		}
		r.renderer = tr
		r.width = width
		r.lastOut = ""
	}
	if r.lastOut != "" && body == r.lastBody {
		return r.lastOut
	}

	out, err := r.renderer.Render(body)
	if err != nil {
		return body
	}
	out = strings.Trim(out, "\n")
	r.lastBody = body
	r.lastOut = out
	return out
}
