package signin

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/steamednotes/steamnotes/internal/styles"
)

const (
	formWidth = 44
	tagline   = "All your notes in one place"
)

// View renders the centered sign-in form.
func (p *Plugin) View(width, height int) string {
	inner := formWidth - styles.ModalBox.GetHorizontalFrameSize()
	p.email.Width = inner - 2
	p.password.Width = inner - 2

	var b strings.Builder
	b.WriteString(styles.ModalTitle.Render("Sign In"))
	b.WriteString("\n")
	b.WriteString(p.renderField("Email", p.email.View(), p.field == 0, p.errs.Email))
	b.WriteString("\n")
	b.WriteString(p.renderField("Password", p.password.View(), p.field == 1, p.errs.Password))
	b.WriteString("\n")

	switch {
	case p.submitting:
		b.WriteString(p.spinner.View() + " Signing in...")
	case p.submitErr != "":
		b.WriteString(styles.ErrorText.Width(inner).Render(p.submitErr))
	default:
		b.WriteString(styles.Muted.Render("enter to sign in"))
	}

	form := styles.ModalBox.Width(inner).Render(b.String())
	content := lipgloss.JoinVertical(lipgloss.Center, p.tagline.View(), "", form)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func (p *Plugin) renderField(label, input string, focused bool, errText string) string {
	box := styles.InputBlurred
	if focused {
		box = styles.InputFocused
	}
	out := styles.InputLabel.Render(label) + "\n" + box.Render(input)
	if errText != "" {
		out += "\n" + styles.ErrorText.Render(errText)
	}
	return out
}
