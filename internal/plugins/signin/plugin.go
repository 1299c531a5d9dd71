// Package signin is the sign-in screen mounted on /signin.
package signin

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/steamednotes/steamnotes/internal/api"
	"github.com/steamednotes/steamnotes/internal/keymap"
	"github.com/steamednotes/steamnotes/internal/msg"
	"github.com/steamednotes/steamnotes/internal/plugin"
	"github.com/steamednotes/steamnotes/internal/state"
	"github.com/steamednotes/steamnotes/internal/styles"
)

const (
	pluginID   = "signin"
	pluginName = "Sign in"

	minPasswordLen = 6
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// Authenticator performs the sign-in request.
type Authenticator interface {
	SignIn(ctx context.Context, creds api.Credentials) error
}

// FieldErrors holds per-field validation messages. Empty means valid.
type FieldErrors struct {
	Email    string
	Password string
}

// Empty reports whether no field failed.
func (e FieldErrors) Empty() bool { return e.Email == "" && e.Password == "" }

// Validate checks the form the way the server expects it.
func Validate(email, password string) FieldErrors {
	var fe FieldErrors
	switch {
	case strings.TrimSpace(email) == "":
		fe.Email = "Email is required"
	case !emailPattern.MatchString(email):
		fe.Email = "Email is invalid"
	}
	switch {
	case password == "":
		fe.Password = "Password is required"
	case len(password) < minPasswordLen:
		fe.Password = "Password must be at least 6 characters"
	}
	return fe
}

// resultMsg carries the outcome of a sign-in attempt.
type resultMsg struct {
	Attempt uint64
	Epoch   uint64
	Email   string
	Err     error
}

// GetEpoch implements plugin.EpochMessage.
func (m resultMsg) GetEpoch() uint64 { return m.Epoch }

// Plugin implements the sign-in screen.
type Plugin struct {
	ctx     *plugin.Context
	focused bool
	auth    Authenticator

	keys *keymap.Handle

	email    textinput.Model
	password textinput.Model
	spinner  spinner.Model
	field    int // 0 email, 1 password

	tagline typewriter

	errs       FieldErrors
	submitErr  string
	submitting bool
	attempt    uint64

	width  int
	height int
}

// New creates the sign-in screen backed by the API client from the plugin
// context.
func New() *Plugin { return &Plugin{} }

// NewWithAuth creates the sign-in screen over an explicit authenticator.
func NewWithAuth(auth Authenticator) *Plugin { return &Plugin{auth: auth} }

// ID returns the plugin identifier.
func (p *Plugin) ID() string { return pluginID }

// Name returns the plugin display name.
func (p *Plugin) Name() string { return pluginName }

// Init initializes the plugin with context.
func (p *Plugin) Init(ctx *plugin.Context) error {
	p.ctx = ctx
	if p.auth == nil && ctx.API != nil {
		p.auth = ctx.API
	}
	if p.auth == nil {
		return errors.New("signin: no API client")
	}

	p.email = textinput.New()
	p.email.Placeholder = "Enter your email"
	p.email.Prompt = ""
	p.email.PlaceholderStyle = styles.Muted

	p.password = textinput.New()
	p.password.Placeholder = "Enter your password"
	p.password.Prompt = ""
	p.password.EchoMode = textinput.EchoPassword
	p.password.EchoCharacter = '•'
	p.password.PlaceholderStyle = styles.Muted

	p.spinner = spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Muted))
	p.tagline = newTypewriter(tagline, 80*time.Millisecond)
	return nil
}

// Start begins plugin operation.
func (p *Plugin) Start() tea.Cmd { return nil }

// Stop cleans up plugin resources.
func (p *Plugin) Stop() { p.Unmount() }

// Mount resets the form, prefilling the last email used.
func (p *Plugin) Mount(plugin.Params) tea.Cmd {
	p.Unmount()
	p.keys = p.ctx.Keymap.Acquire(keymap.ContextSignIn,
		keymap.Command{ID: "next-field", Name: "Next", Handler: func() tea.Cmd { return p.cycle(1) }},
		keymap.Command{ID: "prev-field", Handler: func() tea.Cmd { return p.cycle(-1) }},
		keymap.Command{ID: "submit", Name: "Sign in", Handler: p.submit},
	)

	p.errs = FieldErrors{}
	p.submitErr = ""
	p.submitting = false
	p.email.SetValue(state.GetLastEmail())
	p.password.SetValue("")
	field := 0
	if p.email.Value() != "" {
		field = 1
	}
	return tea.Batch(p.focus(field), p.tagline.Start())
}

// Unmount releases the keymap and drops any in-flight attempt.
func (p *Plugin) Unmount() {
	p.keys.Release()
	p.keys = nil
	p.attempt++
	p.submitting = false
	p.tagline.Stop()
	p.email.Blur()
	p.password.Blur()
}

// Submitting reports whether a sign-in request is in flight.
func (p *Plugin) Submitting() bool { return p.submitting }

// Errors returns the current validation messages.
func (p *Plugin) Errors() FieldErrors { return p.errs }

func (p *Plugin) focus(f int) tea.Cmd {
	p.field = f
	if f == 0 {
		p.password.Blur()
		return p.email.Focus()
	}
	p.email.Blur()
	return p.password.Focus()
}

func (p *Plugin) cycle(delta int) tea.Cmd {
	return p.focus((p.field + delta + 2) % 2)
}

// submit validates the form and posts the credentials.
func (p *Plugin) submit() tea.Cmd {
	if p.submitting {
		return nil
	}
	email := strings.TrimSpace(p.email.Value())
	password := p.password.Value()

	p.errs = Validate(email, password)
	p.submitErr = ""
	if !p.errs.Empty() {
		if p.errs.Email != "" {
			return p.focus(0)
		}
		return p.focus(1)
	}

	p.submitting = true
	p.attempt++
	attempt, epoch := p.attempt, p.ctx.Epoch
	auth, timeout := p.auth, p.ctx.Config.Server.Timeout
	creds := api.Credentials{Email: email, Password: password}

	return tea.Batch(p.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := auth.SignIn(ctx, creds)
		return resultMsg{Attempt: attempt, Epoch: epoch, Email: creds.Email, Err: err}
	})
}

// Update handles messages.
func (p *Plugin) Update(m tea.Msg) (plugin.Plugin, tea.Cmd) {
	switch m := m.(type) {
	case resultMsg:
		if plugin.IsStale(p.ctx, m) || m.Attempt != p.attempt {
			return p, nil
		}
		p.submitting = false
		if m.Err != nil {
			p.submitErr = "Sign-in failed: " + signInMessage(m.Err)
			p.ctx.Logger.Info("sign-in failed", "email", m.Email, "error", m.Err)
			return p, nil
		}
		p.password.SetValue("")
		_ = state.SetLastEmail(m.Email)
		email := m.Email
		return p, func() tea.Msg { return msg.SignedInMsg{Email: email} }

	case typewriterTickMsg:
		return p, p.tagline.Update(m)

	case spinner.TickMsg:
		if !p.submitting {
			return p, nil
		}
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(m)
		return p, cmd

	case tea.KeyMsg:
		if p.submitting {
			return p, nil
		}
		var cmd tea.Cmd
		if p.field == 0 {
			p.email, cmd = p.email.Update(m)
			p.errs.Email = ""
		} else {
			p.password, cmd = p.password.Update(m)
			p.errs.Password = ""
		}
		return p, cmd
	}
	return p, nil
}

// signInMessage prefers the server's own text for rejected credentials.
func signInMessage(err error) string {
	var se *api.StatusError
	if !errors.As(err, &se) {
		return err.Error()
	}
	if se.Code == http.StatusUnauthorized {
		return "invalid email or password"
	}
	if se.Body != "" {
		return strings.TrimSpace(se.Body)
	}
	return api.UserMessage(err)
}

// SetSize records the screen size.
func (p *Plugin) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// IsFocused returns whether the plugin is focused.
func (p *Plugin) IsFocused() bool { return p.focused }

// SetFocused sets the focus state.
func (p *Plugin) SetFocused(f bool) { p.focused = f }

// FocusContext returns the current focus context.
func (p *Plugin) FocusContext() string { return keymap.ContextSignIn }

// ConsumesTextInput reports that printable keys go to the form.
func (p *Plugin) ConsumesTextInput() bool { return true }
