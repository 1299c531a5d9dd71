// Package noteeditor is the note editing screen mounted on /note/{id}.
//
// The screen is a thin view over editor.Controller: key presses update the
// title input and body textarea, and their values are pushed into the
// controller. Everything asynchronous flows through the controller.
package noteeditor

import (
	"errors"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/steamednotes/steamnotes/internal/api"
	"github.com/steamednotes/steamnotes/internal/editor"
	"github.com/steamednotes/steamnotes/internal/keymap"
	"github.com/steamednotes/steamnotes/internal/msg"
	"github.com/steamednotes/steamnotes/internal/plugin"
	"github.com/steamednotes/steamnotes/internal/state"
	"github.com/steamednotes/steamnotes/internal/styles"
)

const (
	pluginID   = "note-editor"
	pluginName = "Note"

	toastDuration = 2 * time.Second
)

// field is the focused input.
type field int

const (
	fieldBody field = iota
	fieldTitle
	fieldPanel
)

// Plugin implements the note editor screen.
type Plugin struct {
	ctx     *plugin.Context
	focused bool
	notes   editor.NotesAPI
	router  editor.Router

	// Per-mount state, nil while unmounted
	ctrl *editor.Controller
	sub  *editor.Subscription
	keys []*keymap.Handle

	// View dimensions
	width  int
	height int

	title   textinput.Model
	body    textarea.Model
	spinner spinner.Model
	field   field

	// Folder panel cursor
	panelCursor int

	// Markdown preview
	preview  bool
	renderer *previewRenderer

	// Body rows reported by the last BodyChanged event
	bodyLines int
}

// New creates the note editor backed by the API client from the plugin
// context.
func New() *Plugin {
	return &Plugin{router: msg.Router{}}
}

// NewWithAPI creates the note editor over an explicit notes API.
func NewWithAPI(notes editor.NotesAPI, router editor.Router) *Plugin {
	return &Plugin{notes: notes, router: router}
}

// ID returns the plugin identifier.
func (p *Plugin) ID() string { return pluginID }

// Name returns the plugin display name.
func (p *Plugin) Name() string { return pluginName }

// Init initializes the plugin with context.
func (p *Plugin) Init(ctx *plugin.Context) error {
	p.ctx = ctx
	if p.notes == nil && ctx.API != nil {
		p.notes = ctx.API
	}
	if p.notes == nil {
		return errors.New("note editor: no notes API")
	}
	if p.router == nil {
		p.router = msg.Router{}
	}

	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "Title"
	ti.CharLimit = 0
	ti.TextStyle = styles.Title
	ti.PlaceholderStyle = styles.Muted
	p.title = ti

	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.Prompt = ""
	ta.Placeholder = "Start writing..."
	ta.FocusedStyle = textarea.Style{
		Base:        lipgloss.NewStyle(),
		CursorLine:  lipgloss.NewStyle(),
		EndOfBuffer: styles.Muted,
		Placeholder: styles.Muted,
		Prompt:      lipgloss.NewStyle(),
		Text:        lipgloss.NewStyle(),
	}
	ta.BlurredStyle = ta.FocusedStyle
	p.body = ta

	p.spinner = spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Muted))
	p.renderer = newPreviewRenderer(ctx.Config.Editor.PreviewStyle)
	return nil
}

// Start begins plugin operation. Work starts on Mount.
func (p *Plugin) Start() tea.Cmd { return nil }

// Stop cleans up plugin resources.
func (p *Plugin) Stop() { p.Unmount() }

// Mount opens the note named by the "id" route parameter.
func (p *Plugin) Mount(params plugin.Params) tea.Cmd {
	p.Unmount()

	id := api.ID(params["id"])
	p.ctrl = editor.New(p.notes, p.router, editor.Options{
		Logger:    p.ctx.Logger,
		Timeout:   p.ctx.Config.Server.Timeout,
		PanelOpen: p.panelDefault(),
	})
	p.sub = p.ctrl.Subscribe(p.onEvent)
	p.keys = []*keymap.Handle{
		p.ctx.Keymap.Acquire(keymap.ContextEditor, p.editorCommands()...),
		p.ctx.Keymap.Acquire(keymap.ContextPanel, p.panelCommands()...),
	}

	p.preview = false
	p.panelCursor = 0
	p.bodyLines = 1
	p.title.SetValue("")
	p.body.SetValue("")
	p.focusField(fieldBody)
	return p.busy(p.ctrl.Load(id))
}

// Unmount releases everything Mount acquired. Safe to call when unmounted.
func (p *Plugin) Unmount() {
	for _, h := range p.keys {
		h.Release()
	}
	p.keys = nil
	p.sub.Release()
	p.sub = nil
	if p.ctrl != nil {
		p.ctrl.Close()
		p.ctrl = nil
	}
	p.title.Blur()
	p.body.Blur()
}

// Mounted reports whether a note view is active.
func (p *Plugin) Mounted() bool { return p.ctrl != nil }

// Controller exposes the active controller, nil while unmounted.
func (p *Plugin) Controller() *editor.Controller { return p.ctrl }

// Dirty reports unsaved edits.
func (p *Plugin) Dirty() bool { return p.ctrl != nil && p.ctrl.Dirty() }

// panelDefault resolves the initial folder panel visibility: a saved manual
// toggle wins over the configured mode.
func (p *Plugin) panelDefault() bool {
	if open, ok := state.GetFolderPanelOpen(); ok {
		return open
	}
	return p.ctx.Config.PanelOpenFor(p.width, p.height)
}

func (p *Plugin) onEvent(ev editor.Event) {
	switch ev.Kind {
	case editor.EventLoaded:
		buf := p.ctrl.Buffer()
		p.title.SetValue(buf.Title)
		p.body.SetValue(buf.Body)
		p.body.CursorStart()
		// Only notes that actually opened are reopened at startup
		_ = state.SetLastNoteID(p.ctrl.NoteID().String())
	case editor.EventBodyChanged:
		p.bodyLines = ev.Lines
		p.layout()
	}
}

// busy pairs an async command with a spinner tick.
func (p *Plugin) busy(cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	return tea.Batch(cmd, p.spinner.Tick)
}

func (p *Plugin) isBusy() bool {
	if p.ctrl == nil {
		return false
	}
	return p.ctrl.Phase() == editor.PhaseLoading || p.ctrl.Saving() || p.ctrl.SiblingsLoading()
}

// Update handles messages.
func (p *Plugin) Update(m tea.Msg) (plugin.Plugin, tea.Cmd) {
	switch m := m.(type) {
	case editor.NoteLoadedMsg, editor.NoteSavedMsg, editor.SiblingsLoadedMsg:
		return p, p.applyResult(m)

	case spinner.TickMsg:
		if !p.isBusy() {
			return p, nil
		}
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(m)
		return p, cmd

	case tea.KeyMsg:
		return p, p.handleKey(m)
	}
	return p, nil
}

// applyResult feeds an async result to the controller and turns the outcome
// into toasts and session handling.
func (p *Plugin) applyResult(m tea.Msg) tea.Cmd {
	if p.ctrl == nil {
		return nil
	}
	wasSaving := p.ctrl.Saving()
	cmd, _ := p.ctrl.Update(m)
	cmds := []tea.Cmd{p.busy(cmd)}

	switch m := m.(type) {
	case editor.NoteLoadedMsg:
		if p.ctrl.Phase() == editor.PhaseLoadError && errors.Is(p.ctrl.LoadErr(), api.ErrUnauthorized) {
			cmds = append(cmds, sessionExpired)
		}
	case editor.NoteSavedMsg:
		if !wasSaving || p.ctrl.Saving() {
			break // stale
		}
		if m.Err != nil {
			if errors.Is(m.Err, api.ErrUnauthorized) {
				cmds = append(cmds, sessionExpired)
			}
			cmds = append(cmds, msg.ShowErrorToast(saveFailedText(m.Err), 3*time.Second))
		} else {
			cmds = append(cmds, msg.ShowToast("Saved", toastDuration))
		}
	case editor.SiblingsLoadedMsg:
		p.syncPanelCursor()
	}
	return tea.Batch(cmds...)
}

func sessionExpired() tea.Msg { return msg.SessionExpiredMsg{} }

func saveFailedText(err error) string {
	text := "Save failed: " + api.UserMessage(err)
	var se *api.StatusError
	if errors.As(err, &se) && se.Retryable() {
		text += ", try again"
	}
	return text
}

// handleKey receives keys the keymap did not consume.
func (p *Plugin) handleKey(k tea.KeyMsg) tea.Cmd {
	if p.ctrl == nil {
		return nil
	}
	if p.preview {
		if k.Type == tea.KeyEsc {
			p.preview = false
		}
		return nil
	}
	if !p.editable() {
		return nil
	}

	var cmd tea.Cmd
	switch p.field {
	case fieldTitle:
		if k.Type == tea.KeyEnter || k.Type == tea.KeyDown {
			p.focusField(fieldBody)
			return nil
		}
		p.title, cmd = p.title.Update(k)
		p.ctrl.SetTitle(p.title.Value())
	case fieldBody:
		p.body, cmd = p.body.Update(k)
		p.ctrl.SetBody(p.body.Value())
	}
	return cmd
}

func (p *Plugin) editable() bool {
	switch p.ctrl.Phase() {
	case editor.PhaseReady, editor.PhaseSaving, editor.PhaseSaveError:
		return true
	}
	return false
}

func (p *Plugin) focusField(f field) {
	p.field = f
	p.title.Blur()
	p.body.Blur()
	switch f {
	case fieldTitle:
		p.title.Focus()
	case fieldBody:
		p.body.Focus()
	}
}

// editorCommands are acquired for the editor context on mount.
func (p *Plugin) editorCommands() []keymap.Command {
	return append(p.sharedCommands(),
		keymap.Command{ID: "toggle-preview", Name: "Preview", Handler: p.togglePreview},
		keymap.Command{ID: "yank-body", Name: "Copy", Handler: p.yankBody},
		keymap.Command{ID: "reload", Handler: p.reload},
	)
}

// panelCommands are acquired for the folder panel context on mount.
func (p *Plugin) panelCommands() []keymap.Command {
	return append(p.sharedCommands(),
		keymap.Command{ID: "cursor-down", Handler: func() tea.Cmd { p.movePanelCursor(1); return nil }},
		keymap.Command{ID: "cursor-up", Handler: func() tea.Cmd { p.movePanelCursor(-1); return nil }},
		keymap.Command{ID: "open-note", Name: "Open", Handler: p.openSelected},
		keymap.Command{ID: "refresh-folder", Name: "Refresh", Handler: p.refreshFolder},
	)
}

func (p *Plugin) sharedCommands() []keymap.Command {
	return []keymap.Command{
		{ID: "save", Name: "Save", Handler: p.save},
		{ID: "next-note", Name: "Next", Handler: func() tea.Cmd { return p.navigate(editor.Next) }},
		{ID: "prev-note", Name: "Prev", Handler: func() tea.Cmd { return p.navigate(editor.Previous) }},
		{ID: "toggle-folder", Name: "Folder", Handler: p.toggleFolder},
		{ID: "switch-field", Handler: p.switchField},
	}
}

func (p *Plugin) save() tea.Cmd {
	if p.ctrl == nil {
		return nil
	}
	return p.busy(p.ctrl.Save())
}

func (p *Plugin) navigate(dir editor.Direction) tea.Cmd {
	if p.ctrl == nil {
		return nil
	}
	return p.ctrl.NavigateSibling(dir)
}

func (p *Plugin) toggleFolder() tea.Cmd {
	if p.ctrl == nil {
		return nil
	}
	cmd := p.ctrl.ToggleFolderPanel()
	_ = state.SetFolderPanelOpen(p.ctrl.PanelOpen())
	if !p.ctrl.PanelOpen() && p.field == fieldPanel {
		p.focusField(fieldBody)
	}
	p.syncPanelCursor()
	p.layout()
	return p.busy(cmd)
}

// switchField cycles body, title and, when open, the folder panel.
func (p *Plugin) switchField() tea.Cmd {
	if p.ctrl == nil {
		return nil
	}
	next := fieldBody
	switch p.field {
	case fieldBody:
		next = fieldTitle
	case fieldTitle:
		if p.ctrl.PanelOpen() {
			next = fieldPanel
		}
	}
	p.focusField(next)
	return nil
}

func (p *Plugin) togglePreview() tea.Cmd {
	if p.ctrl == nil || p.ctrl.Note() == nil {
		return nil
	}
	p.preview = !p.preview
	return nil
}

func (p *Plugin) yankBody() tea.Cmd {
	if p.ctrl == nil {
		return nil
	}
	body := p.ctrl.Buffer().Body
	if body == "" {
		return msg.ShowToast("No content to copy", toastDuration)
	}
	if err := clipboard.WriteAll(body); err != nil {
		return msg.ShowErrorToast("Copy failed: "+err.Error(), toastDuration)
	}
	return msg.ShowToast("Copied to clipboard", toastDuration)
}

// reload re-fetches the note, refusing while edits are unsaved.
func (p *Plugin) reload() tea.Cmd {
	if p.ctrl == nil {
		return nil
	}
	if p.ctrl.Dirty() {
		return msg.ShowErrorToast("Unsaved changes, save first", toastDuration)
	}
	return p.busy(p.ctrl.Load(p.ctrl.NoteID()))
}

func (p *Plugin) refreshFolder() tea.Cmd {
	if p.ctrl == nil || p.ctrl.Note() == nil {
		return nil
	}
	return p.busy(p.ctrl.RefreshSiblings(p.ctrl.Note().FolderID))
}

func (p *Plugin) movePanelCursor(delta int) {
	if p.ctrl == nil {
		return
	}
	n := len(p.ctrl.Siblings())
	if n == 0 {
		p.panelCursor = 0
		return
	}
	p.panelCursor = (p.panelCursor + delta + n) % n
}

func (p *Plugin) openSelected() tea.Cmd {
	if p.ctrl == nil {
		return nil
	}
	sibs := p.ctrl.Siblings()
	if p.panelCursor < 0 || p.panelCursor >= len(sibs) {
		return nil
	}
	return p.ctrl.OpenSibling(sibs[p.panelCursor].ID)
}

// syncPanelCursor puts the panel cursor on the current note.
func (p *Plugin) syncPanelCursor() {
	if p.ctrl == nil {
		return
	}
	for i, s := range p.ctrl.Siblings() {
		if s.ID == p.ctrl.NoteID() {
			p.panelCursor = i
			return
		}
	}
	p.panelCursor = 0
}

// IsFocused returns whether the plugin is focused.
func (p *Plugin) IsFocused() bool { return p.focused }

// SetFocused sets the focus state.
func (p *Plugin) SetFocused(f bool) { p.focused = f }

// FocusContext returns the current focus context.
func (p *Plugin) FocusContext() string {
	if p.field == fieldPanel {
		return keymap.ContextPanel
	}
	return keymap.ContextEditor
}

// ConsumesTextInput reports whether printable keys go to an input.
func (p *Plugin) ConsumesTextInput() bool {
	return p.ctrl != nil && p.field != fieldPanel && !p.preview && p.editable()
}
