package editor

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/steamednotes/steamnotes/internal/api"
)

// Options configures a Controller.
type Options struct {
	Logger    *slog.Logger
	Timeout   time.Duration // per request, 0 = api.DefaultTimeout
	PanelOpen bool          // initial folder panel visibility
}

// Controller mediates between the editor view and the notes API.
type Controller struct {
	api     NotesAPI
	router  Router
	logger  *slog.Logger
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	closed bool

	phase     Phase
	epoch     uint64
	noteID    api.ID
	note      *api.Note
	buffer    Buffer
	lastSaved Buffer
	loadErr   error
	saveErr   error

	// Folder panel and sibling index
	panelOpen       bool
	siblings        []Sibling
	siblingsLoaded  bool
	siblingsLoading bool
	siblingErr      error
	siblingEpoch    uint64

	subs    map[int]func(Event)
	nextSub int
}

// New creates a controller in PhaseIdle.
func New(notes NotesAPI, router Router, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = api.DefaultTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		api:       notes,
		router:    router,
		logger:    logger,
		timeout:   timeout,
		ctx:       ctx,
		cancel:    cancel,
		panelOpen: opts.PanelOpen,
		subs:      make(map[int]func(Event)),
	}
}

// Phase returns the current lifecycle state.
func (c *Controller) Phase() Phase { return c.phase }

// NoteID returns the identifier of the note being shown or loaded.
func (c *Controller) NoteID() api.ID { return c.noteID }

// Note returns the metadata of the loaded note, or nil.
func (c *Controller) Note() *api.Note { return c.note }

// Buffer returns the working copy.
func (c *Controller) Buffer() Buffer { return c.buffer }

// LastSaved returns the last persisted snapshot.
func (c *Controller) LastSaved() Buffer { return c.lastSaved }

// Dirty reports whether the buffer differs from the last-saved snapshot.
func (c *Controller) Dirty() bool {
	return c.buffer.Title != c.lastSaved.Title || c.buffer.Body != c.lastSaved.Body
}

// CanSave reports whether Save would issue a request.
func (c *Controller) CanSave() bool {
	if c.closed || !c.Dirty() {
		return false
	}
	return c.phase == PhaseReady || c.phase == PhaseSaveError
}

// Saving reports whether a save is in flight.
func (c *Controller) Saving() bool { return c.phase == PhaseSaving }

// LoadErr returns the error of the last failed load.
func (c *Controller) LoadErr() error { return c.loadErr }

// SaveErr returns the error of the last failed save.
func (c *Controller) SaveErr() error { return c.saveErr }

// Closed reports whether the controller has been torn down.
func (c *Controller) Closed() bool { return c.closed }

// Close tears the controller down. Results arriving afterwards are ignored.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	c.subs = make(map[int]func(Event))
}

// Load starts fetching a note. The previous buffer stays hidden until the
// result arrives; any result from an earlier Load is discarded.
func (c *Controller) Load(id api.ID) tea.Cmd {
	if c.closed {
		return nil
	}
	c.epoch = nextGeneration()
	c.noteID = id
	c.saveErr = nil

	if id == "" {
		c.failLoad(ErrNoNote)
		return nil
	}

	c.phase = PhaseLoading
	c.loadErr = nil
	epoch := c.epoch
	ctx, timeout := c.ctx, c.timeout
	notes := c.api

	return func() tea.Msg {
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		note, err := notes.GetNote(reqCtx, id)
		return NoteLoadedMsg{ID: id, Note: note, Err: err, Epoch: epoch}
	}
}

// failLoad clears the buffer to an empty note rather than leaving it stale.
func (c *Controller) failLoad(err error) {
	c.phase = PhaseLoadError
	c.loadErr = err
	c.note = nil
	c.buffer = Buffer{}
	c.lastSaved = Buffer{}
	c.publish(EventBodyChanged)
}

// SetTitle replaces the working title.
func (c *Controller) SetTitle(text string) {
	if c.closed || !c.phase.editable() {
		return
	}
	c.buffer.Title = text
}

// SetBody replaces the working body and notifies subscribers.
func (c *Controller) SetBody(text string) {
	if c.closed || !c.phase.editable() {
		return
	}
	if c.buffer.Body == text {
		return
	}
	c.buffer.Body = text
	c.publish(EventBodyChanged)
}

// Save persists the buffer. It returns nil when there is nothing to save or
// a save is already in flight; a dropped call is not queued.
func (c *Controller) Save() tea.Cmd {
	if !c.CanSave() {
		return nil
	}
	c.phase = PhaseSaving
	c.saveErr = nil

	sent := c.buffer
	id := c.noteID
	epoch := c.epoch
	ctx, timeout := c.ctx, c.timeout
	notes := c.api

	return func() tea.Msg {
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		err := notes.UpdateNote(reqCtx, api.NoteUpdate{ID: id, Content: sent.Body, Title: sent.Title})
		return NoteSavedMsg{ID: id, Sent: sent, Err: err, Epoch: epoch}
	}
}

// Update applies a result message. handled is false for messages the
// controller does not own.
func (c *Controller) Update(msg tea.Msg) (cmd tea.Cmd, handled bool) {
	switch msg := msg.(type) {
	case NoteLoadedMsg:
		return c.applyLoaded(msg), true
	case NoteSavedMsg:
		c.applySaved(msg)
		return nil, true
	case SiblingsLoadedMsg:
		c.applySiblings(msg)
		return nil, true
	}
	return nil, false
}

func (c *Controller) applyLoaded(msg NoteLoadedMsg) tea.Cmd {
	if c.closed || msg.Epoch != c.epoch {
		c.logger.Debug("notes: stale load dropped", "id", msg.ID)
		return nil
	}
	if msg.Err != nil || msg.Note == nil {
		err := msg.Err
		if err == nil {
			err = api.ErrNotFound
		}
		c.logger.Error("notes: load failed", "id", msg.ID, "error", err)
		c.failLoad(err)
		return nil
	}

	n := msg.Note
	c.note = n
	c.buffer = Buffer{Title: n.Title, Body: n.Content}
	c.lastSaved = c.buffer
	c.loadErr = nil
	c.phase = PhaseReady

	c.siblings = nil
	c.siblingsLoaded = false
	c.siblingsLoading = false
	c.siblingErr = nil

	c.publish(EventLoaded)
	c.publish(EventBodyChanged)

	if c.panelOpen {
		return c.RefreshSiblings(n.FolderID)
	}
	return nil
}

func (c *Controller) applySaved(msg NoteSavedMsg) {
	if c.closed || msg.Epoch != c.epoch || c.phase != PhaseSaving {
		return
	}
	if msg.Err != nil {
		c.logger.Error("notes: save failed", "id", msg.ID, "error", msg.Err)
		c.phase = PhaseSaveError
		c.saveErr = msg.Err
		return
	}
	c.lastSaved = msg.Sent
	c.phase = PhaseReady
	c.saveErr = nil
	for i := range c.siblings {
		if c.siblings[i].ID == msg.ID {
			c.siblings[i].Title = msg.Sent.Title
		}
	}
	c.logger.Debug("notes: saved", "id", msg.ID, "dirty", c.Dirty())
	c.publish(EventSaved)
}
