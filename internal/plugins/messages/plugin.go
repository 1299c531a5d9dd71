// Package messages is the websocket echo screen mounted on /messages.
//
// Mount dials the server; a reader goroutine forwards every text frame to
// a channel that a listen command drains one message at a time. Unmount
// closes the connection, which ends the reader.
package messages

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/steamednotes/steamnotes/internal/keymap"
	"github.com/steamednotes/steamnotes/internal/msg"
	"github.com/steamednotes/steamnotes/internal/plugin"
	"github.com/steamednotes/steamnotes/internal/styles"
)

const (
	pluginID   = "messages"
	pluginName = "Messages"

	// maxHistory bounds the kept message list.
	maxHistory = 500
	inboxSize  = 64

	writeWait = 5 * time.Second
)

// Dialer opens the messages websocket.
type Dialer interface {
	DialMessages(ctx context.Context) (*websocket.Conn, error)
}

// Status is the connection state.
type Status int

const (
	StatusIdle Status = iota
	StatusConnecting
	StatusConnected
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusClosed:
		return "disconnected"
	}
	return "idle"
}

// Entry is one line of the conversation.
type Entry struct {
	Text     string
	Outgoing bool
	At       time.Time
}

type connectedMsg struct {
	Session uint64
	Conn    *websocket.Conn
	Err     error
}

type incomingMsg struct {
	Session uint64
	Text    string
}

type closedMsg struct {
	Session uint64
	Err     error
}

type sentMsg struct {
	Session uint64
	Err     error
}

// conn pairs a websocket with its reader's channels.
type conn struct {
	ws    *websocket.Conn
	inbox chan string
	done  chan error // receives the reader's exit error, then closes
	wmu   sync.Mutex
	once  sync.Once
}

func (c *conn) write(text string) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, []byte(text))
}

func (c *conn) close() {
	c.once.Do(func() {
		c.wmu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.wmu.Unlock()
		_ = c.ws.Close()
	})
}

// read forwards text frames until the connection fails or closes.
func (c *conn) read() {
	defer close(c.done)
	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			c.done <- err
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		select {
		case c.inbox <- string(data):
		case <-time.After(writeWait):
			// Nobody is listening any more
			c.done <- errors.New("messages: reader stalled")
			return
		}
	}
}

// Plugin implements the messages screen.
type Plugin struct {
	ctx     *plugin.Context
	focused bool
	dialer  Dialer

	keys    *keymap.Handle
	session uint64
	conn    *conn
	cancel  context.CancelFunc

	status  Status
	lastErr error
	history []Entry
	input   textinput.Model

	width  int
	height int
}

// New creates the messages screen backed by the API client from the plugin
// context.
func New() *Plugin { return &Plugin{} }

// NewWithDialer creates the messages screen over an explicit dialer.
func NewWithDialer(d Dialer) *Plugin { return &Plugin{dialer: d} }

// ID returns the plugin identifier.
func (p *Plugin) ID() string { return pluginID }

// Name returns the plugin display name.
func (p *Plugin) Name() string { return pluginName }

// Init initializes the plugin with context.
func (p *Plugin) Init(ctx *plugin.Context) error {
	p.ctx = ctx
	if p.dialer == nil && ctx.API != nil {
		p.dialer = ctx.API
	}
	if p.dialer == nil {
		return errors.New("messages: no API client")
	}
	p.input = textinput.New()
	p.input.Placeholder = "Type message"
	p.input.Prompt = "> "
	p.input.PlaceholderStyle = styles.Muted
	return nil
}

// Start begins plugin operation.
func (p *Plugin) Start() tea.Cmd { return nil }

// Stop cleans up plugin resources.
func (p *Plugin) Stop() { p.Unmount() }

// Mount clears the history and connects.
func (p *Plugin) Mount(plugin.Params) tea.Cmd {
	p.Unmount()
	p.keys = p.ctx.Keymap.Acquire(keymap.ContextMessages,
		keymap.Command{ID: "send", Name: "Send", Handler: p.send},
		keymap.Command{ID: "back", Name: "Back", Handler: func() tea.Cmd { return msg.Navigate("/") }},
	)
	p.history = nil
	p.lastErr = nil
	p.input.SetValue("")
	p.input.Focus()
	return p.connect()
}

// Unmount closes the connection and releases the keymap.
func (p *Plugin) Unmount() {
	p.keys.Release()
	p.keys = nil
	p.session++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	if p.conn != nil {
		p.conn.close()
		p.conn = nil
	}
	p.status = StatusIdle
	p.input.Blur()
}

// Status returns the connection state.
func (p *Plugin) Status() Status { return p.status }

// History returns the conversation so far.
func (p *Plugin) History() []Entry { return p.history }

func (p *Plugin) connect() tea.Cmd {
	p.session++
	p.status = StatusConnecting
	session, dialer := p.session, p.dialer
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	return func() tea.Msg {
		c, err := dialer.DialMessages(ctx)
		return connectedMsg{Session: session, Conn: c, Err: err}
	}
}

func listen(c *conn, session uint64) tea.Cmd {
	return func() tea.Msg {
		select {
		case text := <-c.inbox:
			return incomingMsg{Session: session, Text: text}
		case err := <-c.done:
			return closedMsg{Session: session, Err: err}
		}
	}
}

func (p *Plugin) send() tea.Cmd {
	text := p.input.Value()
	if text == "" {
		return nil
	}
	if p.conn == nil || p.status != StatusConnected {
		return msg.ShowErrorToast("Not connected", 2*time.Second)
	}
	p.input.SetValue("")
	p.append(Entry{Text: text, Outgoing: true, At: time.Now()})
	c, session := p.conn, p.session
	return func() tea.Msg {
		return sentMsg{Session: session, Err: c.write(text)}
	}
}

func (p *Plugin) append(e Entry) {
	p.history = append(p.history, e)
	if over := len(p.history) - maxHistory; over > 0 {
		p.history = p.history[over:]
	}
}

// Update handles messages.
func (p *Plugin) Update(m tea.Msg) (plugin.Plugin, tea.Cmd) {
	switch m := m.(type) {
	case connectedMsg:
		if m.Session != p.session {
			if m.Conn != nil {
				_ = m.Conn.Close()
			}
			return p, nil
		}
		if m.Err != nil {
			p.status = StatusClosed
			p.lastErr = m.Err
			p.ctx.Logger.Warn("messages: connect failed", "error", m.Err)
			return p, nil
		}
		c := &conn{ws: m.Conn, inbox: make(chan string, inboxSize), done: make(chan error, 1)}
		p.conn = c
		p.status = StatusConnected
		go c.read()
		return p, listen(c, p.session)

	case incomingMsg:
		if m.Session != p.session || p.conn == nil {
			return p, nil
		}
		p.append(Entry{Text: m.Text, At: time.Now()})
		return p, listen(p.conn, p.session)

	case closedMsg:
		if m.Session != p.session {
			return p, nil
		}
		p.status = StatusClosed
		if m.Err != nil && !websocket.IsCloseError(m.Err, websocket.CloseNormalClosure) {
			p.lastErr = m.Err
		}
		if p.conn != nil {
			p.conn.close()
			p.conn = nil
		}
		return p, nil

	case sentMsg:
		if m.Session == p.session && m.Err != nil {
			p.ctx.Logger.Warn("messages: send failed", "error", m.Err)
			return p, msg.ShowErrorToast("Send failed", 2*time.Second)
		}
		return p, nil

	case tea.KeyMsg:
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(m)
		return p, cmd
	}
	return p, nil
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
func (p *Plugin) FocusContext() string { return keymap.ContextMessages }

// ConsumesTextInput reports that printable keys go to the input.
func (p *Plugin) ConsumesTextInput() bool { return true }
