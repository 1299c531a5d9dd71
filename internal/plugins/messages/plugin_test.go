package messages

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/steamednotes/steamnotes/internal/config"
	"github.com/steamednotes/steamnotes/internal/keymap"
	"github.com/steamednotes/steamnotes/internal/msg"
	"github.com/steamednotes/steamnotes/internal/plugin"
)

const greeting = "Welcome to SteamedNotes WS!"

// echoServer greets and then echoes every text frame.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		if err := c.WriteMessage(websocket.TextMessage, []byte(greeting)); err != nil {
			return
		}
		for {
			kind, data, err := c.ReadMessage()
			if err != nil {
				return
			}
			if err := c.WriteMessage(kind, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

type urlDialer struct{ url string }

func (d urlDialer) DialMessages(ctx context.Context) (*websocket.Conn, error) {
	c, _, err := websocket.DefaultDialer.DialContext(ctx, d.url, nil)
	return c, err
}

type failingDialer struct{}

func (failingDialer) DialMessages(context.Context) (*websocket.Conn, error) {
	return nil, errors.New("connection refused")
}

func newTestPlugin(t *testing.T, d Dialer) (*Plugin, *keymap.Registry) {
	t.Helper()
	keys := keymap.NewRegistry()
	keys.RegisterDefaults()
	p := NewWithDialer(d)
	ctx := &plugin.Context{
		Config: config.Default(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Keymap: keys,
	}
	if err := p.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(p.Unmount)
	return p, keys
}

// step runs cmd with a timeout and feeds the result back to the screen.
func step(t *testing.T, p *Plugin, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	out := make(chan tea.Msg, 1)
	go func() { out <- cmd() }()
	select {
	case m := <-out:
		_, next := p.Update(m)
		return next
	case <-time.After(5 * time.Second):
		t.Fatal("command did not finish")
		return nil
	}
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestMount_ConnectsAndReceivesGreeting(t *testing.T) {
	p, _ := newTestPlugin(t, urlDialer{wsURL(echoServer(t))})

	listenCmd := step(t, p, p.Mount(nil))
	if p.Status() != StatusConnected {
		t.Fatalf("status = %v, want connected", p.Status())
	}
	step(t, p, listenCmd)

	h := p.History()
	if len(h) != 1 || h[0].Text != greeting || h[0].Outgoing {
		t.Errorf("history = %+v", h)
	}
}

func TestSend_Echoes(t *testing.T) {
	p, keys := newTestPlugin(t, urlDialer{wsURL(echoServer(t))})
	listenCmd := step(t, p, p.Mount(nil))
	listenCmd = step(t, p, listenCmd) // greeting

	for _, r := range "hello" {
		p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	sendCmd, ok := keys.Handle(tea.KeyMsg{Type: tea.KeyEnter}, p.FocusContext())
	if !ok {
		t.Fatal("enter not bound to send")
	}
	if p.input.Value() != "" {
		t.Error("input should clear after send")
	}
	if next := step(t, p, sendCmd); next != nil {
		t.Error("successful send should not toast")
	}
	step(t, p, listenCmd)

	h := p.History()
	if len(h) != 3 {
		t.Fatalf("history = %+v", h)
	}
	if !h[1].Outgoing || h[1].Text != "hello" {
		t.Errorf("outgoing = %+v", h[1])
	}
	if h[2].Outgoing || h[2].Text != "hello" {
		t.Errorf("echo = %+v", h[2])
	}
}

func TestSend_NotConnected(t *testing.T) {
	p, keys := newTestPlugin(t, failingDialer{})
	step(t, p, p.Mount(nil))
	if p.Status() != StatusClosed {
		t.Fatalf("status = %v, want disconnected", p.Status())
	}
	if !strings.Contains(p.View(80, 20), "connection refused") {
		t.Error("view should show the connect error")
	}

	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	cmd, _ := keys.Handle(tea.KeyMsg{Type: tea.KeyEnter}, p.FocusContext())
	if toast, ok := cmd().(msg.ToastMsg); !ok || !toast.IsError {
		t.Errorf("expected error toast, got %#v", toast)
	}
}

func TestUnmount_DropsLateResults(t *testing.T) {
	p, keys := newTestPlugin(t, urlDialer{wsURL(echoServer(t))})
	dial := p.Mount(nil)
	p.Unmount()

	if keys.Active(keymap.ContextMessages) {
		t.Error("bindings still active after unmount")
	}
	if next := step(t, p, dial); next != nil {
		t.Error("late connect should be dropped")
	}
	if p.Status() != StatusIdle {
		t.Errorf("status = %v, want idle", p.Status())
	}
}

func TestBack_NavigatesHome(t *testing.T) {
	p, keys := newTestPlugin(t, failingDialer{})
	step(t, p, p.Mount(nil))
	cmd, ok := keys.Handle(tea.KeyMsg{Type: tea.KeyEsc}, p.FocusContext())
	if !ok {
		t.Fatal("esc not bound")
	}
	if nav, ok := cmd().(msg.NavigateMsg); !ok || nav.Path != "/" {
		t.Errorf("got %#v", nav)
	}
}
