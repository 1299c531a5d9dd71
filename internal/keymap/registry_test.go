package keymap

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

type savedMsg struct{}

func ctrlKey(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func TestHandle_AcquireRelease(t *testing.T) {
	r := NewRegistry()
	r.RegisterDefaults()

	calls := 0
	h := r.Acquire(ContextEditor, Command{ID: "save", Name: "Save", Handler: func() tea.Cmd {
		calls++
		return func() tea.Msg { return savedMsg{} }
	}})

	cmd, ok := r.Handle(ctrlKey(tea.KeyCtrlS), ContextEditor)
	if !ok || cmd == nil {
		t.Fatal("ctrl+s should be handled while acquired")
	}
	if _, isSaved := cmd().(savedMsg); !isSaved {
		t.Error("handler command not returned")
	}

	h.Release()
	h.Release()
	if _, ok := r.Handle(ctrlKey(tea.KeyCtrlS), ContextEditor); ok {
		t.Error("released handler must not receive keys")
	}
	if calls != 1 {
		t.Errorf("handler calls = %d, want 1", calls)
	}
	if r.Active(ContextEditor) {
		t.Error("context should be inactive after release")
	}
}

func TestHandle_ReplacedHandlerSurvivesOldRelease(t *testing.T) {
	r := NewRegistry()
	r.RegisterDefaults()

	var got string
	first := r.Acquire(ContextEditor, Command{ID: "save", Handler: func() tea.Cmd { got = "first"; return nil }})
	second := r.Acquire(ContextEditor, Command{ID: "save", Handler: func() tea.Cmd { got = "second"; return nil }})

	// A late release of the unmounted screen must not drop the new one.
	first.Release()
	if _, ok := r.Handle(ctrlKey(tea.KeyCtrlS), ContextEditor); !ok || got != "second" {
		t.Errorf("ok=%v got=%q, want second handler", ok, got)
	}
	second.Release()
	if r.Active(ContextEditor) {
		t.Error("context should be inactive")
	}
}

func TestHandle_GlobalFallback(t *testing.T) {
	r := NewRegistry()
	r.RegisterDefaults()

	quit := false
	defer r.Acquire(ContextGlobal, Command{ID: "quit", Handler: func() tea.Cmd { quit = true; return nil }}).Release()

	if _, ok := r.Handle(ctrlKey(tea.KeyCtrlC), ContextEditor); !ok || !quit {
		t.Error("global binding should apply inside the editor context")
	}
	if _, ok := r.Handle(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")}, ContextEditor); ok {
		t.Error("unbound key should not be handled")
	}
}

func TestLookup(t *testing.T) {
	r := NewRegistry()
	r.RegisterDefaults()

	tests := []struct {
		key     string
		context string
		expect  string
	}{
		{"ctrl+s", ContextEditor, "save"},
		{"Ctrl+S", ContextEditor, "save"},
		{"ctrl+down", ContextEditor, "next-note"},
		{"ctrl+up", ContextEditor, "prev-note"},
		{"enter", ContextPanel, "open-note"},
		{"ctrl+c", ContextSignIn, "quit"},
		{"ctrl+s", ContextSignIn, ""},
	}
	for _, tc := range tests {
		got, _ := r.Lookup(tc.key, tc.context)
		if got != tc.expect {
			t.Errorf("Lookup(%q, %q) = %q, want %q", tc.key, tc.context, got, tc.expect)
		}
	}
}

func TestUserOverride(t *testing.T) {
	r := NewRegistry()
	r.RegisterDefaults()
	r.SetUserOverride("ctrl+w", "save")

	saved := false
	h := r.Acquire(ContextEditor, Command{ID: "save", Name: "Save", Handler: func() tea.Cmd { saved = true; return nil }})
	defer h.Release()

	if _, ok := r.Handle(ctrlKey(tea.KeyCtrlW), ContextEditor); !ok || !saved {
		t.Error("override key should trigger save")
	}
	// The override does not leak into contexts without a handler.
	if cmd, _ := r.Lookup("ctrl+w", ContextSignIn); cmd == "save" {
		t.Error("override should not resolve where save is not live")
	}

	hints := r.Hints(ContextEditor)
	if len(hints) != 1 || hints[0].Key != "ctrl+w" || hints[0].Name != "Save" {
		t.Errorf("hints = %+v", hints)
	}

	r.ResetUserOverrides()
	if cmd, _ := r.Lookup("ctrl+w", ContextEditor); cmd != "" {
		t.Errorf("override still active after reset: %q", cmd)
	}
}

func TestBindings(t *testing.T) {
	r := NewRegistry()
	r.RegisterDefaults()

	var found bool
	for _, b := range r.Bindings(ContextEditor) {
		if b.Help().Desc == "switch-field" {
			found = true
			if len(b.Keys()) != 2 {
				t.Errorf("switch-field keys = %v, want tab and shift+tab", b.Keys())
			}
		}
	}
	if !found {
		t.Error("switch-field binding missing")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input  string
		expect string
	}{
		{"ctrl+s", "ctrl+s"},
		{"CTRL+s", "ctrl+s"},
		{" G ", "G"},
		{"+", "+"},
		{"ctrl+", "ctrl+"},
	}
	for _, tc := range tests {
		if got := normalize(tc.input); got != tc.expect {
			t.Errorf("normalize(%q) = %q, want %q", tc.input, got, tc.expect)
		}
	}
}
