package keymap

// Contexts used by the screens.
const (
	ContextGlobal   = "global"
	ContextEditor   = "note-editor"
	ContextPanel    = "note-editor-panel"
	ContextSignIn   = "signin"
	ContextMessages = "messages"
)

// DefaultBindings returns the default key bindings.
func DefaultBindings() []Binding {
	return []Binding{
		// Global bindings
		{Key: "ctrl+c", Command: "quit", Context: ContextGlobal},
		{Key: "ctrl+q", Command: "quit", Context: ContextGlobal},
		{Key: "ctrl+l", Command: "logout", Context: ContextGlobal},
		{Key: "ctrl+g", Command: "open-messages", Context: ContextGlobal},
		{Key: "f2", Command: "toggle-footer", Context: ContextGlobal},
		{Key: "f1", Command: "toggle-help", Context: ContextGlobal},

		// Note editor
		{Key: "ctrl+s", Command: "save", Context: ContextEditor},
		{Key: "ctrl+down", Command: "next-note", Context: ContextEditor},
		{Key: "ctrl+up", Command: "prev-note", Context: ContextEditor},
		{Key: "ctrl+f", Command: "toggle-folder", Context: ContextEditor},
		{Key: "tab", Command: "switch-field", Context: ContextEditor},
		{Key: "shift+tab", Command: "switch-field", Context: ContextEditor},
		{Key: "ctrl+p", Command: "toggle-preview", Context: ContextEditor},
		{Key: "ctrl+y", Command: "yank-body", Context: ContextEditor},
		{Key: "ctrl+r", Command: "reload", Context: ContextEditor},

		// Note editor with the folder panel focused
		{Key: "ctrl+s", Command: "save", Context: ContextPanel},
		{Key: "ctrl+down", Command: "next-note", Context: ContextPanel},
		{Key: "ctrl+up", Command: "prev-note", Context: ContextPanel},
		{Key: "ctrl+f", Command: "toggle-folder", Context: ContextPanel},
		{Key: "tab", Command: "switch-field", Context: ContextPanel},
		{Key: "shift+tab", Command: "switch-field", Context: ContextPanel},
		{Key: "j", Command: "cursor-down", Context: ContextPanel},
		{Key: "down", Command: "cursor-down", Context: ContextPanel},
		{Key: "k", Command: "cursor-up", Context: ContextPanel},
		{Key: "up", Command: "cursor-up", Context: ContextPanel},
		{Key: "enter", Command: "open-note", Context: ContextPanel},
		{Key: "r", Command: "refresh-folder", Context: ContextPanel},

		// Sign in
		{Key: "tab", Command: "next-field", Context: ContextSignIn},
		{Key: "shift+tab", Command: "prev-field", Context: ContextSignIn},
		{Key: "enter", Command: "submit", Context: ContextSignIn},

		// Messages
		{Key: "enter", Command: "send", Context: ContextMessages},
		{Key: "esc", Command: "back", Context: ContextMessages},
	}
}
