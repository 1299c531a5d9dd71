// Package keymap maps key presses to named commands per focus context.
//
// Bindings are static data. Handlers are attached at runtime by the screen
// that owns a context: Acquire registers them and returns a Handle whose
// Release detaches them again, so a screen that is gone can never receive
// a key.
package keymap

import (
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Binding maps a key to a command within a context.
type Binding struct {
	Key     string
	Command string
	Context string
}

// Command is a runtime handler attached to a command id.
type Command struct {
	ID      string
	Name    string // short label for the footer
	Handler func() tea.Cmd
}

// Registry holds bindings, user overrides and the currently acquired
// handlers.
type Registry struct {
	mu        sync.RWMutex
	bindings  map[string][]Binding // context -> bindings
	overrides map[string]string    // key -> command, applies to every context
	handlers  map[string]map[string]*entry
	nextID    uint64
}

type entry struct {
	owner uint64
	cmd   Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		bindings:  make(map[string][]Binding),
		overrides: make(map[string]string),
		handlers:  make(map[string]map[string]*entry),
	}
}

// RegisterBinding adds a static binding.
func (r *Registry) RegisterBinding(b Binding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[b.Context] = append(r.bindings[b.Context], b)
}

// RegisterDefaults adds DefaultBindings.
func (r *Registry) RegisterDefaults() {
	for _, b := range DefaultBindings() {
		r.RegisterBinding(b)
	}
}

// SetUserOverride rebinds key to command. The override wins over the
// defaults in every context where command has a handler.
func (r *Registry) SetUserOverride(keyStr, command string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[normalize(keyStr)] = command
}

// ResetUserOverrides drops every override, used before re-applying a
// reloaded config.
func (r *Registry) ResetUserOverrides() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides = make(map[string]string)
}

// Handle is the scoped acquisition returned by Acquire.
type Handle struct {
	r       *Registry
	id      uint64
	context string
	once    sync.Once
}

// Acquire attaches handlers to context. A later Acquire of the same command
// id in the same context replaces the earlier one until it is released.
func (r *Registry) Acquire(context string, cmds ...Command) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	h := &Handle{r: r, id: r.nextID, context: context}
	m := r.handlers[context]
	if m == nil {
		m = make(map[string]*entry)
		r.handlers[context] = m
	}
	for _, c := range cmds {
		m[c.ID] = &entry{owner: h.id, cmd: c}
	}
	return h
}

// Release detaches every handler this handle attached that has not been
// replaced since. It is safe to call more than once and on a nil handle.
func (h *Handle) Release() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		h.r.mu.Lock()
		defer h.r.mu.Unlock()
		m := h.r.handlers[h.context]
		for id, e := range m {
			if e.owner == h.id {
				delete(m, id)
			}
		}
		if len(m) == 0 {
			delete(h.r.handlers, h.context)
		}
	})
}

// Active reports whether any handler is attached to context.
func (r *Registry) Active(context string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers[context]) > 0
}

// Lookup returns the command bound to keyStr in context, falling back to
// the global context. Overrides are consulted first.
func (r *Registry) Lookup(keyStr, context string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(normalize(keyStr), context)
}

func (r *Registry) lookup(k, context string) (string, bool) {
	if cmd, ok := r.overrides[k]; ok {
		if _, live := r.handlers[context][cmd]; live {
			return cmd, true
		}
		if _, live := r.handlers[ContextGlobal][cmd]; live {
			return cmd, true
		}
	}
	for _, ctx := range []string{context, ContextGlobal} {
		for _, b := range r.bindings[ctx] {
			if b.Key == k {
				return b.Command, true
			}
		}
	}
	return "", false
}

// Handle dispatches a key press. It returns the handler's command and true
// when a live handler consumed the key.
func (r *Registry) Handle(msg tea.KeyMsg, context string) (tea.Cmd, bool) {
	r.mu.RLock()
	k := normalize(msg.String())
	var handler func() tea.Cmd
	if cmd, ok := r.lookup(k, context); ok {
		if e, live := r.handlers[context][cmd]; live {
			handler = e.cmd.Handler
		} else if e, live := r.handlers[ContextGlobal][cmd]; live {
			handler = e.cmd.Handler
		}
	}
	r.mu.RUnlock()

	if handler == nil {
		return nil, false
	}
	return handler(), true
}

// Hint is one footer entry.
type Hint struct {
	Key  string
	Name string
}

// Hints lists the live commands of context with their keys, for the footer.
// Each command appears once, under its first key.
func (r *Registry) Hints(context string) []Hint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make(map[string]string)
	for k, cmd := range r.overrides {
		keys[cmd] = k
	}
	for _, b := range r.bindings[context] {
		if _, seen := keys[b.Command]; !seen {
			keys[b.Command] = b.Key
		}
	}

	var hints []Hint
	for _, b := range r.bindings[context] {
		e, live := r.handlers[context][b.Command]
		if !live || e.cmd.Name == "" || keys[b.Command] == "" {
			continue
		}
		hints = append(hints, Hint{Key: keys[b.Command], Name: e.cmd.Name})
		delete(keys, b.Command)
	}
	return hints
}

// Bindings returns the key.Binding set for context, suitable for a bubbles
// help view.
func (r *Registry) Bindings(context string) []key.Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byCmd := make(map[string][]string)
	var order []string
	for _, b := range r.bindings[context] {
		if _, ok := byCmd[b.Command]; !ok {
			order = append(order, b.Command)
		}
		byCmd[b.Command] = append(byCmd[b.Command], b.Key)
	}
	for k, cmd := range r.overrides {
		if _, ok := byCmd[cmd]; ok {
			byCmd[cmd] = append(byCmd[cmd], k)
		}
	}

	out := make([]key.Binding, 0, len(order))
	for _, cmd := range order {
		keys := byCmd[cmd]
		sort.Strings(keys[1:])
		out = append(out, key.NewBinding(key.WithKeys(keys...), key.WithHelp(keys[0], cmd)))
	}
	return out
}

// normalize lower-cases modifier prefixes so "Ctrl+S" matches "ctrl+s".
// The final key keeps its case so "G" and "g" stay distinct.
func normalize(k string) string {
	k = strings.TrimSpace(k)
	i := strings.LastIndex(k, "+")
	if i <= 0 || i == len(k)-1 {
		return k
	}
	return strings.ToLower(k[:i+1]) + k[i+1:]
}
