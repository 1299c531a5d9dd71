package plugin

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/steamednotes/steamnotes/internal/api"
	"github.com/steamednotes/steamnotes/internal/config"
	"github.com/steamednotes/steamnotes/internal/keymap"
)

// Context is shared by the app with every plugin.
type Context struct {
	Config *config.Config
	Logger *slog.Logger
	Keymap *keymap.Registry
	API    *api.Client

	// Epoch changes whenever the signed-in session changes.
	Epoch uint64
}

// Registry holds plugins in registration order.
type Registry struct {
	ctx     *Context
	plugins []Plugin
	byID    map[string]Plugin
}

// NewRegistry creates a registry whose plugins are initialized with ctx.
func NewRegistry(ctx *Context) *Registry {
	return &Registry{ctx: ctx, byID: make(map[string]Plugin)}
}

// Register initializes p and adds it. A plugin whose Init fails is logged
// and left out.
func (r *Registry) Register(p Plugin) error {
	if err := p.Init(r.ctx); err != nil {
		if r.ctx != nil && r.ctx.Logger != nil {
			r.ctx.Logger.Error("plugin init failed", "plugin", p.ID(), "error", err)
		}
		return err
	}
	r.plugins = append(r.plugins, p)
	r.byID[p.ID()] = p
	return nil
}

// Get returns the plugin with id, or nil.
func (r *Registry) Get(id string) Plugin {
	return r.byID[id]
}

// Replace swaps in an updated plugin value returned from Update.
func (r *Registry) Replace(p Plugin) {
	id := p.ID()
	r.byID[id] = p
	for i, q := range r.plugins {
		if q.ID() == id {
			r.plugins[i] = p
			return
		}
	}
}

// Plugins returns all registered plugins.
func (r *Registry) Plugins() []Plugin {
	return r.plugins
}

// Context returns the shared plugin context.
func (r *Registry) Context() *Context {
	return r.ctx
}

// Start starts every plugin and returns their commands.
func (r *Registry) Start() []tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(r.plugins))
	for _, p := range r.plugins {
		if cmd := p.Start(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

// Stop stops every plugin in reverse registration order.
func (r *Registry) Stop() {
	for i := len(r.plugins) - 1; i >= 0; i-- {
		r.plugins[i].Stop()
	}
}
