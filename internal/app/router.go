package app

import (
	"net/url"
	"strings"

	"github.com/steamednotes/steamnotes/internal/api"
	"github.com/steamednotes/steamnotes/internal/editor"
	"github.com/steamednotes/steamnotes/internal/plugin"
)

// Screen ids, matching the plugin ids.
const (
	ScreenNote     = "note-editor"
	ScreenSignIn   = "signin"
	ScreenMessages = "messages"
)

// Route is a resolved path.
type Route struct {
	Path   string
	Screen string
	Params plugin.Params
}

// ParseRoute maps a path onto a screen. "/" and unknown paths resolve to
// the note screen for home, the last note opened, or no note at all.
// Note ids are path-escaped in the route and unescaped into Params.
func ParseRoute(path, home string) Route {
	path = "/" + strings.TrimLeft(path, "/")
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	switch {
	case path == "/signin":
		return Route{Path: path, Screen: ScreenSignIn}
	case path == "/messages":
		return Route{Path: path, Screen: ScreenMessages}
	case path == "/note":
		return noteRoute("")
	case strings.HasPrefix(path, "/note/"):
		raw := strings.TrimPrefix(path, "/note/")
		id, err := url.PathUnescape(raw)
		if err != nil {
			id = raw
		}
		return noteRoute(id)
	}
	return noteRoute(home)
}

func noteRoute(id string) Route {
	path := "/note"
	if id != "" {
		path = NotePath(id)
	}
	return Route{Path: path, Screen: ScreenNote, Params: plugin.Params{"id": id}}
}

// NotePath returns the route of a note.
func NotePath(id string) string { return editor.NotePath(api.ID(id)) }
