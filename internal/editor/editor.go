// Package editor holds the note editor's state machine: the edit buffer,
// the last-saved snapshot, the single-flight save, and keyboard navigation
// between notes of the same folder.
//
// The Controller never blocks. Every network operation returns a tea.Cmd
// whose result comes back through Update as a message tagged with the
// generation that issued it; results from superseded generations are
// dropped. The controller is mutated only from the Bubble Tea update loop.
package editor

import (
	"context"
	"errors"
	"net/url"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/steamednotes/steamnotes/internal/api"
)

// NotesAPI is the slice of the HTTP client the editor needs.
type NotesAPI interface {
	GetNote(ctx context.Context, id api.ID) (*api.Note, error)
	UpdateNote(ctx context.Context, u api.NoteUpdate) error
	ListFolderNotes(ctx context.Context, folderID api.ID) ([]api.NoteSummary, error)
}

// Router performs programmatic navigation.
type Router interface {
	Navigate(path string) tea.Cmd
}

// ErrNoNote is the load error for an empty note identifier.
var ErrNoNote = errors.New("no note selected")

// Phase is the editor's lifecycle state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseSaving
	PhaseLoadError
	PhaseSaveError
)

// String returns a short label for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseSaving:
		return "saving"
	case PhaseLoadError:
		return "load-error"
	case PhaseSaveError:
		return "save-error"
	default:
		return "idle"
	}
}

// editable reports whether the buffer accepts edits in this phase.
func (p Phase) editable() bool {
	return p == PhaseReady || p == PhaseSaving || p == PhaseSaveError
}

// Direction selects the sibling to navigate to.
type Direction int

const (
	Next Direction = iota
	Previous
)

// Buffer is a title/body pair, used both for the working copy and for the
// last-saved snapshot.
type Buffer struct {
	Title string
	Body  string
}

// Sibling is one entry of the folder listing used for navigation.
type Sibling struct {
	ID    api.ID
	Title string
}

// NotePath is the route of a note.
func NotePath(id api.ID) string {
	return "/note/" + url.PathEscape(id.String())
}

// generations is shared by every controller so that a late message from an
// unmounted controller can never match a fresh controller's counter.
var generations atomic.Uint64

func nextGeneration() uint64 {
	return generations.Add(1)
}

// NoteLoadedMsg carries the result of Load.
type NoteLoadedMsg struct {
	ID    api.ID
	Note  *api.Note
	Err   error
	Epoch uint64
}

// GetEpoch returns the generation that issued the request.
func (m NoteLoadedMsg) GetEpoch() uint64 { return m.Epoch }

// NoteSavedMsg carries the result of Save. Sent holds exactly what was
// transmitted, which becomes the new snapshot on success.
type NoteSavedMsg struct {
	ID    api.ID
	Sent  Buffer
	Err   error
	Epoch uint64
}

// GetEpoch returns the generation that issued the request.
func (m NoteSavedMsg) GetEpoch() uint64 { return m.Epoch }

// SiblingsLoadedMsg carries the result of RefreshSiblings.
type SiblingsLoadedMsg struct {
	FolderID api.ID
	Siblings []Sibling
	Err      error
	Epoch    uint64
}

// GetEpoch returns the generation that issued the request.
func (m SiblingsLoadedMsg) GetEpoch() uint64 { return m.Epoch }
