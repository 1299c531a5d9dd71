package editor

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/steamednotes/steamnotes/internal/api"
)

// PanelOpen reports whether the folder panel is visible.
func (c *Controller) PanelOpen() bool { return c.panelOpen }

// Siblings returns the cached folder listing.
func (c *Controller) Siblings() []Sibling { return c.siblings }

// SiblingsLoaded reports whether the listing has been fetched for the
// current note.
func (c *Controller) SiblingsLoaded() bool { return c.siblingsLoaded }

// SiblingsLoading reports whether a listing request is outstanding.
func (c *Controller) SiblingsLoading() bool { return c.siblingsLoading }

// SiblingErr returns the panel-scoped error of the last failed refresh.
func (c *Controller) SiblingErr() error { return c.siblingErr }

// ToggleFolderPanel shows or hides the folder panel. Opening it fetches the
// listing if it has not been loaded for the current note.
func (c *Controller) ToggleFolderPanel() tea.Cmd {
	if c.closed {
		return nil
	}
	c.panelOpen = !c.panelOpen
	c.siblingErr = nil
	if c.panelOpen && !c.siblingsLoaded && !c.siblingsLoading && c.note != nil {
		return c.RefreshSiblings(c.note.FolderID)
	}
	return nil
}

// RefreshSiblings fetches the notes of a folder and replaces the listing
// wholesale when the result arrives.
func (c *Controller) RefreshSiblings(folderID api.ID) tea.Cmd {
	if c.closed || folderID == "" {
		return nil
	}
	c.siblingEpoch = nextGeneration()
	c.siblingsLoading = true

	epoch := c.siblingEpoch
	ctx, timeout := c.ctx, c.timeout
	notes := c.api

	return func() tea.Msg {
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		list, err := notes.ListFolderNotes(reqCtx, folderID)
		if err != nil {
			return SiblingsLoadedMsg{FolderID: folderID, Err: err, Epoch: epoch}
		}
		siblings := make([]Sibling, len(list))
		for i, n := range list {
			siblings[i] = Sibling{ID: n.ID, Title: n.Title}
		}
		return SiblingsLoadedMsg{FolderID: folderID, Siblings: siblings, Epoch: epoch}
	}
}

func (c *Controller) applySiblings(msg SiblingsLoadedMsg) {
	if c.closed || msg.Epoch != c.siblingEpoch {
		return
	}
	c.siblingsLoading = false
	if msg.Err != nil {
		c.logger.Warn("notes: folder listing failed", "folder", msg.FolderID, "error", msg.Err)
		c.siblingErr = msg.Err
		return
	}
	c.siblings = msg.Siblings
	c.siblingsLoaded = true
	c.siblingErr = nil
}

// siblingIndex is the position of the current note in the listing, or -1.
func (c *Controller) siblingIndex() int {
	for i, s := range c.siblings {
		if s.ID == c.noteID {
			return i
		}
	}
	return -1
}

// NavigateSibling routes to the next or previous note of the folder,
// wrapping at both ends. A one-note folder routes back to the same note,
// which reloads it. It does nothing when the listing is empty or does not
// contain the current note.
func (c *Controller) NavigateSibling(dir Direction) tea.Cmd {
	if c.closed || c.router == nil {
		return nil
	}
	n := len(c.siblings)
	if n == 0 {
		return nil
	}
	idx := c.siblingIndex()
	if idx < 0 {
		return nil
	}

	var target int
	switch dir {
	case Previous:
		target = (idx - 1 + n) % n
	default:
		target = (idx + 1) % n
	}
	return c.router.Navigate(NotePath(c.siblings[target].ID))
}

// OpenSibling routes to a note picked from the folder panel.
func (c *Controller) OpenSibling(id api.ID) tea.Cmd {
	if c.closed || c.router == nil || id == "" || id == c.noteID {
		return nil
	}
	return c.router.Navigate(NotePath(id))
}
