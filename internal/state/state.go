package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// State holds persistent user preferences.
type State struct {
	// LastNoteID is reopened at startup when no note is given on the command line.
	LastNoteID string `json:"lastNoteID,omitempty"`

	// FolderPanelOpen is the last manual toggle of the editor's folder
	// panel. nil means never toggled, so the configured default applies.
	FolderPanelOpen *bool `json:"folderPanelOpen,omitempty"`

	// LastEmail prefills the sign-in form.
	LastEmail string `json:"lastEmail,omitempty"`
}

var (
	current *State
	mu      sync.RWMutex
	path    string
)

// Init loads state from the default location.
func Init() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	return InitWithDir(filepath.Join(home, ".config", "steamnotes"))
}

// InitWithDir loads state from a specified directory.
// This is primarily for testing to avoid reading real user state.
func InitWithDir(dir string) error {
	path = filepath.Join(dir, "state.json")
	return Load()
}

// Load reads state from disk.
func Load() error {
	mu.Lock()
	defer mu.Unlock()

	current = &State{}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil // no state file yet, use defaults
	}
	if err != nil {
		return err
	}

	return json.Unmarshal(data, current)
}

// Save writes state to disk.
func Save() error {
	mu.RLock()
	defer mu.RUnlock()

	if current == nil || path == "" {
		return nil
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetLastNoteID returns the identifier of the last opened note.
func GetLastNoteID() string {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return ""
	}
	return current.LastNoteID
}

// SetLastNoteID remembers the last opened note.
func SetLastNoteID(id string) error {
	mu.Lock()
	if current == nil {
		current = &State{}
	}
	if current.LastNoteID == id {
		mu.Unlock()
		return nil
	}
	current.LastNoteID = id
	mu.Unlock()
	return Save()
}

// GetFolderPanelOpen returns the saved panel toggle and whether one exists.
func GetFolderPanelOpen() (open, ok bool) {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil || current.FolderPanelOpen == nil {
		return false, false
	}
	return *current.FolderPanelOpen, true
}

// SetFolderPanelOpen saves the folder panel toggle.
func SetFolderPanelOpen(open bool) error {
	mu.Lock()
	if current == nil {
		current = &State{}
	}
	current.FolderPanelOpen = &open
	mu.Unlock()
	return Save()
}

// GetLastEmail returns the last email used to sign in.
func GetLastEmail() string {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return ""
	}
	return current.LastEmail
}

// SetLastEmail saves the email of a successful sign-in.
func SetLastEmail(email string) error {
	mu.Lock()
	if current == nil {
		current = &State{}
	}
	current.LastEmail = email
	mu.Unlock()
	return Save()
}
