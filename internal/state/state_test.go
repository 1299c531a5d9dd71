package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// withTempState points the package at a fresh directory for one test.
func withTempState(t *testing.T) string {
	t.Helper()
	originalPath := path
	originalCurrent := current
	t.Cleanup(func() {
		path = originalPath
		current = originalCurrent
	})
	dir := filepath.Join(t.TempDir(), ".config", "steamnotes")
	if err := InitWithDir(dir); err != nil {
		t.Fatalf("InitWithDir() failed: %v", err)
	}
	return dir
}

func TestInit(t *testing.T) {
	withTempState(t)

	if current == nil {
		t.Fatal("current state should be initialized")
	}
	if current.LastNoteID != "" {
		t.Errorf("default LastNoteID = %q, want empty", current.LastNoteID)
	}
	if _, ok := GetFolderPanelOpen(); ok {
		t.Error("folder panel toggle should be unset by default")
	}
}

func TestLoad_ExistingFile(t *testing.T) {
	dir := withTempState(t)

	open := true
	data, _ := json.Marshal(State{LastNoteID: "42", FolderPanelOpen: &open})
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "state.json"), data, 0644); err != nil {
		t.Fatalf("failed to write test state file: %v", err)
	}

	if err := Load(); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got := GetLastNoteID(); got != "42" {
		t.Errorf("LastNoteID = %q, want 42", got)
	}
	if got, ok := GetFolderPanelOpen(); !ok || !got {
		t.Errorf("FolderPanelOpen = %v/%v, want true/true", got, ok)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := withTempState(t)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "state.json"), []byte("{invalid"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := Load(); err == nil {
		t.Error("Load() should fail on invalid JSON")
	}
}

func TestSetters_Persist(t *testing.T) {
	dir := withTempState(t)

	if err := SetLastNoteID("7"); err != nil {
		t.Fatalf("SetLastNoteID() failed: %v", err)
	}
	if err := SetFolderPanelOpen(false); err != nil {
		t.Fatalf("SetFolderPanelOpen() failed: %v", err)
	}
	if err := SetLastEmail("ada@example.com"); err != nil {
		t.Fatalf("SetLastEmail() failed: %v", err)
	}

	// Reload from disk
	if err := InitWithDir(dir); err != nil {
		t.Fatal(err)
	}
	if got := GetLastNoteID(); got != "7" {
		t.Errorf("LastNoteID = %q, want 7", got)
	}
	if got, ok := GetFolderPanelOpen(); !ok || got {
		t.Errorf("FolderPanelOpen = %v/%v, want false/true", got, ok)
	}
	if got := GetLastEmail(); got != "ada@example.com" {
		t.Errorf("LastEmail = %q", got)
	}
}

func TestNilCurrent(t *testing.T) {
	originalCurrent := current
	current = nil
	defer func() { current = originalCurrent }()

	if GetLastNoteID() != "" || GetLastEmail() != "" {
		t.Error("getters should return zero values with no state")
	}
	if _, ok := GetFolderPanelOpen(); ok {
		t.Error("GetFolderPanelOpen should report unset with no state")
	}
}

func TestConcurrentAccess(t *testing.T) {
	withTempState(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = GetLastNoteID()
			_, _ = GetFolderPanelOpen()
		}()
		go func(open bool) {
			defer wg.Done()
			_ = SetFolderPanelOpen(open)
		}(i%2 == 0)
	}
	wg.Wait()
}
