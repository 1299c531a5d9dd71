package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSave_PreservesUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	// A key Save does not manage must survive
	initial := []byte(`{
  "customKey": "should survive",
  "server": {"url": "http://old.example.com"}
}`)
	if err := os.WriteFile(path, initial, 0644); err != nil {
		t.Fatal(err)
	}

	SetTestConfigPath(path)
	defer ResetTestConfigPath()

	cfg := Default()
	cfg.Server.URL = "http://localhost:8080"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal saved config: %v", err)
	}
	if _, ok := raw["customKey"]; !ok {
		t.Error("Save() deleted 'customKey' from config.json")
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if loaded.Server.URL != "http://localhost:8080" {
		t.Errorf("got url %q after round trip", loaded.Server.URL)
	}
	if loaded.Server.Timeout != 15*time.Second {
		t.Errorf("got timeout %v after round trip", loaded.Server.Timeout)
	}
}

func TestSaveKeymapOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	SetTestConfigPath(path)
	defer ResetTestConfigPath()

	if err := SaveKeymapOverride("ctrl+w", "save"); err != nil {
		t.Fatalf("SaveKeymapOverride failed: %v", err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Keymap.Overrides["ctrl+w"] != "save" {
		t.Errorf("override not saved: %v", cfg.Keymap.Overrides)
	}

	if err := SaveKeymapOverride("ctrl+w", ""); err != nil {
		t.Fatal(err)
	}
	cfg, _ = LoadFrom(path)
	if _, ok := cfg.Keymap.Overrides["ctrl+w"]; ok {
		t.Error("empty command should remove the override")
	}
}
