package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("APPDATA", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Hotkey != "ctrl+shift+v" {
		t.Errorf("Hotkey = %q, want ctrl+shift+v", cfg.Hotkey)
	}
	if cfg.MaxHistory != 500 {
		t.Errorf("MaxHistory = %d, want 500", cfg.MaxHistory)
	}
	if cfg.AutoExpireDays != 30 {
		t.Errorf("AutoExpireDays = %d, want 30", cfg.AutoExpireDays)
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("APPDATA", dir)
	t.Setenv("HOME", dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cfg.Hotkey = "ctrl+alt+h"
	cfg.MaxHistory = 50
	cfg.RunAtLogin = true
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded, err := Load()
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Hotkey != "ctrl+alt+h" {
		t.Errorf("Hotkey = %q, want ctrl+alt+h", reloaded.Hotkey)
	}
	if reloaded.MaxHistory != 50 {
		t.Errorf("MaxHistory = %d, want 50", reloaded.MaxHistory)
	}
	if !reloaded.RunAtLogin {
		t.Error("RunAtLogin should survive a save/load round trip")
	}
}

func TestResolvedDatabasePath(t *testing.T) {
	cfg := &Config{DatabasePath: filepath.Join(os.TempDir(), "custom.db")}
	if got := cfg.ResolvedDatabasePath(); got != cfg.DatabasePath {
		t.Errorf("ResolvedDatabasePath = %q, want override %q", got, cfg.DatabasePath)
	}

	cfg.DatabasePath = ""
	if got := cfg.ResolvedDatabasePath(); filepath.Base(got) != "history.db" {
		t.Errorf("default database file = %q, want history.db", filepath.Base(got))
	}
}
