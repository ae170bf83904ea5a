package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "clipvault"

type Config struct {
	Hotkey           string `json:"hotkey"`
	MaxHistory       int    `json:"max_history"`
	MaxContentLength int    `json:"max_content_length"`
	PreviewLength    int    `json:"preview_length"`
	MaxImageBytes    int    `json:"max_image_bytes"`
	AutoExpireDays   int    `json:"auto_expire_days"`
	DatabasePath     string `json:"database_path"` // empty: platform data dir
	LogLevel         string `json:"log_level"`
	RunAtLogin       bool   `json:"run_at_login"`
}

// Load reads the config from disk or returns defaults
func Load() (*Config, error) {
	path := configPath()

	cfg := &Config{
		Hotkey:           "ctrl+shift+v",
		MaxHistory:       500,
		MaxContentLength: 50000,
		PreviewLength:    200,
		MaxImageBytes:    5 * 1024 * 1024,
		AutoExpireDays:   30,
		LogLevel:         "info",
		RunAtLogin:       false,
	}

	// Load existing config if it exists
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path := configPath()

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ResolvedDatabasePath returns the configured database file, defaulting to
// the platform data directory.
func (c *Config) ResolvedDatabasePath() string {
	if c.DatabasePath != "" {
		return c.DatabasePath
	}
	return filepath.Join(DataPath(), "history.db")
}

// configPath returns the platform-specific config file path
func configPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, appName, "config.json")
}

// DataPath returns the platform-specific data directory path
func DataPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("LOCALAPPDATA")
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.local/share"
		}
	}

	return filepath.Join(base, appName)
}
