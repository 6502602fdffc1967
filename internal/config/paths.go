package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appDir = "nightscout-widget"

// Dir returns the per-user configuration directory
func Dir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, appDir), nil
}

// EnsureDir returns Dir after creating it
func EnsureDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", appDir, err)
	}
	return dir, nil
}

// ResolveSettingsPath returns SettingsPath or the backend's default file under Dir
func (c Config) ResolveSettingsPath() (string, error) {
	if c.SettingsPath != "" {
		return c.SettingsPath, nil
	}
	dir, err := EnsureDir()
	if err != nil {
		return "", err
	}
	name := "settings.toml"
	if c.SettingsBackend == BackendSQLite {
		name = "settings.db"
	}
	return filepath.Join(dir, name), nil
}
