package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// FilePermissions is the default permission mode for regular files (read/write for owner, read for others)
	FilePermissions = 0644
	// DirPermissions is the default permission mode for directories (rwxr-xr-x)
	DirPermissions = 0755
)

var (
	// ConfigDir is the global configuration directory (~/.reqflow)
	ConfigDir string

	// CollectionsDir is the default collections directory
	CollectionsDir string

	// DatabasePath is the SQLite database file for bulk run reports
	DatabasePath string

	// SettingsFile is the YAML settings file
	SettingsFile string

	// EnvironmentsFile is the default environments file
	EnvironmentsFile string
)

// Initialize sets up the configuration directories and files
// It creates ~/.reqflow/ if it doesn't exist
func Initialize() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	return InitializeAt(filepath.Join(homeDir, ".reqflow"))
}

// InitializeAt is Initialize with an explicit configuration directory
func InitializeAt(dir string) error {
	ConfigDir = dir
	CollectionsDir = filepath.Join(ConfigDir, "collections")
	DatabasePath = filepath.Join(ConfigDir, "reqflow.db")
	SettingsFile = filepath.Join(ConfigDir, "config.yaml")
	EnvironmentsFile = filepath.Join(ConfigDir, "environments.json")

	for _, d := range []string{ConfigDir, CollectionsDir} {
		if err := os.MkdirAll(d, DirPermissions); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", d, err)
		}
	}

	if _, err := os.Stat(SettingsFile); errors.Is(err, os.ErrNotExist) {
		if err := SaveSettings(SettingsFile, DefaultSettings()); err != nil {
			return fmt.Errorf("failed to create settings file: %w", err)
		}
	}

	return nil
}

// ResolvePath expands a leading ~/ and makes relative paths relative to the
// collections directory. Paths that exist relative to the working directory
// are returned unchanged.
func ResolvePath(path string) (string, error) {
	if path == "" {
		return CollectionsDir, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if filepath.IsAbs(path) {
		return path, nil
	}
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	return filepath.Join(CollectionsDir, path), nil
}

// LocalEnvironmentsPath returns ./environments.json when present, otherwise
// the global environments file
func LocalEnvironmentsPath() string {
	for _, name := range []string{"environments.json", "environments.yaml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return EnvironmentsFile
}
