package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings are user preferences read from config.yaml
type Settings struct {
	LogLevel    string `yaml:"log_level"`
	Concurrency int    `yaml:"concurrency"`

	// Request editor history
	HistoryLimit           int `yaml:"history_limit"`
	HistoryMaxTrackedBytes int `yaml:"history_max_tracked_bytes"`
	HistorySampleThreshold int `yaml:"history_sample_threshold"`
	HistorySampleCount     int `yaml:"history_sample_count"`
	SnapshotDebounceMs     int `yaml:"snapshot_debounce_ms"`

	RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`
}

// DefaultSettings returns the built-in defaults
func DefaultSettings() Settings {
	return Settings{
		LogLevel:               "info",
		Concurrency:            4,
		HistoryLimit:           30,
		HistoryMaxTrackedBytes: 2 << 20,
		HistorySampleThreshold: 64 << 10,
		HistorySampleCount:     256,
		SnapshotDebounceMs:     400,
		RequestTimeoutSeconds:  30,
	}
}

// SnapshotDebounce returns the editor snapshot delay
func (s Settings) SnapshotDebounce() time.Duration {
	return time.Duration(s.SnapshotDebounceMs) * time.Millisecond
}

// LoadSettings reads path over the defaults and applies REQFLOW_* environment
// overrides. A missing file is not an error.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return settings, fmt.Errorf("failed to parse settings %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return settings, fmt.Errorf("failed to read settings: %w", err)
	}

	settings.applyEnv()
	settings.fillZeros()
	return settings, nil
}

// SaveSettings writes settings to path as YAML
func SaveSettings(path string, settings Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.WriteFile(path, data, FilePermissions); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

func (s *Settings) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("REQFLOW_LOG_LEVEL")); v != "" {
		s.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("REQFLOW_CONCURRENCY")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.Concurrency = n
		}
	}
}

// fillZeros restores defaults for fields a partial file set to zero
func (s *Settings) fillZeros() {
	d := DefaultSettings()
	if s.LogLevel == "" {
		s.LogLevel = d.LogLevel
	}
	if s.Concurrency <= 0 {
		s.Concurrency = d.Concurrency
	}
	if s.HistoryLimit <= 0 {
		s.HistoryLimit = d.HistoryLimit
	}
	if s.HistoryMaxTrackedBytes <= 0 {
		s.HistoryMaxTrackedBytes = d.HistoryMaxTrackedBytes
	}
	if s.HistorySampleThreshold <= 0 {
		s.HistorySampleThreshold = d.HistorySampleThreshold
	}
	if s.HistorySampleCount <= 0 {
		s.HistorySampleCount = d.HistorySampleCount
	}
	if s.SnapshotDebounceMs <= 0 {
		s.SnapshotDebounceMs = d.SnapshotDebounceMs
	}
	if s.RequestTimeoutSeconds <= 0 {
		s.RequestTimeoutSeconds = d.RequestTimeoutSeconds
	}
}
