package keybinds

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/jsonc"
)

// Config is the user's keybinds.json. Each section maps an action to a
// comma separated list of keys, e.g. {"editor": {"undo": "ctrl+z,alt+u"}}.
type Config struct {
	Version string            `json:"version"`
	Global  map[string]string `json:"global,omitempty"`
	Editor  map[string]string `json:"editor,omitempty"`
	Picker  map[string]string `json:"picker,omitempty"`
}

// LoadConfig loads keybinding configuration from a JSON file. Comments and
// trailing commas are allowed.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(jsonc.ToJSON(data), &config); err != nil {
		return nil, fmt.Errorf("invalid keybinds.json format: %w", err)
	}
	return &config, nil
}

// ApplyConfig applies user configuration to a registry. A configured action
// replaces every default key for that action in its context.
func ApplyConfig(registry *Registry, config *Config) error {
	sections := map[Context]map[string]string{
		ContextGlobal: config.Global,
		ContextEditor: config.Editor,
		ContextPicker: config.Picker,
	}

	for context, bindings := range sections {
		for actionStr, keys := range bindings {
			action := Action(actionStr)
			if !action.IsValid() {
				return fmt.Errorf("unknown action '%s' in '%s' section", actionStr, context)
			}
			registry.Unbind(context, action)
			registry.Bind(context, action, strings.Split(keys, ",")...)
		}
	}
	return nil
}

// LoadOrDefault returns the default registry with the user's overrides from
// configPath applied. A missing file leaves the defaults untouched.
func LoadOrDefault(configPath string) (*Registry, error) {
	registry := NewDefaultRegistry()

	config, err := LoadConfig(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return registry, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load keybinds.json: %w", err)
	}

	if err := ApplyConfig(registry, config); err != nil {
		return nil, fmt.Errorf("failed to apply keybinds config: %w", err)
	}
	if err := registry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid keybinds.json: %w", err)
	}
	return registry, nil
}
