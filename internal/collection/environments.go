package collection

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/studiowebux/reqflow/internal/config"
	"github.com/studiowebux/reqflow/internal/types"
)

// LoadEnvironments reads an environments file. A missing file yields an empty
// file with a "default" environment.
func LoadEnvironments(path string) (*types.EnvironmentFile, error) {
	ef := &types.EnvironmentFile{}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		ef.Active()
		return ef, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read environments: %w", err)
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, ef)
	} else {
		err = json.Unmarshal(jsonc.ToJSON(data), ef)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse environments %s: %w", path, err)
	}

	for name, env := range ef.Envs {
		if env != nil && env.Name == "" {
			env.Name = name
		}
	}
	ef.Active()
	return ef, nil
}

// SaveEnvironments writes ef to path
func SaveEnvironments(path string, ef *types.EnvironmentFile) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(ef)
	} else {
		data, err = json.MarshalIndent(ef, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal environments: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, config.DirPermissions); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, config.FilePermissions); err != nil {
		return fmt.Errorf("failed to write environments: %w", err)
	}
	return nil
}

// Select makes name the active environment. The environment must exist.
func Select(ef *types.EnvironmentFile, name string) (*types.Environment, error) {
	env, ok := ef.Envs[name]
	if !ok || env == nil {
		return nil, fmt.Errorf("environment %q not found", name)
	}
	ef.ActiveEnv = name
	return ef.Active(), nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
