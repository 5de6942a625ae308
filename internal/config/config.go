// Package config provides typed access to a project's raw configuration
// mapping and loaders that produce that mapping from project files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultProjectFile is the project file read when none is given.
const DefaultProjectFile = "pyproject.toml"

// Load reads a project configuration file into a raw nested mapping. The
// format is chosen by extension: .toml, .yaml or .yml.
func Load(configPath string) (map[string]any, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	raw, err := Parse(data, filepath.Ext(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
	}
	return raw, nil
}

// Parse decodes data in the format named by ext (".toml", ".yaml", ".yml").
func Parse(data []byte, ext string) (map[string]any, error) {
	raw := map[string]any{}
	switch strings.ToLower(ext) {
	case ".toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		if raw == nil {
			raw = map[string]any{}
		}
	default:
		return nil, fmt.Errorf("unsupported configuration format %q", ext)
	}
	return raw, nil
}
