// Package plugin defines the build plugin contracts (version sources, build
// hooks and packaging targets) and the registry that resolves them by name.
package plugin

import (
	"fmt"
)

// Plugin is a named, kind-typed object held by a Registry.
type Plugin interface {
	// Metadata returns the plugin's metadata (name, version, type).
	Metadata() PluginMetadata

	// Validate checks a configuration table before the plugin is used with it.
	Validate(config map[string]any) error
}

// PluginMetadata describes a plugin's identity.
type PluginMetadata struct {
	// Name is the lookup key within the plugin's type (e.g., "zip", "version-file").
	Name string

	// Version is the plugin's own version (e.g., "v1.0.0").
	Version string

	// Type identifies the plugin kind.
	Type PluginType

	// Description provides a human-readable summary of the plugin's purpose.
	Description string
}

// String returns a human-readable representation of the plugin metadata.
func (m PluginMetadata) String() string {
	return fmt.Sprintf("%s@%s (%s)", m.Name, m.Version, m.Type)
}

// Validate checks if the plugin metadata is valid.
func (m PluginMetadata) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("plugin name is required")
	}
	if m.Version == "" {
		return fmt.Errorf("plugin version is required")
	}
	if !m.Type.IsValid() {
		return fmt.Errorf("invalid plugin type: %s", m.Type)
	}
	return nil
}

// BasePlugin provides default implementations for optional plugin methods.
type BasePlugin struct{}

// Validate is a no-op default implementation that accepts any configuration.
func (b *BasePlugin) Validate(config map[string]any) error {
	return nil
}
