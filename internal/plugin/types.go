package plugin

import (
	"context"

	"git.home.luguber.info/inful/distbuilder/internal/files"
)

// PluginType identifies the kind of plugin.
type PluginType string

const (
	// PluginTypeVersionSource enumerates the versions a target builds.
	PluginTypeVersionSource PluginType = "version-source"

	// PluginTypeBuildHook runs side-effecting preparation before packaging.
	PluginTypeBuildHook PluginType = "build-hook"

	// PluginTypeTarget packs resolved files into an artifact.
	PluginTypeTarget PluginType = "target"
)

// IsValid returns true if the plugin type is recognized.
func (t PluginType) IsValid() bool {
	switch t {
	case PluginTypeVersionSource, PluginTypeBuildHook, PluginTypeTarget:
		return true
	default:
		return false
	}
}

// String returns the string representation of the plugin type.
func (t PluginType) String() string {
	return string(t)
}

// VersionSource declares, in order, the versions a target should build.
type VersionSource interface {
	Plugin

	// AvailableVersions returns the versions of target to build given the
	// target's configuration table.
	AvailableVersions(target Target, config map[string]any) ([]string, error)
}

// BuildHook runs before a target packs one version. Hooks may record data
// and contribute artifact patterns or force-include entries to bc.
type BuildHook interface {
	Plugin

	Run(ctx context.Context, bc *BuildContext, config map[string]any) error
}

// Target turns resolved file records into an artifact.
type Target interface {
	Plugin

	// Versions lists, in order, every version the target can produce.
	Versions() []string

	// Pack writes one artifact into bc.OutputDir and returns its path.
	Pack(ctx context.Context, records []files.FileRecord, bc *BuildContext) (string, error)
}

// Cleaner is implemented by targets that can remove their prior artifacts.
// Only the artifacts of projectID for the given versions are removed; no
// versions means every version the target supports.
type Cleaner interface {
	Clean(outputDir, projectID string, versions []string) error
}

// implements reports whether p satisfies the interface of kind t.
func implements(p Plugin, t PluginType) bool {
	switch t {
	case PluginTypeVersionSource:
		_, ok := p.(VersionSource)
		return ok
	case PluginTypeBuildHook:
		_, ok := p.(BuildHook)
		return ok
	case PluginTypeTarget:
		_, ok := p.(Target)
		return ok
	default:
		return false
	}
}
