package plugin

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/distbuilder/internal/logfields"
	"git.home.luguber.info/inful/distbuilder/internal/metadata"
)

// BuildContext carries the state of one (target, version) build step. It is
// created fresh for every version and discarded once the artifact is packed;
// nothing in it is shared between versions.
type BuildContext struct {
	// ID uniquely identifies this build step.
	ID string

	Target  string
	Version string

	// OutputDir is where the target writes its artifact.
	OutputDir string

	// Root is the absolute project root.
	Root string

	// ProjectID is the normalized `<name>-<version>` identifier.
	ProjectID string

	// Metadata is the project metadata view.
	Metadata *metadata.ProjectMetadata

	// Config is the target's configuration table.
	Config map[string]any

	// Logger carries the build ID, target and version attributes.
	Logger *slog.Logger

	// Data is a map for hooks and targets to share data during the build step.
	Data map[string]any

	// Artifacts and ForceInclude are contributed by hooks and apply to file
	// resolution for this build step only.
	Artifacts    []string
	ForceInclude map[string]string
}

// NewBuildContext creates a build context with a fresh ID.
func NewBuildContext(logger *slog.Logger, root, outputDir, target, version string) *BuildContext {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	return &BuildContext{
		ID:           id,
		Target:       target,
		Version:      version,
		OutputDir:    outputDir,
		Root:         root,
		Logger:       logger.With(logfields.BuildID(id), logfields.Target(target), logfields.Version(version)),
		Data:         make(map[string]any),
		ForceInclude: make(map[string]string),
	}
}

// AddArtifacts adds artifact patterns for this build step.
func (bc *BuildContext) AddArtifacts(patterns ...string) {
	for _, p := range patterns {
		if !slices.Contains(bc.Artifacts, p) {
			bc.Artifacts = append(bc.Artifacts, p)
		}
	}
}

// AddForceInclude maps source to destination for this build step.
func (bc *BuildContext) AddForceInclude(source, destination string) {
	bc.ForceInclude[source] = destination
}

// MergeForceInclude returns base overlaid with the hook-contributed entries.
func (bc *BuildContext) MergeForceInclude(base map[string]string) map[string]string {
	out := maps.Clone(base)
	if out == nil {
		out = make(map[string]string, len(bc.ForceInclude))
	}
	maps.Copy(out, bc.ForceInclude)
	return out
}

// MergeArtifacts returns base followed by the hook-contributed patterns.
func (bc *BuildContext) MergeArtifacts(base []string) []string {
	return append(slices.Clone(base), bc.Artifacts...)
}

// SetValue stores a value in the build data map.
func (bc *BuildContext) SetValue(key string, value any) {
	bc.Data[key] = value
}

// GetValue retrieves a value from the build data map.
// Returns nil if the key doesn't exist.
func (bc *BuildContext) GetValue(key string) any {
	return bc.Data[key]
}

// GetString retrieves a string value from the build data map.
// Returns empty string if the key doesn't exist or is not a string.
func (bc *BuildContext) GetString(key string) string {
	if v, ok := bc.Data[key].(string); ok {
		return v
	}
	return ""
}

// GetBool retrieves a boolean value from the build data map.
func (bc *BuildContext) GetBool(key string) bool {
	if v, ok := bc.Data[key].(bool); ok {
		return v
	}
	return false
}
