package builder

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/distbuilder/internal/config"
	dberrors "git.home.luguber.info/inful/distbuilder/internal/errors"
	"git.home.luguber.info/inful/distbuilder/internal/files"
	"git.home.luguber.info/inful/distbuilder/internal/logfields"
	"git.home.luguber.info/inful/distbuilder/internal/metadata"
	"git.home.luguber.info/inful/distbuilder/internal/metrics"
	"git.home.luguber.info/inful/distbuilder/internal/plugin"
	"git.home.luguber.info/inful/distbuilder/internal/plugin/builtin"
)

// Builder builds the distributions of one project for one target.
type Builder struct {
	root       string
	target     string
	configPath string
	raw        map[string]any

	logger   *slog.Logger
	recorder metrics.Recorder
	registry *plugin.Registry

	accessor  *config.Accessor
	meta      *metadata.ProjectMetadata
	projectID string
	settings  *config.BuildSettings
}

// New creates a builder for the project at root. Relative roots are made
// absolute. The configuration is read from root/pyproject.toml on first use
// unless WithConfig or WithConfigFile says otherwise.
func New(root string) *Builder {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Builder{
		root:       root,
		configPath: filepath.Join(root, config.DefaultProjectFile),
		logger:     slog.Default(),
		recorder:   metrics.NoopRecorder{},
	}
}

// WithTarget selects the target to build.
func (b *Builder) WithTarget(name string) *Builder {
	b.target = name
	return b
}

// WithConfig supplies the raw configuration instead of reading it from disk.
// The mapping is used as is, not copied.
func (b *Builder) WithConfig(raw map[string]any) *Builder {
	b.raw = raw
	return b
}

// WithConfigFile reads the configuration from path instead of the default
// project file.
func (b *Builder) WithConfigFile(path string) *Builder {
	b.configPath = path
	return b
}

// WithRegistry injects the plugin registry.
func (b *Builder) WithRegistry(r *plugin.Registry) *Builder {
	b.registry = r
	return b
}

// WithRecorder sets the metrics recorder. Nil restores the no-op recorder.
func (b *Builder) WithRecorder(r metrics.Recorder) *Builder {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	b.recorder = r
	return b
}

// WithLogger sets the logger.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	if l != nil {
		b.logger = l
	}
	return b
}

// Root returns the absolute project root.
func (b *Builder) Root() string { return b.root }

// Target returns the selected target name, possibly empty.
func (b *Builder) Target() string { return b.target }

// Registry returns the plugin registry, creating the built-in one on first
// use when none was injected.
func (b *Builder) Registry() *plugin.Registry {
	if b.registry == nil {
		b.registry = builtin.NewRegistry()
	}
	return b.registry
}

// RawConfig returns the raw configuration. When none was supplied it is read
// once from the configuration file; a missing file yields an empty mapping.
func (b *Builder) RawConfig() (map[string]any, error) {
	if b.raw != nil {
		return b.raw, nil
	}
	if _, err := os.Stat(b.configPath); errors.Is(err, fs.ErrNotExist) {
		b.raw = map[string]any{}
		return b.raw, nil
	}
	raw, err := config.Load(b.configPath)
	if err != nil {
		return nil, dberrors.Wrap(err, dberrors.CategoryConfig, dberrors.SeverityFatal,
			fmt.Sprintf("failed to load %s", b.configPath))
	}
	b.raw = raw
	return b.raw, nil
}

// Config returns the accessor over the raw configuration.
func (b *Builder) Config() (*config.Accessor, error) {
	if b.accessor != nil {
		return b.accessor, nil
	}
	raw, err := b.RawConfig()
	if err != nil {
		return nil, err
	}
	b.accessor = config.NewAccessor(raw)
	return b.accessor, nil
}

// ProjectConfig returns the `project` table.
func (b *Builder) ProjectConfig() (map[string]any, error) {
	a, err := b.Config()
	if err != nil {
		return nil, err
	}
	return a.Project()
}

// BackendConfig returns the `tool.hatch` table.
func (b *Builder) BackendConfig() (map[string]any, error) {
	a, err := b.Config()
	if err != nil {
		return nil, err
	}
	return a.Settings()
}

// BuildConfig returns the validated build table.
func (b *Builder) BuildConfig() (map[string]any, error) {
	a, err := b.Config()
	if err != nil {
		return nil, err
	}
	return a.Build()
}

// TargetConfig returns the validated table of the selected target. With no
// target selected it is an empty table.
func (b *Builder) TargetConfig() (map[string]any, error) {
	if b.target == "" {
		return map[string]any{}, nil
	}
	a, err := b.Config()
	if err != nil {
		return nil, err
	}
	if _, err := a.Build(); err != nil {
		return nil, err
	}
	return a.Target(b.target)
}

// Metadata returns the project metadata view, reading it on first use.
func (b *Builder) Metadata() (*metadata.ProjectMetadata, error) {
	if b.meta != nil {
		return b.meta, nil
	}
	return b.loadMetadata()
}

// loadMetadata rebuilds the metadata view from the current `project` table.
func (b *Builder) loadMetadata() (*metadata.ProjectMetadata, error) {
	a, err := b.Config()
	if err != nil {
		return nil, err
	}
	m, err := metadata.FromConfig(a)
	if err != nil {
		return nil, err
	}
	b.meta = m
	return b.meta, nil
}

// ProjectID returns the normalized `<name>-<version>` identifier.
func (b *Builder) ProjectID() (string, error) {
	if b.projectID != "" {
		return b.projectID, nil
	}
	m, err := b.Metadata()
	if err != nil {
		return "", err
	}
	id, err := m.ProjectID()
	if err != nil {
		return "", err
	}
	b.projectID = id
	return id, nil
}

// BuildSettings returns the typed build settings of the selected target.
func (b *Builder) BuildSettings() (*config.BuildSettings, error) {
	if b.settings != nil {
		return b.settings, nil
	}
	a, err := b.Config()
	if err != nil {
		return nil, err
	}
	s, err := a.BuildSettings(b.target)
	if err != nil {
		return nil, err
	}
	b.settings = s
	return s, nil
}

// BuildHooks resolves every configured build hook. Resolution is
// all-or-nothing: one unknown name fails the whole set.
func (b *Builder) BuildHooks() ([]plugin.BuildHook, error) {
	s, err := b.BuildSettings()
	if err != nil {
		return nil, err
	}
	return b.Registry().BuildHooks(s.HookNames())
}

// Files returns the file records of the selected target, without any
// contributions from build hooks. Configuration errors end the sequence.
func (b *Builder) Files() iter.Seq2[files.FileRecord, error] {
	return func(yield func(files.FileRecord, error) bool) {
		s, err := b.BuildSettings()
		if err != nil {
			yield(files.FileRecord{}, err)
			return
		}
		opts := files.FromSettings(b.root, s)
		opts.Logger = b.logger
		r, err := files.NewResolver(opts)
		if err != nil {
			yield(files.FileRecord{}, err)
			return
		}
		for rec, err := range r.Files() {
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}

// Clean removes the selected target's artifacts of this project from
// outputDir: those of versions, or of every supported version when none are
// given. Unknown versions fail like they do for Build.
func (b *Builder) Clean(outputDir string, versions []string) error {
	if b.target == "" {
		return nil
	}
	t, err := b.Registry().Target(b.target)
	if err != nil {
		return err
	}
	c, ok := t.(plugin.Cleaner)
	if !ok {
		return nil
	}
	selected, err := selectVersions(b.target, t.Versions(), versions)
	if err != nil {
		return err
	}
	id, err := b.ProjectID()
	if err != nil {
		return err
	}
	b.logger.Debug("Cleaning artifacts", logfields.Target(b.target), logfields.Path(outputDir),
		logfields.ProjectID(id))
	return c.Clean(outputDir, id, selected)
}
