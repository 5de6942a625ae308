package plugin

import (
	"cmp"
	"slices"
	"sync"

	dberrors "git.home.luguber.info/inful/distbuilder/internal/errors"
)

// Registry manages plugin registration and lookup. Lookups are exact and
// case-sensitive. Reads are safe for concurrent use; register plugins before
// builds start.
type Registry struct {
	mu      sync.RWMutex
	plugins map[PluginType]map[string]Plugin // map[type]map[name]Plugin
}

// NewRegistry creates a new empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		plugins: make(map[PluginType]map[string]Plugin),
	}
}

// Register adds a plugin to the registry.
// Returns an error if a plugin of the same type and name already exists, or
// if the plugin does not implement the interface of its declared type.
func (r *Registry) Register(plugin Plugin) error {
	if plugin == nil {
		return dberrors.Newf(dberrors.CategoryPlugin, "cannot register nil plugin")
	}

	metadata := plugin.Metadata()
	if err := metadata.Validate(); err != nil {
		return dberrors.Wrap(err, dberrors.CategoryPlugin, dberrors.SeverityFatal, "invalid plugin metadata")
	}
	if !implements(plugin, metadata.Type) {
		return dberrors.Newf(dberrors.CategoryPlugin, "plugin %s does not implement the %s interface", metadata.Name, metadata.Type)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.plugins[metadata.Type] == nil {
		r.plugins[metadata.Type] = make(map[string]Plugin)
	}

	if _, exists := r.plugins[metadata.Type][metadata.Name]; exists {
		return dberrors.Newf(dberrors.CategoryPlugin, "%s plugin %s already registered", metadata.Type, metadata.Name)
	}

	r.plugins[metadata.Type][metadata.Name] = plugin
	return nil
}

// MustRegister registers every plugin and panics on the first failure.
// Intended for assembling built-in registries.
func (r *Registry) MustRegister(plugins ...Plugin) *Registry {
	for _, p := range plugins {
		if err := r.Register(p); err != nil {
			panic(err)
		}
	}
	return r
}

// Get retrieves a plugin by type and name.
func (r *Registry) Get(pluginType PluginType, name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plugins[pluginType][name]
	return p, ok
}

// BuildHook retrieves a build hook by name.
func (r *Registry) BuildHook(name string) (BuildHook, error) {
	p, ok := r.Get(PluginTypeBuildHook, name)
	if !ok {
		return nil, dberrors.UnknownBuildHook(name)
	}
	return p.(BuildHook), nil
}

// BuildHooks resolves every named hook, in the given order. Either all
// hooks resolve or none are returned.
func (r *Registry) BuildHooks(names []string) ([]BuildHook, error) {
	hooks := make([]BuildHook, 0, len(names))
	for _, name := range names {
		h, err := r.BuildHook(name)
		if err != nil {
			return nil, err
		}
		hooks = append(hooks, h)
	}
	return hooks, nil
}

// Target retrieves a packaging target by name.
func (r *Registry) Target(name string) (Target, error) {
	p, ok := r.Get(PluginTypeTarget, name)
	if !ok {
		return nil, dberrors.UnknownTarget(name)
	}
	return p.(Target), nil
}

// VersionSource retrieves a version source by name.
func (r *Registry) VersionSource(name string) (VersionSource, error) {
	p, ok := r.Get(PluginTypeVersionSource, name)
	if !ok {
		return nil, dberrors.UnknownVersionSource(name)
	}
	return p.(VersionSource), nil
}

// List returns the metadata of every registered plugin, ordered by type then
// name.
func (r *Registry) List() []PluginMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []PluginMetadata
	for _, byName := range r.plugins {
		for _, plugin := range byName {
			result = append(result, plugin.Metadata())
		}
	}
	slices.SortFunc(result, func(a, b PluginMetadata) int {
		return cmp.Or(cmp.Compare(a.Type, b.Type), cmp.Compare(a.Name, b.Name))
	})
	return result
}

// ListByType returns all plugins of a specific type, ordered by name.
func (r *Registry) ListByType(pluginType PluginType) []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byName := r.plugins[pluginType]
	result := make([]Plugin, 0, len(byName))
	for _, plugin := range byName {
		result = append(result, plugin)
	}
	slices.SortFunc(result, func(a, b Plugin) int {
		return cmp.Compare(a.Metadata().Name, b.Metadata().Name)
	})
	return result
}

// Has checks if a plugin of the given type and name exists.
func (r *Registry) Has(pluginType PluginType, name string) bool {
	_, ok := r.Get(pluginType, name)
	return ok
}

// Unregister removes a plugin from the registry.
func (r *Registry) Unregister(pluginType PluginType, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byName, ok := r.plugins[pluginType]
	if !ok {
		return dberrors.Newf(dberrors.CategoryPlugin, "%s plugin %s not found", pluginType, name)
	}
	if _, ok := byName[name]; !ok {
		return dberrors.Newf(dberrors.CategoryPlugin, "%s plugin %s not found", pluginType, name)
	}

	delete(byName, name)
	if len(byName) == 0 {
		delete(r.plugins, pluginType)
	}
	return nil
}

// Count returns the total number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, byName := range r.plugins {
		count += len(byName)
	}
	return count
}
