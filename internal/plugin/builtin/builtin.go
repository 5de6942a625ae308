// Package builtin assembles the registry of plugins that ship with the
// build backend.
package builtin

import (
	"git.home.luguber.info/inful/distbuilder/internal/plugin"
	"git.home.luguber.info/inful/distbuilder/internal/plugin/hooks/versionfile"
	"git.home.luguber.info/inful/distbuilder/internal/plugin/targets/ziptarget"
)

// NewRegistry returns a fresh registry holding the built-in plugins: the
// `declared` version source, the `version-file` build hook and the `zip`
// target.
func NewRegistry() *plugin.Registry {
	return plugin.NewRegistry().MustRegister(
		plugin.NewDeclared(),
		versionfile.New(),
		ziptarget.New(),
	)
}
