package plugin

import (
	"slices"
	"strings"

	"git.home.luguber.info/inful/distbuilder/internal/config"
	dberrors "git.home.luguber.info/inful/distbuilder/internal/errors"
)

// DeclaredName is the name of the default version source.
const DeclaredName = config.DefaultVersionSource

// Declared is the default version source: the target table's `versions`
// when set, otherwise every version the target supports.
type Declared struct {
	BasePlugin
}

// NewDeclared returns the declared version source.
func NewDeclared() *Declared { return &Declared{} }

func (d *Declared) Metadata() PluginMetadata {
	return PluginMetadata{
		Name:        DeclaredName,
		Version:     "v1.0.0",
		Type:        PluginTypeVersionSource,
		Description: "Versions declared in the target configuration",
	}
}

// AvailableVersions returns the configured versions in configuration order,
// spelled as the target spells them. Configured versions the target cannot
// produce fail with the unknown-versions error.
func (d *Declared) AvailableVersions(target Target, cfg map[string]any) ([]string, error) {
	name := target.Metadata().Name
	supported := target.Versions()

	field := config.Dotted(append(config.TargetPath(name), "versions")...)
	configured, _, err := config.StringArray(cfg, "versions", field, "Version")
	if err != nil {
		return nil, err
	}
	if len(configured) == 0 {
		return slices.Clone(supported), nil
	}

	var out, unknown []string
	for _, v := range configured {
		i := slices.IndexFunc(supported, func(s string) bool { return strings.EqualFold(s, v) })
		if i < 0 {
			unknown = append(unknown, v)
			continue
		}
		if !slices.Contains(out, supported[i]) {
			out = append(out, supported[i])
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return nil, dberrors.UnknownVersions(name, slices.Compact(unknown))
	}
	return out, nil
}
