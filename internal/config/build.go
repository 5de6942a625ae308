package config

import (
	"slices"
	"strings"

	dberrors "git.home.luguber.info/inful/distbuilder/internal/errors"
)

// DefaultVersionSource is used when a target does not name one.
const DefaultVersionSource = "declared"

// BuildSettings is the validated, typed view of the build table merged with
// one target's table. Target-level values replace build-level values key by key;
// hooks are merged by name with the target's configuration winning.
type BuildSettings struct {
	Target        string
	Packages      []string
	Include       []string
	Exclude       []string
	Artifacts     []string
	ForceInclude  map[string]string
	Sources       map[string]string
	IgnoreVCS     bool
	Versions      []string
	VersionSource string
	Hooks         []HookSettings
}

// HookSettings is the configuration table of one build hook.
type HookSettings struct {
	Name   string
	Config map[string]any
}

// HookNames returns the hook names in resolution order.
func (s *BuildSettings) HookNames() []string {
	names := make([]string, 0, len(s.Hooks))
	for _, h := range s.Hooks {
		names = append(names, h.Name)
	}
	return names
}

type level struct {
	table map[string]any
	path  []string
}

func (l level) field(key string) string {
	return Dotted(append(slices.Clone(l.path), key)...)
}

// BuildSettings reads and validates the build configuration for target. An
// empty target yields the build-level settings only.
func (a *Accessor) BuildSettings(target string) (*BuildSettings, error) {
	build, err := a.Build()
	if err != nil {
		return nil, err
	}
	levels := []level{{table: build, path: BuildPath()}}
	if target != "" {
		if _, err := a.Table(append(BuildPath(), "targets")...); err != nil {
			return nil, err
		}
		t, err := a.Target(target)
		if err != nil {
			return nil, err
		}
		levels = append(levels, level{table: t, path: TargetPath(target)})
	}

	s := &BuildSettings{Target: target, VersionSource: DefaultVersionSource}

	arrays := []struct {
		key  string
		kind string
		dst  *[]string
	}{
		{"packages", "Package", &s.Packages},
		{"include", "Pattern", &s.Include},
		{"exclude", "Pattern", &s.Exclude},
		{"artifacts", "Pattern", &s.Artifacts},
	}
	for _, arr := range arrays {
		for _, l := range levels {
			v, ok, err := StringArray(l.table, arr.key, l.field(arr.key), arr.kind)
			if err != nil {
				return nil, err
			}
			if ok {
				*arr.dst = v
			}
		}
	}

	for _, l := range levels {
		if v, ok, err := StringMap(l.table, "force-include", l.field("force-include")); err != nil {
			return nil, err
		} else if ok {
			s.ForceInclude = v
		}
		if v, ok, err := StringMap(l.table, "sources", l.field("sources")); err != nil {
			return nil, err
		} else if ok {
			s.Sources = v
		}
		if v, ok, err := Bool(l.table, "ignore-vcs", l.field("ignore-vcs")); err != nil {
			return nil, err
		} else if ok {
			s.IgnoreVCS = v
		}
	}

	for _, p := range s.Packages {
		if strings.TrimSpace(p) == "" {
			return nil, dberrors.Newf(dberrors.CategoryConfig, "Package in field `%s` cannot be an empty string",
				levels[len(levels)-1].field("packages"))
		}
	}

	if target != "" {
		tl := levels[len(levels)-1]
		if v, ok, err := StringArray(tl.table, "versions", tl.field("versions"), "Version"); err != nil {
			return nil, err
		} else if ok {
			s.Versions = v
		}
		if v, ok, err := String(tl.table, "version-source", tl.field("version-source")); err != nil {
			return nil, err
		} else if ok && v != "" {
			s.VersionSource = v
		}
	}

	hooks, err := a.hooks(levels)
	if err != nil {
		return nil, err
	}
	s.Hooks = hooks
	return s, nil
}

// hooks merges the hook tables of every level. Go maps carry no declaration
// order: hooks named in `hook-order` run first, in that order, and the rest
// follow in name order.
func (a *Accessor) hooks(levels []level) ([]HookSettings, error) {
	merged := make(map[string]map[string]any)
	var order []string
	orderField := ""
	for _, l := range levels {
		if v, ok, err := StringArray(l.table, "hook-order", l.field("hook-order"), "Hook"); err != nil {
			return nil, err
		} else if ok {
			order, orderField = v, l.field("hook-order")
		}
		if _, present := l.table["hooks"]; !present {
			continue
		}
		hooksPath := append(slices.Clone(l.path), "hooks")
		table, err := a.Table(hooksPath...)
		if err != nil {
			return nil, err
		}
		for name := range table {
			cfg, err := a.Table(append(slices.Clone(hooksPath), name)...)
			if err != nil {
				return nil, err
			}
			merged[name] = cfg
		}
	}

	names := make([]string, 0, len(merged))
	for _, name := range order {
		if _, ok := merged[name]; !ok {
			return nil, dberrors.Newf(dberrors.CategoryConfig,
				"Hook `%s` in field `%s` is not configured", name, orderField)
		}
		if slices.Contains(names, name) {
			return nil, dberrors.Newf(dberrors.CategoryConfig,
				"Hook `%s` is listed more than once in field `%s`", name, orderField)
		}
		names = append(names, name)
	}
	var rest []string
	for name := range merged {
		if !slices.Contains(names, name) {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	names = append(names, rest...)

	out := make([]HookSettings, 0, len(names))
	for _, name := range names {
		out = append(out, HookSettings{Name: name, Config: merged[name]})
	}
	return out, nil
}
