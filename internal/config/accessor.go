package config

import (
	"strings"

	dberrors "git.home.luguber.info/inful/distbuilder/internal/errors"
)

// Namespace is the key under `tool` that holds the build backend's settings.
const Namespace = "hatch"

// Root keys of the project configuration that are looked up, never created.
const (
	KeyProject = "project"
	KeyTool    = "tool"
)

// Accessor provides typed, memoized access into a nested raw configuration.
//
// Tables below the fixed root keys that are missing are created on first
// access and inserted into their parent, so the caller's map and the
// accessor's view stay consistent under in-process mutation. Repeated reads
// return the same underlying map.
type Accessor struct {
	raw    map[string]any
	tables map[string]map[string]any
}

// NewAccessor wraps raw. A nil raw configuration is replaced by an empty one.
func NewAccessor(raw map[string]any) *Accessor {
	if raw == nil {
		raw = map[string]any{}
	}
	return &Accessor{
		raw:    raw,
		tables: make(map[string]map[string]any),
	}
}

// Raw returns the root configuration mapping.
func (a *Accessor) Raw() map[string]any {
	return a.raw
}

// Project returns the `project` table.
func (a *Accessor) Project() (map[string]any, error) {
	return a.Table(KeyProject)
}

// Tool returns the `tool` table.
func (a *Accessor) Tool() (map[string]any, error) {
	return a.Table(KeyTool)
}

// Settings returns the `tool.<Namespace>` table.
func (a *Accessor) Settings() (map[string]any, error) {
	return a.Table(KeyTool, Namespace)
}

// Build returns the `tool.<Namespace>.build` table.
func (a *Accessor) Build() (map[string]any, error) {
	return a.Table(BuildPath()...)
}

// Target returns the `tool.<Namespace>.build.targets.<name>` table.
func (a *Accessor) Target(name string) (map[string]any, error) {
	return a.Table(TargetPath(name)...)
}

// Table returns the table at path, failing with a config error naming the
// dotted path when an existing value there is not a table.
func (a *Accessor) Table(path ...string) (map[string]any, error) {
	if len(path) == 0 {
		return a.raw, nil
	}

	dotted := strings.Join(path, ".")
	if t, ok := a.tables[dotted]; ok {
		return t, nil
	}

	var table map[string]any
	if len(path) == 1 {
		t, err := a.fixed(path[0])
		if err != nil {
			return nil, err
		}
		table = t
	} else {
		parent, err := a.Table(path[:len(path)-1]...)
		if err != nil {
			return nil, err
		}
		key := path[len(path)-1]
		value, present := parent[key]
		switch {
		case !present:
			table = map[string]any{}
			parent[key] = table
		default:
			t, ok := asTable(value)
			if !ok {
				return nil, dberrors.NotTable(dotted)
			}
			table = t
		}
	}

	a.tables[dotted] = table
	return table, nil
}

// fixed looks up a root key without inserting it when absent.
func (a *Accessor) fixed(key string) (map[string]any, error) {
	value, present := a.raw[key]
	if !present {
		return map[string]any{}, nil
	}
	t, ok := asTable(value)
	if !ok {
		return nil, dberrors.NotTable(key)
	}
	return t, nil
}

// BuildPath is the path of the build table.
func BuildPath() []string {
	return []string{KeyTool, Namespace, "build"}
}

// TargetPath is the path of a target's table.
func TargetPath(name string) []string {
	return append(BuildPath(), "targets", name)
}

// Dotted joins path segments into the form used in error messages.
func Dotted(path ...string) string {
	return strings.Join(path, ".")
}

func asTable(v any) (map[string]any, bool) {
	t, ok := v.(map[string]any)
	return t, ok
}
