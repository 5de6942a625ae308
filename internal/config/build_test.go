package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildRaw(build map[string]any) map[string]any {
	return map[string]any{"tool": map[string]any{"hatch": map[string]any{"build": build}}}
}

func TestBuildSettings_Defaults(t *testing.T) {
	s, err := NewAccessor(nil).BuildSettings("zip")
	require.NoError(t, err)

	assert.Equal(t, "zip", s.Target)
	assert.Equal(t, DefaultVersionSource, s.VersionSource)
	assert.Nil(t, s.Versions)
	assert.Empty(t, s.Include)
	assert.Empty(t, s.Hooks)
	assert.False(t, s.IgnoreVCS)
}

func TestBuildSettings_TargetOverridesBuild(t *testing.T) {
	raw := buildRaw(map[string]any{
		"include":       []any{"src", "README.md"},
		"exclude":       []any{"*.log"},
		"packages":      []any{"src/foo"},
		"force-include": map[string]any{"../LICENSE": "LICENSE"},
		"ignore-vcs":    true,
		"targets": map[string]any{
			"zip": map[string]any{
				"include":        []any{"docs"},
				"versions":       []any{"standard"},
				"version-source": "custom",
				"ignore-vcs":     false,
			},
		},
	})

	s, err := NewAccessor(raw).BuildSettings("zip")
	require.NoError(t, err)

	assert.Equal(t, []string{"docs"}, s.Include)
	assert.Equal(t, []string{"*.log"}, s.Exclude)
	assert.Equal(t, []string{"src/foo"}, s.Packages)
	assert.Equal(t, map[string]string{"../LICENSE": "LICENSE"}, s.ForceInclude)
	assert.Equal(t, []string{"standard"}, s.Versions)
	assert.Equal(t, "custom", s.VersionSource)
	assert.False(t, s.IgnoreVCS)
}

func TestBuildSettings_HooksMergedInNameOrder(t *testing.T) {
	raw := buildRaw(map[string]any{
		"hooks": map[string]any{
			"zeta":  map[string]any{"a": 1},
			"alpha": map[string]any{"b": 2},
		},
		"targets": map[string]any{
			"zip": map[string]any{
				"hooks": map[string]any{
					"alpha": map[string]any{"b": 3},
					"mid":   map[string]any{},
				},
			},
		},
	})

	s, err := NewAccessor(raw).BuildSettings("zip")
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, s.HookNames())
	assert.Equal(t, 3, s.Hooks[0].Config["b"])
}

func TestBuildSettings_HookOrder(t *testing.T) {
	raw := buildRaw(map[string]any{
		"hook-order": []any{"zeta"},
		"hooks": map[string]any{
			"zeta":  map[string]any{},
			"alpha": map[string]any{},
			"beta":  map[string]any{},
		},
		"targets": map[string]any{
			"zip": map[string]any{"hook-order": []any{"zeta", "beta"}},
		},
	})
	acc := NewAccessor(raw)

	s, err := acc.BuildSettings("")
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "beta"}, s.HookNames())

	s, err = acc.BuildSettings("zip")
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "beta", "alpha"}, s.HookNames())
}

func TestBuildSettings_TypeErrors(t *testing.T) {
	tests := []struct {
		name  string
		build map[string]any
		want  string
	}{
		{"include not array", map[string]any{"include": "src"}, "Field `tool.hatch.build.include` must be an array"},
		{"pattern not string", map[string]any{"exclude": []any{"a", 5}}, "Pattern #2 in field `tool.hatch.build.exclude` must be a string"},
		{"package not string", map[string]any{"packages": []any{true}}, "Package #1 in field `tool.hatch.build.packages` must be a string"},
		{"force-include not table", map[string]any{"force-include": []any{}}, "Field `tool.hatch.build.force-include` must be a table"},
		{"force-include value", map[string]any{"force-include": map[string]any{"a": 1}},
			"Path for source `a` in field `tool.hatch.build.force-include` must be a string"},
		{"ignore-vcs", map[string]any{"ignore-vcs": "yes"}, "Field `tool.hatch.build.ignore-vcs` must be a boolean"},
		{"hooks not table", map[string]any{"hooks": "x"}, "Field `tool.hatch.build.hooks` must be a table"},
		{"hook not table", map[string]any{"hooks": map[string]any{"x": 1}}, "Field `tool.hatch.build.hooks.x` must be a table"},
		{"targets not table", map[string]any{"targets": 1}, "Field `tool.hatch.build.targets` must be a table"},
		{"hook-order not array", map[string]any{"hook-order": "x"}, "Field `tool.hatch.build.hook-order` must be an array"},
		{"hook-order unknown", map[string]any{"hook-order": []any{"x"}},
			"Hook `x` in field `tool.hatch.build.hook-order` is not configured"},
		{"hook-order repeated", map[string]any{"hook-order": []any{"x", "x"}, "hooks": map[string]any{"x": map[string]any{}}},
			"Hook `x` is listed more than once in field `tool.hatch.build.hook-order`"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAccessor(buildRaw(tt.build)).BuildSettings("zip")
			assert.EqualError(t, err, tt.want)
		})
	}
}

func TestBuildSettings_VersionsTypeError(t *testing.T) {
	raw := buildRaw(map[string]any{"targets": map[string]any{"zip": map[string]any{"versions": "standard"}}})
	_, err := NewAccessor(raw).BuildSettings("zip")
	assert.EqualError(t, err, "Field `tool.hatch.build.targets.zip.versions` must be an array")
}
