package pattern

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dberrors "git.home.luguber.info/inful/distbuilder/internal/errors"
)

func TestSpec_Match(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		path     string
		isDir    bool
		want     bool
	}{
		{"bare name matches any level", []string{"foo"}, "src/foo", true, true},
		{"bare name matches nested file", []string{"foo"}, "foo/bar.txt", false, true},
		{"anchored", []string{"/dist"}, "dist", true, true},
		{"anchored does not match nested", []string{"/dist"}, "src/dist", true, false},
		{"double star", []string{"**/foo/baz.txt"}, "src/foo/baz.txt", false, true},
		{"double star sibling", []string{"**/foo/baz.txt"}, "src/foo/bar.txt", false, false},
		{"extension", []string{"*.pyc"}, "a/b/c.pyc", false, true},
		{"dir only skips file", []string{"build/"}, "build", false, false},
		{"dir only matches dir", []string{"build/"}, "build", true, true},
		{"dir only matches contents", []string{"build/"}, "build/x.txt", false, true},
		{"negation wins when later", []string{"*.txt", "!keep.txt"}, "keep.txt", false, false},
		{"comment ignored", []string{"# foo"}, "# foo", false, false},
		{"no patterns", nil, "anything", false, false},
		{"leading slash in path", []string{"README.md"}, "/README.md", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Compile("tool.hatch.build.include", tt.patterns)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Match(tt.path, tt.isDir))
		})
	}
}

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile("tool.hatch.build.exclude", []string{"ok", "src/[abc"})
	require.Error(t, err)
	assert.EqualError(t, err, "Invalid pattern `src/[abc` in field `tool.hatch.build.exclude`")
	assert.True(t, dberrors.IsCategory(err, dberrors.CategoryConfig))
}

func TestSpec_NilAndEmpty(t *testing.T) {
	var s *Spec
	assert.True(t, s.Empty())
	assert.False(t, s.Match("foo", false))
	assert.Nil(t, s.Patterns())

	s = MustCompile("", "  ", "# only comments")
	assert.True(t, s.Empty())
}

func TestSpec_Patterns(t *testing.T) {
	s := MustCompile("a", "# skipped", "b/")
	assert.Equal(t, []string{"a", "b/"}, s.Patterns())
}

func TestReadVCSIgnore(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.log\n/out\n"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", ".gitignore"), []byte("local.txt\n"), 0o600))

	ps, err := ReadVCSIgnore(root)
	require.NoError(t, err)

	s := MustCompile("!keep.log").Prepend(ps...)
	assert.True(t, s.Match("debug.log", false))
	assert.True(t, s.Match("sub/deep/x.log", false))
	assert.True(t, s.Match("out", true))
	assert.True(t, s.Match("sub/local.txt", false))
	assert.False(t, s.Match("local.txt", false), "nested .gitignore is scoped to its directory")
	assert.False(t, s.Match("keep.log", false), "own patterns override ignore files")
}

func TestReadVCSIgnore_NoFiles(t *testing.T) {
	ps, err := ReadVCSIgnore(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, ps)
}
