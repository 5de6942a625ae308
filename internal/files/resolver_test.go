package files

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/distbuilder/internal/config"
	dberrors "git.home.luguber.info/inful/distbuilder/internal/errors"
)

func touch(t *testing.T, parts ...string) string {
	t.Helper()
	p := filepath.Join(parts...)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(filepath.Base(p)), 0o600))
	return p
}

func resolve(t *testing.T, opts Options) []FileRecord {
	t.Helper()
	r, err := NewResolver(opts)
	require.NoError(t, err)
	recs, err := Collect(r.Files())
	require.NoError(t, err)
	return recs
}

type pair struct {
	path string
	dest string
}

func pairs(recs []FileRecord) []pair {
	out := make([]pair, 0, len(recs))
	for _, r := range recs {
		out = append(out, pair{r.Path, r.DistributionPath})
	}
	return out
}

func dests(recs []FileRecord) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, filepath.ToSlash(r.DistributionPath))
	}
	return out
}

func TestFiles_Order(t *testing.T) {
	temp := t.TempDir()
	project := filepath.Join(temp, "project")

	touch(t, project, "src", "foo", "bar.txt")
	touch(t, project, "src", "foo", "baz.txt")
	touch(t, project, "bar", "foo.txt")
	touch(t, project, "README.md")
	touch(t, project, "tox.ini")
	touch(t, temp, "external1.txt")
	touch(t, temp, "external2.txt")
	touch(t, temp, "external", "external1.txt")
	touch(t, temp, "external", "external2.txt")

	recs := resolve(t, Options{
		Root:     project,
		Packages: []string{"src/foo"},
		Include:  []string{"bar", "README.md", "tox.ini"},
		Exclude:  []string{"**/foo/baz.txt"},
		ForceInclude: map[string]string{
			"../external1.txt": "nested/target2.txt",
			"../external2.txt": "nested/target1.txt",
			"../external":      "nested",
			"../missing":       "missing",
		},
	})

	sep := string(filepath.Separator)
	assert.Equal(t, []pair{
		{filepath.Join(project, "README.md"), "README.md"},
		{filepath.Join(project, "tox.ini"), "tox.ini"},
		{filepath.Join(project, "bar", "foo.txt"), "bar" + sep + "foo.txt"},
		{filepath.Join(project, "src", "foo", "bar.txt"), "foo" + sep + "bar.txt"},
		{filepath.Join(temp, "external", "external1.txt"), "nested" + sep + "external1.txt"},
		{filepath.Join(temp, "external", "external2.txt"), "nested" + sep + "external2.txt"},
		{filepath.Join(temp, "external2.txt"), "nested" + sep + "target1.txt"},
		{filepath.Join(temp, "external1.txt"), "nested" + sep + "target2.txt"},
	}, pairs(recs))

	for _, rec := range recs[:4] {
		assert.Equal(t, OriginProject, rec.Origin)
		assert.False(t, rec.BypassesExclude())
	}
	for _, rec := range recs[4:] {
		assert.Equal(t, OriginForceInclude, rec.Origin)
		assert.True(t, rec.BypassesExclude())
	}
}

func TestFiles_SymlinkCycle(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require elevated privileges on windows")
	}
	project := t.TempDir()
	touch(t, project, "README.md")
	touch(t, project, "foo", "bar.txt")
	require.NoError(t, os.Symlink(project, filepath.Join(project, "foo", "baz")))

	recs := resolve(t, Options{Root: project, Include: []string{"foo", "README.md"}})
	assert.Equal(t, []pair{
		{filepath.Join(project, "README.md"), "README.md"},
		{filepath.Join(project, "foo", "bar.txt"), filepath.Join("foo", "bar.txt")},
	}, pairs(recs))
}

func TestFiles_SymlinkedDirectoryVisitedOnce(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require elevated privileges on windows")
	}
	project := t.TempDir()
	touch(t, project, "a", "x.txt")
	require.NoError(t, os.Symlink(filepath.Join(project, "a"), filepath.Join(project, "b")))

	recs := resolve(t, Options{Root: project})
	assert.Equal(t, []string{"a/x.txt"}, dests(recs))
}

func TestFiles_DanglingSymlinkSkipped(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require elevated privileges on windows")
	}
	project := t.TempDir()
	touch(t, project, "ok.txt")
	require.NoError(t, os.Symlink(filepath.Join(project, "nowhere"), filepath.Join(project, "broken")))

	assert.Equal(t, []string{"ok.txt"}, dests(resolve(t, Options{Root: project})))
}

func TestFiles_NoIncludeMeansEverything(t *testing.T) {
	project := t.TempDir()
	touch(t, project, "b.txt")
	touch(t, project, "a.txt")
	touch(t, project, "z", "deep", "file")
	touch(t, project, "m", "file")
	touch(t, project, ".git", "HEAD")
	touch(t, project, "pkg", "__pycache__", "mod.pyc")
	touch(t, project, "pkg", ".DS_Store")

	assert.Equal(t, []string{"a.txt", "b.txt", "m/file", "z/deep/file"}, dests(resolve(t, Options{Root: project})))
}

func TestFiles_ExcludePrunesDirectories(t *testing.T) {
	project := t.TempDir()
	touch(t, project, "keep.txt")
	touch(t, project, "build", "out.bin")
	touch(t, project, "build", "gen.txt")

	recs := resolve(t, Options{
		Root:      project,
		Exclude:   []string{"build/"},
		Artifacts: []string{"gen.txt"},
	})
	assert.Equal(t, []string{"keep.txt"}, dests(recs), "artifacts inside pruned directories are not reached")
}

func TestFiles_ArtifactsBypassExclude(t *testing.T) {
	project := t.TempDir()
	touch(t, project, "pkg", "mod.py")
	touch(t, project, "pkg", "_version.py")
	touch(t, project, "pkg", "native.so")

	recs := resolve(t, Options{
		Root:      project,
		Include:   []string{"pkg"},
		Exclude:   []string{"*.so", "_version.py"},
		Artifacts: []string{"*.so"},
	})
	require.Equal(t, []string{"pkg/mod.py", "pkg/native.so"}, dests(recs))
	assert.Equal(t, OriginProject, recs[0].Origin)
	assert.Equal(t, OriginArtifact, recs[1].Origin)
	assert.True(t, recs[1].BypassesExclude())
}

func TestFiles_ArtifactsOutsideInclude(t *testing.T) {
	project := t.TempDir()
	touch(t, project, "pkg", "mod.py")
	touch(t, project, "generated", "data.bin")
	touch(t, project, "other.txt")

	recs := resolve(t, Options{Root: project, Include: []string{"pkg"}, Artifacts: []string{"generated/"}})
	assert.Equal(t, []string{"generated/data.bin", "pkg/mod.py"}, dests(recs))
	assert.Equal(t, OriginArtifact, recs[0].Origin)
}

func TestFiles_Sources(t *testing.T) {
	project := t.TempDir()
	touch(t, project, "src", "pkg", "a.py")
	touch(t, project, "src", "pkg", "sub", "b.py")
	touch(t, project, "lib", "c.py")

	recs := resolve(t, Options{
		Root: project,
		Sources: map[string]string{
			"src":         "",
			"src/pkg/sub": "pkg/renamed",
			"lib/":        "vendor/lib",
		},
	})
	assert.Equal(t, []string{"vendor/lib/c.py", "pkg/a.py", "pkg/renamed/b.py"}, dests(recs))
}

func TestFiles_MissingIncludeYieldsNothing(t *testing.T) {
	project := t.TempDir()
	touch(t, project, "README.md")

	recs := resolve(t, Options{Root: project, Include: []string{"does-not-exist"}, Packages: []string{"nope/pkg"}})
	assert.Empty(t, recs)
}

func TestFiles_ForceIncludeOverridesProjectFile(t *testing.T) {
	temp := t.TempDir()
	project := filepath.Join(temp, "project")
	touch(t, project, "LICENSE")
	touch(t, project, "README.md")
	external := touch(t, temp, "LICENSE.shared")

	recs := resolve(t, Options{
		Root:         project,
		ForceInclude: map[string]string{"../LICENSE.shared": "LICENSE"},
	})
	require.Equal(t, []string{"README.md", "LICENSE"}, dests(recs))
	assert.Equal(t, external, recs[1].Path)
	assert.Equal(t, OriginForceInclude, recs[1].Origin)
}

func TestFiles_ForceIncludeBypassesExcludes(t *testing.T) {
	temp := t.TempDir()
	project := filepath.Join(temp, "project")
	touch(t, project, "README.md")
	touch(t, temp, "assets", "logo.png")
	touch(t, temp, "assets", ".git", "config")

	recs := resolve(t, Options{
		Root:         project,
		Exclude:      []string{"*.png"},
		ForceInclude: map[string]string{filepath.Join(temp, "assets"): "/static/"},
	})
	assert.Equal(t, []string{"README.md", "static/logo.png"}, dests(recs))
}

func TestFiles_ForceIncludeSymlinkCycle(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require elevated privileges on windows")
	}
	temp := t.TempDir()
	project := filepath.Join(temp, "project")
	require.NoError(t, os.MkdirAll(project, 0o755))
	external := filepath.Join(temp, "external")
	touch(t, external, "a.txt")
	require.NoError(t, os.Symlink(external, filepath.Join(external, "loop")))

	recs := resolve(t, Options{Root: project, ForceInclude: map[string]string{external: "x"}})
	assert.Equal(t, []pair{{filepath.Join(external, "a.txt"), filepath.Join("x", "a.txt")}}, pairs(recs))
}

func TestFiles_ForceIncludeDuplicateDestinations(t *testing.T) {
	temp := t.TempDir()
	project := filepath.Join(temp, "project")
	require.NoError(t, os.MkdirAll(project, 0o755))
	touch(t, temp, "a", "same.txt")
	touch(t, temp, "b", "same.txt")

	recs := resolve(t, Options{
		Root: project,
		ForceInclude: map[string]string{
			"../b": "out",
			"../a": "out",
		},
	})
	require.Len(t, recs, 1)
	assert.Equal(t, filepath.Join(temp, "a", "same.txt"), recs[0].Path)
}

func TestFiles_ForceIncludeHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	touch(t, home, "shared.cfg")
	project := t.TempDir()

	recs := resolve(t, Options{Root: project, ForceInclude: map[string]string{"~/shared.cfg": "conf/shared.cfg"}})
	require.Len(t, recs, 1)
	assert.Equal(t, filepath.Join(home, "shared.cfg"), recs[0].Path)
}

func TestFiles_ForceIncludeFileWithoutDestination(t *testing.T) {
	temp := t.TempDir()
	project := filepath.Join(temp, "project")
	require.NoError(t, os.MkdirAll(project, 0o755))
	touch(t, temp, "NOTICE")

	recs := resolve(t, Options{Root: project, ForceInclude: map[string]string{"../NOTICE": ""}})
	assert.Equal(t, []string{"NOTICE"}, dests(recs))
}

func TestFiles_VCSIgnore(t *testing.T) {
	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, ".gitignore"), []byte("*.log\nsecret/\n"), 0o600))
	touch(t, project, "app.py")
	touch(t, project, "debug.log")
	touch(t, project, "secret", "key")

	assert.Equal(t, []string{".gitignore", "app.py"}, dests(resolve(t, Options{Root: project})))
	assert.Equal(t, []string{".gitignore", "app.py", "debug.log", "secret/key"},
		dests(resolve(t, Options{Root: project, IgnoreVCS: true})))
}

func TestFiles_ReservedDirectories(t *testing.T) {
	project := t.TempDir()
	touch(t, project, "app.py")
	touch(t, project, "dist", "old.zip")

	assert.Equal(t, []string{"app.py"}, dests(resolve(t, Options{Root: project, Reserved: []string{"dist/"}})))
}

func TestFiles_Deterministic(t *testing.T) {
	temp := t.TempDir()
	project := filepath.Join(temp, "project")
	for _, name := range []string{"c/3", "a/1", "b/2", "a/z/4", "root.txt"} {
		touch(t, project, filepath.FromSlash(name))
	}
	touch(t, temp, "ext", "e1")

	r, err := NewResolver(Options{Root: project, ForceInclude: map[string]string{"../ext": "a"}})
	require.NoError(t, err)

	first, err := Collect(r.Files())
	require.NoError(t, err)
	second, err := Collect(r.Files())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"root.txt", "a/1", "a/z/4", "b/2", "c/3", "a/e1"}, dests(first))
}

func TestFiles_StopEarly(t *testing.T) {
	project := t.TempDir()
	for _, name := range []string{"a", "b", "c"} {
		touch(t, project, name)
	}
	r, err := NewResolver(Options{Root: project})
	require.NoError(t, err)

	var seen []string
	for rec, err := range r.Files() {
		require.NoError(t, err)
		seen = append(seen, rec.DistributionPath)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestFiles_MissingRoot(t *testing.T) {
	r, err := NewResolver(Options{Root: filepath.Join(t.TempDir(), "missing"), IgnoreVCS: true})
	require.NoError(t, err)

	_, err = Collect(r.Files())
	require.Error(t, err)
	assert.True(t, dberrors.IsCategory(err, dberrors.CategoryFileSystem))
}

func TestNewResolver_InvalidPattern(t *testing.T) {
	_, err := NewResolver(Options{Root: t.TempDir(), Field: "tool.hatch.build.targets.zip", Exclude: []string{"[oops"}})
	assert.EqualError(t, err, "Invalid pattern `[oops` in field `tool.hatch.build.targets.zip.exclude`")
}

func TestFromSettings(t *testing.T) {
	s := &config.BuildSettings{
		Target:       "zip",
		Packages:     []string{"src/pkg"},
		Include:      []string{"a"},
		ForceInclude: map[string]string{"x": "y"},
		IgnoreVCS:    true,
	}
	opts := FromSettings("/project", s)
	assert.Equal(t, "/project", opts.Root)
	assert.Equal(t, "tool.hatch.build.targets.zip", opts.Field)
	assert.Equal(t, []string{"src/pkg"}, opts.Packages)
	assert.True(t, opts.IgnoreVCS)

	opts.ForceInclude["z"] = "w"
	assert.NotContains(t, s.ForceInclude, "z")

	s.Target = ""
	assert.Equal(t, "tool.hatch.build", FromSettings("/project", s).Field)
}
