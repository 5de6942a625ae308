package files

import (
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	dberrors "git.home.luguber.info/inful/distbuilder/internal/errors"
	"git.home.luguber.info/inful/distbuilder/internal/logfields"
	"git.home.luguber.info/inful/distbuilder/internal/util/sets"
)

// Entries that are never part of a distribution.
var (
	excludedDirs  = sets.New(".git", ".hg", ".svn", "__pycache__")
	excludedFiles = sets.New(".DS_Store")
)

// walker is a deterministic depth-first directory walk. At every level the
// files are visited in name order before the subdirectories, also in name
// order. Directories are identified by their symlink-resolved path and are
// entered at most once per walker.
type walker struct {
	visited  sets.Set[string]
	pruneDir func(rel string) bool
	logger   *slog.Logger
}

func newWalker(pruneDir func(rel string) bool, logger *slog.Logger) *walker {
	return &walker{visited: sets.New[string](), pruneDir: pruneDir, logger: logger}
}

// walk visits every file below dir. rel is dir's slash-separated path relative
// to the walk base, empty for the base itself. The walk stops as soon as fn
// returns false, in which case walk reports false.
func (w *walker) walk(dir, rel string, fn func(abs, rel string) bool) (bool, error) {
	canonical, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return false, dberrors.FileSystemError("resolve directory "+dir, err)
	}
	if !w.visited.Visit(canonical) {
		w.logger.Debug("Directory already visited", logfields.Path(dir))
		return true, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, dberrors.FileSystemError("read directory "+dir, err)
	}

	var dirs []string
	for _, e := range entries {
		name := e.Name()
		abs := filepath.Join(dir, name)
		mode, ok := w.mode(abs, e)
		switch {
		case !ok:
			continue
		case mode.IsDir():
			if !excludedDirs.Has(name) {
				dirs = append(dirs, name)
			}
		case mode.IsRegular():
			if excludedFiles.Has(name) {
				continue
			}
			if !fn(abs, path.Join(rel, name)) {
				return false, nil
			}
		}
	}

	for _, name := range dirs {
		childRel := path.Join(rel, name)
		if w.pruneDir != nil && w.pruneDir(childRel) {
			continue
		}
		more, err := w.walk(filepath.Join(dir, name), childRel, fn)
		if err != nil || !more {
			return more, err
		}
	}
	return true, nil
}

// mode returns the type of e, following symlinks. Dangling links are skipped.
func (w *walker) mode(abs string, e fs.DirEntry) (fs.FileMode, bool) {
	if e.Type()&fs.ModeSymlink == 0 {
		return e.Type(), true
	}
	info, err := os.Stat(abs)
	if err != nil {
		w.logger.Debug("Skipping unresolvable symlink", logfields.Path(abs), logfields.Error(err))
		return 0, false
	}
	return info.Mode().Type(), true
}
