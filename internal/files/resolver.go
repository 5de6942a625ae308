// Package files resolves which project files belong in a distribution and
// where each one lands inside it.
//
// Resolution runs in two phases. The project walk (phase A) visits the
// project root depth first, applying include, package, exclude and artifact
// rules. Force-include expansion (phase B) maps explicitly declared sources,
// possibly outside the project, to fixed destinations; its records are sorted
// by destination and always follow the project walk. A destination claimed by
// a force-include is authoritative: project files with the same destination
// are dropped.
package files

import (
	"cmp"
	"errors"
	"io/fs"
	"iter"
	"log/slog"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/distbuilder/internal/config"
	dberrors "git.home.luguber.info/inful/distbuilder/internal/errors"
	"git.home.luguber.info/inful/distbuilder/internal/logfields"
	"git.home.luguber.info/inful/distbuilder/internal/pattern"
	"git.home.luguber.info/inful/distbuilder/internal/util/sets"
)

// Options configures a Resolver.
type Options struct {
	// Root is the project root. Relative roots are made absolute.
	Root string

	Packages     []string
	Include      []string
	Exclude      []string
	Artifacts    []string
	ForceInclude map[string]string
	Sources      map[string]string

	// IgnoreVCS disables loading .gitignore files into the exclude patterns.
	IgnoreVCS bool

	// Reserved lists root-relative directories that are never walked, such
	// as the output directory when it lives inside the project.
	Reserved []string

	// Field is the dotted configuration path the patterns came from.
	Field string

	Logger *slog.Logger
}

// FromSettings builds resolver options from validated build settings.
func FromSettings(root string, s *config.BuildSettings) Options {
	field := config.Dotted(config.BuildPath()...)
	if s.Target != "" {
		field = config.Dotted(config.TargetPath(s.Target)...)
	}
	return Options{
		Root:         root,
		Packages:     slices.Clone(s.Packages),
		Include:      slices.Clone(s.Include),
		Exclude:      slices.Clone(s.Exclude),
		Artifacts:    slices.Clone(s.Artifacts),
		ForceInclude: maps.Clone(s.ForceInclude),
		Sources:      maps.Clone(s.Sources),
		IgnoreVCS:    s.IgnoreVCS,
		Field:        field,
	}
}

// Resolver produces the ordered file records of a distribution.
type Resolver struct {
	root         string
	include      *pattern.Spec
	exclude      *pattern.Spec
	artifacts    *pattern.Spec
	packages     []string
	rewrites     []rewrite
	forceInclude map[string]string
	reserved     sets.Set[string]
	logger       *slog.Logger
}

// rewrite replaces a leading path prefix when computing distribution paths.
type rewrite struct {
	from string
	to   string
}

// NewResolver compiles the patterns in opts. Malformed patterns and
// unreadable ignore files are reported here, before any walk starts.
func NewResolver(opts Options) (*Resolver, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, dberrors.FileSystemError("resolve project root", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	field := opts.Field
	if field == "" {
		field = config.Dotted(config.BuildPath()...)
	}

	r := &Resolver{
		root:         root,
		forceInclude: maps.Clone(opts.ForceInclude),
		reserved:     sets.New[string](),
		logger:       logger,
	}
	if r.include, err = pattern.Compile(field+".include", opts.Include); err != nil {
		return nil, err
	}
	if r.exclude, err = pattern.Compile(field+".exclude", opts.Exclude); err != nil {
		return nil, err
	}
	if r.artifacts, err = pattern.Compile(field+".artifacts", opts.Artifacts); err != nil {
		return nil, err
	}
	if !opts.IgnoreVCS {
		ps, err := pattern.ReadVCSIgnore(root)
		if err != nil {
			return nil, err
		}
		r.exclude = r.exclude.Prepend(ps...)
	}

	sources := make(map[string]string)
	for _, p := range opts.Packages {
		p = cleanRel(p)
		if p == "" {
			continue
		}
		r.packages = append(r.packages, p)
		sources[p+"/"] = path.Base(p) + "/"
	}
	for from, to := range opts.Sources {
		sources[prefix(from)] = prefix(to)
	}
	for from, to := range sources {
		r.rewrites = append(r.rewrites, rewrite{from: from, to: to})
	}
	slices.SortFunc(r.rewrites, func(a, b rewrite) int {
		return cmp.Or(cmp.Compare(len(b.from), len(a.from)), cmp.Compare(a.from, b.from))
	})

	for _, dir := range opts.Reserved {
		if dir = cleanRel(dir); dir != "" {
			r.reserved.Add(dir)
		}
	}
	return r, nil
}

// Root returns the absolute project root.
func (r *Resolver) Root() string { return r.root }

// Files returns the resolved records. The sequence is cold: every range
// performs a fresh resolution against the current filesystem state. An error
// ends the sequence.
func (r *Resolver) Files() iter.Seq2[FileRecord, error] {
	return func(yield func(FileRecord, error) bool) {
		forced, err := r.forceIncluded()
		if err != nil {
			yield(FileRecord{}, err)
			return
		}
		claimed := sets.New[string]()
		for _, rec := range forced {
			claimed.Add(rec.DistributionPath)
		}

		emitted := sets.New[string]()
		w := newWalker(r.pruneDir, r.logger)
		more, err := w.walk(r.root, "", func(abs, rel string) bool {
			rec, ok := r.projectRecord(abs, rel)
			if !ok {
				return true
			}
			if claimed.Has(rec.DistributionPath) {
				r.logger.Warn("Force-include overrides project file",
					logfields.Path(abs), logfields.Destination(rec.DistributionPath))
				return true
			}
			if !emitted.Visit(rec.DistributionPath) {
				r.logger.Debug("Duplicate destination skipped",
					logfields.Path(abs), logfields.Destination(rec.DistributionPath))
				return true
			}
			return yield(rec, nil)
		})
		if err != nil {
			yield(FileRecord{}, err)
			return
		}
		if !more {
			return
		}

		for _, rec := range forced {
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// Collect drains seq into a slice, stopping at the first error.
func Collect(seq iter.Seq2[FileRecord, error]) ([]FileRecord, error) {
	var out []FileRecord
	for rec, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *Resolver) pruneDir(rel string) bool {
	return r.reserved.Has(rel) || r.exclude.Match(rel, true)
}

func (r *Resolver) projectRecord(abs, rel string) (FileRecord, bool) {
	origin := OriginProject
	if r.artifacts.Match(rel, false) {
		origin = OriginArtifact
	} else if r.exclude.Match(rel, false) || !r.included(rel) {
		return FileRecord{}, false
	}
	return FileRecord{Path: abs, DistributionPath: r.distributionPath(rel), Origin: origin}, true
}

func (r *Resolver) included(rel string) bool {
	if r.include.Empty() && len(r.packages) == 0 {
		return true
	}
	if r.include.Match(rel, false) {
		return true
	}
	for _, p := range r.packages {
		if strings.HasPrefix(rel, p+"/") {
			return true
		}
	}
	return false
}

func (r *Resolver) distributionPath(rel string) string {
	for _, rw := range r.rewrites {
		if strings.HasPrefix(rel, rw.from) {
			rel = rw.to + rel[len(rw.from):]
			break
		}
	}
	return filepath.FromSlash(rel)
}

// forceIncluded expands every force-include entry whose source exists,
// sorted by destination then source path, keeping the first record for
// each destination.
func (r *Resolver) forceIncluded() ([]FileRecord, error) {
	var out []FileRecord
	for _, src := range slices.Sorted(maps.Keys(r.forceInclude)) {
		dst := cleanRel(r.forceInclude[src])
		abs, err := r.resolveSource(src)
		if err != nil {
			return nil, err
		}

		info, err := os.Stat(abs)
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.Debug("Force-include source missing", logfields.Path(abs))
			continue
		}
		if err != nil {
			return nil, dberrors.FileSystemError("stat force-include source "+abs, err)
		}

		if !info.IsDir() {
			if dst == "" {
				dst = filepath.Base(abs)
			}
			out = append(out, FileRecord{Path: abs, DistributionPath: filepath.FromSlash(dst), Origin: OriginForceInclude})
			continue
		}

		w := newWalker(nil, r.logger)
		if _, err := w.walk(abs, "", func(file, rel string) bool {
			out = append(out, FileRecord{
				Path:             file,
				DistributionPath: filepath.FromSlash(path.Join(dst, rel)),
				Origin:           OriginForceInclude,
			})
			return true
		}); err != nil {
			return nil, err
		}
	}

	slices.SortStableFunc(out, func(a, b FileRecord) int {
		return cmp.Or(cmp.Compare(a.DistributionPath, b.DistributionPath), cmp.Compare(a.Path, b.Path))
	})
	return slices.CompactFunc(out, func(a, b FileRecord) bool {
		return a.DistributionPath == b.DistributionPath
	}), nil
}

// resolveSource makes a force-include source absolute. Sources may be
// absolute, relative to the project root, or start with `~`.
func (r *Resolver) resolveSource(src string) (string, error) {
	if src == "~" || strings.HasPrefix(src, "~/") || strings.HasPrefix(src, "~"+string(filepath.Separator)) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", dberrors.FileSystemError("resolve home directory", err)
		}
		return filepath.Join(home, src[1:]), nil
	}
	if filepath.IsAbs(src) {
		return filepath.Clean(src), nil
	}
	return filepath.Join(r.root, src), nil
}

// cleanRel normalizes a configured relative path to slash form with no
// leading or trailing separators.
func cleanRel(p string) string {
	p = filepath.ToSlash(strings.TrimSpace(p))
	if p == "" {
		return ""
	}
	return strings.Trim(path.Clean("/"+p), "/")
}

// prefix turns a configured directory into a rewrite prefix. An empty
// directory stays empty, meaning "the distribution root".
func prefix(p string) string {
	if p = cleanRel(p); p == "" {
		return ""
	}
	return p + "/"
}
