// Package pattern matches root-relative paths against gitignore-style
// pattern lists.
//
// Matching is delegated to go-git's gitignore implementation; pattern syntax
// is validated up front with doublestar so malformed globs fail when a
// Spec is compiled rather than silently never matching.
package pattern

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	dberrors "git.home.luguber.info/inful/distbuilder/internal/errors"
)

// Spec is a compiled, ordered list of gitignore-style patterns. A later
// pattern overrides an earlier one, so `!` negations work as in .gitignore.
// The zero value and a nil *Spec match nothing.
type Spec struct {
	raw      []string
	patterns []gitignore.Pattern
	matcher  gitignore.Matcher
}

// Compile validates and compiles patterns. field names the configuration
// field the patterns were read from and is used in error messages. Blank
// lines and `#` comments are ignored, as in a .gitignore file.
func Compile(field string, patterns []string) (*Spec, error) {
	s := &Spec{}
	for _, p := range patterns {
		trimmed := strings.TrimSpace(p)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if !doublestar.ValidatePattern(globBody(trimmed)) {
			return nil, dberrors.InvalidPattern(field, p)
		}
		s.raw = append(s.raw, p)
		s.patterns = append(s.patterns, gitignore.ParsePattern(trimmed, nil))
	}
	s.matcher = gitignore.NewMatcher(s.patterns)
	return s, nil
}

// MustCompile is like Compile but panics on error. Intended for tests and
// package-level pattern tables.
func MustCompile(patterns ...string) *Spec {
	s, err := Compile("patterns", patterns)
	if err != nil {
		panic(err)
	}
	return s
}

// Match reports whether the slash-separated root-relative path rel matches.
func (s *Spec) Match(rel string, isDir bool) bool {
	if s.Empty() {
		return false
	}
	rel = strings.Trim(path.Clean("/"+rel), "/")
	if rel == "" {
		return false
	}
	return s.matcher.Match(strings.Split(rel, "/"), isDir)
}

// Empty reports whether the spec holds no patterns.
func (s *Spec) Empty() bool {
	return s == nil || len(s.patterns) == 0
}

// Patterns returns the configured source patterns, in order.
func (s *Spec) Patterns() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.raw...)
}

// Prepend returns a new Spec whose patterns are ps followed by the receiver's,
// so the receiver's own patterns (including negations) take precedence.
func (s *Spec) Prepend(ps ...gitignore.Pattern) *Spec {
	out := &Spec{}
	out.patterns = append(out.patterns, ps...)
	if s != nil {
		out.raw = append(out.raw, s.raw...)
		out.patterns = append(out.patterns, s.patterns...)
	}
	out.matcher = gitignore.NewMatcher(out.patterns)
	return out
}

// ReadVCSIgnore loads every .gitignore below root, plus .git/info/exclude,
// with each pattern scoped to the directory it was declared in.
func ReadVCSIgnore(root string) ([]gitignore.Pattern, error) {
	ps, err := gitignore.ReadPatterns(osfs.New(root), nil)
	if err != nil {
		return nil, dberrors.FileSystemError("read ignore files", err)
	}
	return ps, nil
}

// globBody strips the gitignore-only syntax (negation, anchoring, directory
// marker, escapes of leading specials) so the remainder can be checked as a
// plain glob.
func globBody(p string) string {
	p = strings.TrimPrefix(p, "!")
	if strings.HasPrefix(p, `\!`) || strings.HasPrefix(p, `\#`) {
		p = p[1:]
	}
	p = strings.TrimPrefix(p, "/")
	return strings.TrimSuffix(p, "/")
}
