package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/distbuilder/internal/logfields"
)

// Manager handles output directory operations.
type Manager struct {
	outputDir string
	logger    *slog.Logger
}

// NewManager creates a manager for outputDir. Relative paths are made absolute.
func NewManager(outputDir string, logger *slog.Logger) (*Manager, error) {
	abs, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{outputDir: abs, logger: logger}, nil
}

// Create ensures the output directory exists.
func (m *Manager) Create() error {
	if err := os.MkdirAll(m.outputDir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// GetPath returns the absolute output directory.
func (m *Manager) GetPath() string {
	return m.outputDir
}

// RelativeTo returns the output directory relative to root in slash form,
// and whether it lies inside root at all.
func (m *Manager) RelativeTo(root string) (string, bool) {
	rel, err := filepath.Rel(root, m.outputDir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Stage opens a staging file for the artifact called name.
func (m *Manager) Stage(name string) (*Staged, error) {
	if err := m.Create(); err != nil {
		return nil, err
	}
	f, err := os.CreateTemp(m.outputDir, "."+name+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging file: %w", err)
	}
	return &Staged{File: f, final: filepath.Join(m.outputDir, name), logger: m.logger}, nil
}

// Remove deletes the named artifacts from the output directory and returns
// the removed paths. Names that do not exist, and a missing output
// directory, are skipped.
func (m *Manager) Remove(names ...string) ([]string, error) {
	var removed []string
	for _, name := range names {
		if name == "" || filepath.Base(name) != name {
			return removed, fmt.Errorf("invalid artifact name %q", name)
		}
		p := filepath.Join(m.outputDir, name)
		if err := os.Remove(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return removed, fmt.Errorf("failed to remove artifact: %w", err)
		}
		m.logger.Debug("Removed artifact", logfields.Artifact(p))
		removed = append(removed, p)
	}
	return removed, nil
}

// Staged is an artifact being written. Exactly one of Commit or Discard
// must be called.
type Staged struct {
	*os.File
	final  string
	logger *slog.Logger
	done   bool
}

// FinalPath returns the path the artifact is published under.
func (s *Staged) FinalPath() string {
	return s.final
}

// Commit closes the staging file and renames it to its final path.
func (s *Staged) Commit() error {
	if s.done {
		return nil
	}
	s.done = true
	if err := s.Close(); err != nil {
		_ = os.Remove(s.Name())
		return fmt.Errorf("failed to close staging file: %w", err)
	}
	if err := os.Rename(s.Name(), s.final); err != nil {
		_ = os.Remove(s.Name())
		return fmt.Errorf("failed to publish artifact: %w", err)
	}
	s.logger.Debug("Published artifact", logfields.Artifact(s.final))
	return nil
}

// Discard closes and removes the staging file. It is a no-op after Commit.
func (s *Staged) Discard() {
	if s.done {
		return
	}
	s.done = true
	_ = s.Close()
	if err := os.Remove(s.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("Failed to remove staging file", logfields.Path(s.Name()), logfields.Error(err))
	}
}
