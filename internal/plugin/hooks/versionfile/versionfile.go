// Package versionfile provides the `version-file` build hook, which writes
// the project version into a file inside the project before packaging and
// marks that file as a build artifact.
package versionfile

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/distbuilder/internal/config"
	dberrors "git.home.luguber.info/inful/distbuilder/internal/errors"
	"git.home.luguber.info/inful/distbuilder/internal/logfields"
	"git.home.luguber.info/inful/distbuilder/internal/plugin"
)

// Name is the hook's registry name.
const Name = "version-file"

// DataKey is the BuildContext data key holding the written file's path.
const DataKey = "version_file"

const placeholder = "{version}"

const (
	defaultTemplate   = "{version}\n"
	defaultPyTemplate = "# This file is auto-generated, do not edit\n__version__ = VERSION = '{version}'\n"
)

// Hook writes a version file.
//
// Configuration:
//
//	path     root-relative file to write (required)
//	template text with `{version}` placeholders (optional)
type Hook struct {
	plugin.BasePlugin
}

// New returns the version-file hook.
func New() *Hook { return &Hook{} }

func (h *Hook) Metadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        Name,
		Version:     "v1.0.0",
		Type:        plugin.PluginTypeBuildHook,
		Description: "Writes the project version into a file and ships it as an artifact",
	}
}

// Validate checks the hook's configuration table.
func (h *Hook) Validate(cfg map[string]any) error {
	_, _, err := settings(cfg)
	return err
}

// Run writes the version file and registers it as an artifact of this build
// step.
func (h *Hook) Run(ctx context.Context, bc *plugin.BuildContext, cfg map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, tmpl, err := settings(cfg)
	if err != nil {
		return err
	}

	version := ""
	if bc.Metadata != nil {
		version = bc.Metadata.Version()
	}
	if version == "" {
		return dberrors.Newf(dberrors.CategoryPlugin, "Build hook `%s` requires a static project version", Name)
	}

	target := filepath.Join(bc.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return dberrors.PluginFailed(Name, "run", err)
	}
	content := []byte(strings.ReplaceAll(tmpl, placeholder, version))
	// Unchanged files are left alone so watchers do not see a write.
	if existing, err := os.ReadFile(target); err != nil || !bytes.Equal(existing, content) {
		if err := os.WriteFile(target, content, 0o644); err != nil { //nolint:gosec // shipped source file
			return dberrors.PluginFailed(Name, "run", fmt.Errorf("write %s: %w", target, err))
		}
	}

	bc.AddArtifacts("/" + rel)
	bc.SetValue(DataKey, target)
	bc.Logger.Debug("Wrote version file", logfields.Hook(Name), logfields.Path(target))
	return nil
}

// settings reads and validates the path and template options.
func settings(cfg map[string]any) (string, string, error) {
	field := func(key string) string {
		return config.Dotted(append(config.BuildPath(), "hooks", Name, key)...)
	}

	p, ok, err := config.String(cfg, "path", field("path"))
	if err != nil {
		return "", "", err
	}
	rel := strings.Trim(path.Clean("/"+filepath.ToSlash(p)), "/")
	if !ok || rel == "" {
		return "", "", dberrors.Newf(dberrors.CategoryConfig, "Option `path` for build hook `%s` is required", Name)
	}

	tmpl, ok, err := config.String(cfg, "template", field("template"))
	if err != nil {
		return "", "", err
	}
	if !ok {
		tmpl = defaultTemplate
		if path.Ext(rel) == ".py" {
			tmpl = defaultPyTemplate
		}
	}
	return rel, tmpl, nil
}
