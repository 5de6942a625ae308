// Package ziptarget provides the `zip` packaging target: a reproducible zip
// archive of the resolved files.
package ziptarget

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/text/unicode/norm"

	dberrors "git.home.luguber.info/inful/distbuilder/internal/errors"
	"git.home.luguber.info/inful/distbuilder/internal/files"
	"git.home.luguber.info/inful/distbuilder/internal/logfields"
	"git.home.luguber.info/inful/distbuilder/internal/plugin"
	"git.home.luguber.info/inful/distbuilder/internal/workspace"
)

// Name is the target's registry name.
const Name = "zip"

// Versions the target can produce.
const (
	VersionStandard = "standard" // deflate-compressed entries
	VersionStored   = "stored"   // uncompressed entries
)

// SourceDateEpochEnv overrides the timestamp written into every entry.
const SourceDateEpochEnv = "SOURCE_DATE_EPOCH"

// zipEpoch is the earliest timestamp the zip format can represent.
var zipEpoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// Target packs files into `<project-id>.zip`. Entries are written in record
// order with fixed timestamps and NFC-normalized slash-separated names, so
// identical inputs yield identical bytes.
type Target struct {
	plugin.BasePlugin
}

// New returns the zip target.
func New() *Target { return &Target{} }

func (t *Target) Metadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        Name,
		Version:     "v1.0.0",
		Type:        plugin.PluginTypeTarget,
		Description: "Reproducible zip archive",
	}
}

func (t *Target) Versions() []string {
	return []string{VersionStandard, VersionStored}
}

// ArtifactName returns the file name of the artifact for version.
func ArtifactName(projectID, version string) string {
	if version == VersionStored {
		return projectID + "-stored.zip"
	}
	return projectID + ".zip"
}

// Pack writes the archive through a staging file in bc.OutputDir. On any
// failure the staging file is removed and no artifact is published.
func (t *Target) Pack(ctx context.Context, records []files.FileRecord, bc *plugin.BuildContext) (string, error) {
	if bc.ProjectID == "" {
		return "", dberrors.Newf(dberrors.CategoryPlugin, "target %s requires a project ID", Name)
	}
	mtime, err := entryTime()
	if err != nil {
		return "", err
	}

	ws, err := workspace.NewManager(bc.OutputDir, bc.Logger)
	if err != nil {
		return "", dberrors.PluginFailed(Name, "pack", err)
	}
	staged, err := ws.Stage(ArtifactName(bc.ProjectID, bc.Version))
	if err != nil {
		return "", dberrors.PluginFailed(Name, "pack", err)
	}
	defer staged.Discard()

	method := zip.Deflate
	if bc.Version == VersionStored {
		method = zip.Store
	}

	zw := zip.NewWriter(staged)
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := addFile(zw, rec, method, mtime); err != nil {
			return "", dberrors.PluginFailed(Name, "pack", err)
		}
	}
	if err := zw.Close(); err != nil {
		return "", dberrors.PluginFailed(Name, "pack", err)
	}
	if err := staged.Commit(); err != nil {
		return "", dberrors.PluginFailed(Name, "pack", err)
	}

	bc.Logger.Info("Packed artifact", logfields.Artifact(staged.FinalPath()), logfields.Count(len(records)))
	return staged.FinalPath(), nil
}

// Clean removes the artifacts of projectID for versions, or for every
// version when none are given. Other files in outputDir are left alone.
func (t *Target) Clean(outputDir, projectID string, versions []string) error {
	if projectID == "" {
		return dberrors.Newf(dberrors.CategoryPlugin, "target %s requires a project ID", Name)
	}
	if len(versions) == 0 {
		versions = t.Versions()
	}
	names := make([]string, 0, len(versions))
	for _, v := range versions {
		names = append(names, ArtifactName(projectID, v))
	}

	ws, err := workspace.NewManager(outputDir, nil)
	if err != nil {
		return dberrors.PluginFailed(Name, "clean", err)
	}
	if _, err := ws.Remove(names...); err != nil {
		return dberrors.PluginFailed(Name, "clean", err)
	}
	return nil
}

func addFile(zw *zip.Writer, rec files.FileRecord, method uint16, mtime time.Time) error {
	src, err := os.Open(rec.Path)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	info, err := src.Stat()
	if err != nil {
		return err
	}

	header := &zip.FileHeader{
		Name:     norm.NFC.String(filepath.ToSlash(rec.DistributionPath)),
		Method:   method,
		Modified: mtime,
	}
	mode := os.FileMode(0o644)
	if info.Mode()&0o111 != 0 {
		mode = 0o755
	}
	header.SetMode(mode)

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("copy %s: %w", rec.Path, err)
	}
	return nil
}

// entryTime returns the timestamp for archive entries: SOURCE_DATE_EPOCH
// when set, clamped to the zip epoch, otherwise the zip epoch itself.
func entryTime() (time.Time, error) {
	raw := os.Getenv(SourceDateEpochEnv)
	if raw == "" {
		return zipEpoch, nil
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, dberrors.Newf(dberrors.CategoryConfig, "Environment variable `%s` must be an integer", SourceDateEpochEnv)
	}
	ts := time.Unix(secs, 0).UTC()
	if ts.Before(zipEpoch) {
		return zipEpoch, nil
	}
	return ts, nil
}
