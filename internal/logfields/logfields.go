package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID     = "build_id"
	KeyTarget      = "target"
	KeyVersion     = "version"
	KeyHook        = "hook"
	KeyPath        = "path"
	KeyDestination = "destination"
	KeyArtifact    = "artifact"
	KeyProjectID   = "project_id"
	KeyCount       = "count"
	KeyStage       = "stage"
	KeyDurationMS  = "duration_ms"
	KeyAddr        = "addr"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr { return slog.String(KeyBuildID, id) }
func Target(name string) slog.Attr { return slog.String(KeyTarget, name) }
func Version(v string) slog.Attr { return slog.String(KeyVersion, v) }
func Hook(name string) slog.Attr { return slog.String(KeyHook, name) }
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }
func Destination(p string) slog.Attr { return slog.String(KeyDestination, p) }
func Artifact(p string) slog.Attr { return slog.String(KeyArtifact, p) }
func ProjectID(id string) slog.Attr { return slog.String(KeyProjectID, id) }
func Count(n int) slog.Attr { return slog.Int(KeyCount, n) }
func Stage(name string) slog.Attr { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Addr(a string) slog.Attr { return slog.String(KeyAddr, a) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
