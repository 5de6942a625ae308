package metrics

import "time"

// Stage names used with ObserveStageDuration.
const (
	StageValidate        = "validate"
	StageResolveVersions = "resolve_versions"
	StageHooks           = "hooks"
	StageResolveFiles    = "resolve_files"
	StagePack            = "pack"
)

// ResultLabel enumerates result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for builds. Implementations may
// forward to Prometheus, OpenTelemetry, etc.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(target, version string, d time.Duration)
	IncBuildOutcome(target string, outcome ResultLabel)
	IncHookRun(hook string, result ResultLabel)
	ObserveFileCount(target string, n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)         {}
func (NoopRecorder) ObserveBuildDuration(string, string, time.Duration) {}
func (NoopRecorder) IncBuildOutcome(string, ResultLabel)                {}
func (NoopRecorder) IncHookRun(string, ResultLabel)                     {}
func (NoopRecorder) ObserveFileCount(string, int)                       {}
