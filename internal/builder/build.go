package builder

import (
	"context"
	"errors"
	"iter"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/distbuilder/internal/config"
	dberrors "git.home.luguber.info/inful/distbuilder/internal/errors"
	"git.home.luguber.info/inful/distbuilder/internal/files"
	"git.home.luguber.info/inful/distbuilder/internal/logfields"
	"git.home.luguber.info/inful/distbuilder/internal/metadata"
	"git.home.luguber.info/inful/distbuilder/internal/metrics"
	"git.home.luguber.info/inful/distbuilder/internal/plugin"
	"git.home.luguber.info/inful/distbuilder/internal/workspace"
)

// ErrSequenceConsumed is yielded when a build sequence is ranged over twice.
var ErrSequenceConsumed = errors.New("artifact sequence already consumed")

// ErrNoTarget is returned by Build when no target is selected.
var ErrNoTarget = dberrors.Newf(dberrors.CategoryValidation, "No build target selected")

// plan is everything the per-version stage needs, computed once per sequence.
type plan struct {
	target    plugin.Target
	settings  *config.BuildSettings
	config    map[string]any
	meta      *metadata.ProjectMetadata
	projectID string
	versions  []string
	hooks     []plugin.BuildHook
	hookCfg   map[string]map[string]any
	output    *workspace.Manager
	reserved  []string
}

// Build returns the sequence of artifact paths produced for the selected
// target, one per version. Nothing happens until the sequence is ranged over;
// validation errors surface as its first element. The sequence is single
// use: ranging over it again yields ErrSequenceConsumed. Breaking out of the
// range stops the build after the current artifact.
//
// Errors from hooks and the target are yielded unmodified and end the
// sequence.
func (b *Builder) Build(ctx context.Context, outputDir string, versions []string) iter.Seq2[string, error] {
	var consumed atomic.Bool
	requested := slices.Clone(versions)
	return func(yield func(string, error) bool) {
		if !consumed.CompareAndSwap(false, true) {
			yield("", ErrSequenceConsumed)
			return
		}

		p, err := b.prepare(outputDir, requested)
		if err != nil {
			yield("", err)
			return
		}

		for _, version := range p.versions {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}
			artifact, err := b.buildVersion(ctx, p, version)
			if err != nil {
				yield("", err)
				return
			}
			if !yield(artifact, nil) {
				return
			}
		}
	}
}

// prepare runs the validating and version-resolving stages.
func (b *Builder) prepare(outputDir string, requested []string) (*plan, error) {
	p := &plan{}

	err := b.stage(metrics.StageValidate, func() error {
		// The project table may have changed since the last build.
		m, err := b.loadMetadata()
		if err != nil {
			return err
		}
		if err := m.Check(); err != nil {
			return err
		}
		if _, err := b.BuildConfig(); err != nil {
			return err
		}
		if b.target == "" {
			return ErrNoTarget
		}
		cfg, err := b.TargetConfig()
		if err != nil {
			return err
		}
		s, err := b.BuildSettings()
		if err != nil {
			return err
		}
		p.meta, p.config, p.settings = m, cfg, s
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = b.stage(metrics.StageResolveVersions, func() error {
		t, err := b.Registry().Target(b.target)
		if err != nil {
			return err
		}
		source, err := b.Registry().VersionSource(p.settings.VersionSource)
		if err != nil {
			return err
		}
		declared, err := source.AvailableVersions(t, p.config)
		if err != nil {
			return err
		}
		versions, err := selectVersions(b.target, declared, requested)
		if err != nil {
			return err
		}
		p.target, p.versions = t, versions
		return nil
	})
	if err != nil {
		return nil, err
	}

	hooks, err := b.Registry().BuildHooks(p.settings.HookNames())
	if err != nil {
		return nil, err
	}
	p.hooks = hooks
	p.hookCfg = make(map[string]map[string]any, len(p.settings.Hooks))
	for _, h := range p.settings.Hooks {
		p.hookCfg[h.Name] = h.Config
	}
	for _, h := range p.hooks {
		if err := h.Validate(p.hookCfg[h.Metadata().Name]); err != nil {
			return nil, err
		}
	}

	if p.projectID, err = b.ProjectID(); err != nil {
		return nil, err
	}

	if p.output, err = workspace.NewManager(outputDir, b.logger); err != nil {
		return nil, dberrors.FileSystemError("resolve output directory", err)
	}
	if rel, inside := p.output.RelativeTo(b.root); inside {
		p.reserved = []string{rel}
	}

	b.logger.Info("Building target",
		logfields.Target(b.target),
		logfields.ProjectID(p.projectID),
		logfields.Count(len(p.versions)))
	return p, nil
}

// selectVersions picks the requested versions out of declared, matching
// case-insensitively and returning the declared spelling. Unknown requests
// fail together, sorted. No request selects every declared version.
func selectVersions(target string, declared, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return slices.Clone(declared), nil
	}
	var out, unknown []string
	for _, v := range requested {
		i := slices.IndexFunc(declared, func(d string) bool { return strings.EqualFold(d, v) })
		if i < 0 {
			unknown = append(unknown, v)
			continue
		}
		if !slices.Contains(out, declared[i]) {
			out = append(out, declared[i])
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return nil, dberrors.UnknownVersions(target, slices.Compact(unknown))
	}
	return out, nil
}

// buildVersion runs the hooks, resolves the files and packs one version.
func (b *Builder) buildVersion(ctx context.Context, p *plan, version string) (string, error) {
	start := time.Now()
	bc := plugin.NewBuildContext(b.logger, b.root, p.output.GetPath(), b.target, version)
	bc.ProjectID = p.projectID
	bc.Metadata = p.meta
	bc.Config = p.config

	artifact, err := b.runVersion(ctx, p, bc)

	b.recorder.ObserveBuildDuration(b.target, version, time.Since(start))
	b.recorder.IncBuildOutcome(b.target, resultOf(err))
	if err != nil {
		bc.Logger.Error("Build failed", logfields.Error(err))
		return "", err
	}
	bc.Logger.Info("Built artifact", logfields.Artifact(artifact))
	return artifact, nil
}

func (b *Builder) runVersion(ctx context.Context, p *plan, bc *plugin.BuildContext) (string, error) {
	err := b.stage(metrics.StageHooks, func() error {
		for _, h := range p.hooks {
			name := h.Metadata().Name
			bc.Logger.Debug("Running build hook", logfields.Hook(name))
			err := h.Run(ctx, bc, p.hookCfg[name])
			b.recorder.IncHookRun(name, resultOf(err))
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	var records []files.FileRecord
	err = b.stage(metrics.StageResolveFiles, func() error {
		opts := files.FromSettings(b.root, p.settings)
		opts.Artifacts = bc.MergeArtifacts(opts.Artifacts)
		opts.ForceInclude = bc.MergeForceInclude(opts.ForceInclude)
		opts.Reserved = p.reserved
		opts.Logger = bc.Logger
		r, err := files.NewResolver(opts)
		if err != nil {
			return err
		}
		records, err = files.Collect(r.Files())
		return err
	})
	if err != nil {
		return "", err
	}
	b.recorder.ObserveFileCount(b.target, len(records))

	var artifact string
	err = b.stage(metrics.StagePack, func() error {
		var err error
		artifact, err = p.target.Pack(ctx, records, bc)
		return err
	})
	return artifact, err
}

// stage times fn under name.
func (b *Builder) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	b.recorder.ObserveStageDuration(name, d)
	b.logger.Debug("Stage finished",
		logfields.Stage(name),
		logfields.DurationMS(float64(d.Microseconds())/1000),
		logfields.Error(err))
	return err
}

func resultOf(err error) metrics.ResultLabel {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.ResultCanceled
	default:
		return metrics.ResultFailed
	}
}
