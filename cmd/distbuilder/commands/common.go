package commands

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/distbuilder/internal/builder"
	"git.home.luguber.info/inful/distbuilder/internal/config"
	"git.home.luguber.info/inful/distbuilder/internal/logfields"
	"git.home.luguber.info/inful/distbuilder/internal/metrics"
	"git.home.luguber.info/inful/distbuilder/internal/plugin"
	"git.home.luguber.info/inful/distbuilder/internal/version"
)

// Global carries state shared by every subcommand.
type Global struct {
	Logger *slog.Logger

	// Out receives command output such as artifact paths.
	Out io.Writer
	// Err receives log output.
	Err io.Writer

	// Registry overrides the built-in plugin registry when set.
	Registry *plugin.Registry

	Recorder metrics.Recorder
	// Metrics is set when --metrics is given.
	Metrics *prom.Registry
}

// CLI definition & global flags.
type CLI struct {
	Project string           `short:"p" help:"Project root directory" default:"." type:"path"`
	Config  string           `short:"c" help:"Project configuration file, relative to the project root" default:"pyproject.toml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`
	Metrics bool             `help:"Log collected build metrics on exit"`

	Build BuildCmd `cmd:"" help:"Build artifacts for a target"`
	Clean CleanCmd `cmd:"" help:"Remove artifacts of a target from the output directory"`
	Files FilesCmd `cmd:"" help:"List the files a target would include"`
	Watch WatchCmd `cmd:"" help:"Rebuild whenever project files change"`
}

// TargetFlags are shared by commands that act on one target.
type TargetFlags struct {
	Target string `short:"t" help:"Build target" default:"zip"`
}

// OutputFlags are shared by commands that write or clean artifacts.
type OutputFlags struct {
	Output string `short:"o" help:"Output directory, relative to the project root" default:"dist"`
}

// NewParser returns the kong parser for cli with g bound for hooks and
// commands.
func NewParser(cli *CLI, g *Global, options ...kong.Option) (*kong.Kong, error) {
	opts := append([]kong.Option{
		kong.Name("distbuilder"),
		kong.Description("Build distributable artifacts from a project's declarative configuration."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(g),
	}, options...)
	return kong.New(cli, opts...)
}

// AfterApply runs after flag parsing: it sets up logging, loads .env files
// from the project root and prepares metrics.
func (c *CLI) AfterApply(g *Global) error {
	if g.Out == nil {
		g.Out = os.Stdout
	}
	if g.Err == nil {
		g.Err = os.Stderr
	}
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = slog.New(slog.NewTextHandler(g.Err, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(g.Logger)

	loaded, err := config.LoadEnvFiles(c.Project)
	if err != nil {
		return err
	}
	for _, f := range loaded {
		g.Logger.Debug("Loaded environment file", logfields.Path(f))
	}

	g.Recorder = metrics.NoopRecorder{}
	if c.Metrics {
		g.Metrics = prom.NewRegistry()
		g.Recorder = metrics.NewPrometheusRecorder(g.Metrics)
	}
	return nil
}

// Finish logs gathered metrics when --metrics was given.
func (g *Global) Finish() error {
	if g.Metrics == nil {
		return nil
	}
	return metrics.LogGathered(g.Logger, g.Metrics)
}

// NewBuilder creates a builder for target using the global flags.
func (c *CLI) NewBuilder(g *Global, target string) *builder.Builder {
	b := builder.New(c.Project).
		WithTarget(target).
		WithConfigFile(c.resolve(c.Config)).
		WithLogger(g.Logger).
		WithRecorder(g.Recorder)
	if g.Registry != nil {
		b.WithRegistry(g.Registry)
	}
	return b
}

// resolve makes p absolute against the project root.
func (c *CLI) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Project, p)
}
