package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/distbuilder/internal/logfields"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	TargetFlags `embed:""`
	OutputFlags `embed:""`
	Versions    []string `name:"versions" sep:"," help:"Versions of the target to build (default: all declared)"`
	Clean       bool     `help:"Remove prior artifacts of the target before building"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	bld := root.NewBuilder(g, b.Target)
	out := root.resolve(b.Output)
	if b.Clean {
		if err := bld.Clean(out, b.Versions); err != nil {
			return err
		}
	}

	for artifact, err := range bld.Build(ctx, out, b.Versions) {
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(g.Out, artifact); err != nil {
			return err
		}
	}
	return g.Finish()
}

// CleanCmd implements the 'clean' command.
type CleanCmd struct {
	TargetFlags `embed:""`
	OutputFlags `embed:""`
	Versions    []string `name:"versions" sep:"," help:"Versions of the target to clean"`
}

func (c *CleanCmd) Run(g *Global, root *CLI) error {
	out := root.resolve(c.Output)
	if _, err := os.Stat(out); os.IsNotExist(err) {
		g.Logger.Info("Nothing to clean", logfields.Path(out))
		return nil
	}
	if err := root.NewBuilder(g, c.Target).Clean(out, c.Versions); err != nil {
		return err
	}
	g.Logger.Info("Cleaned artifacts", logfields.Target(c.Target), logfields.Path(out))
	return nil
}
