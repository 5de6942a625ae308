package main

import (
	"os"

	"git.home.luguber.info/inful/distbuilder/cmd/distbuilder/commands"
	dberrors "git.home.luguber.info/inful/distbuilder/internal/errors"
)

func main() {
	var cli commands.CLI
	g := &commands.Global{Out: os.Stdout, Err: os.Stderr}

	parser, err := commands.NewParser(&cli, g)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	err = ctx.Run(g, &cli)
	dberrors.NewCLIErrorAdapter(cli.Verbose, g.Logger).HandleError(err)
}
