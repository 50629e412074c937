package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/accctl/cmd/accctl/commands"
	"git.home.luguber.info/inful/accctl/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("accctl"),
		kong.Description("Control the acc battery charging daemon and its djs schedules."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	if err := ctx.Run(&commands.Global{}, &cli); err != nil {
		cli.ErrorAdapter().HandleError(err)
	}
}
