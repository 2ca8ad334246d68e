package cmd

import (
	"fmt"

	"github.com/minio/cli"
)

// Version is set at build time via -ldflags; left as a sentinel otherwise.
var Version = "dev"

// NewApp builds the frugalos cli.App: a "server" daemon command plus the two
// runtime-control commands ("set-repair-config", "status"). Grounded on
// cmd/server-main.go's serverCmd/ServerFlags shape, one cli.Command per
// subcommand with its own Flags and Action.
func NewApp() *cli.App {
	app := cli.NewApp()
	app.Name = "frugalos"
	app.Version = Version
	app.Usage = "distributed object storage node"
	app.Commands = []cli.Command{
		serverCmd,
		setRepairConfigCmd,
		statusCmd,
	}
	app.CommandNotFound = func(ctx *cli.Context, cmd string) {
		fmt.Printf("%q is not a frugalos command. See 'frugalos --help'.\n", cmd)
	}
	return app
}
