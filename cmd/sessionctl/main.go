package main

import (
	"context"
	"os"

	"github.com/alecthomas/kong"
	"github.com/authgw/gateway/cmd/sessionctl/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		RevokeAll commands.RevokeAllCmd `cmd:"" help:"Revoke every session of a user"`
		Check     commands.CheckCmd     `cmd:"" help:"Check whether a session is active"`
		Events    commands.EventsCmd    `cmd:"" help:"List recorded session events of a user"`
		Debug     bool                  `help:"Enable debug mode."`
		Version   kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("sessionctl"),
		kong.Description("Operator tool for gateway sessions. Reads the same environment as the gateway."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version, Out: os.Stdout})
	cmd.FatalIfErrorf(err)
}
