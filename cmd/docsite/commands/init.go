package commands

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(_ context.Context, cli *CLI) error {
	slog.Info("Initializing configuration", logfields.Path(cli.Config), slog.Bool("force", i.Force))
	return config.Init(cli.Config, i.Force)
}
