package commands

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/docsite/internal/buildplan"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/tasks"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct{}

func (b *BuildCmd) Run(ctx context.Context, cli *CLI) error {
	return runTask(ctx, cli, buildplan.Build)
}

// DeployCmd implements the 'deploy' command.
type DeployCmd struct{}

func (d *DeployCmd) Run(ctx context.Context, cli *CLI) error {
	return runTask(ctx, cli, buildplan.Deploy)
}

// StagingCmd implements the 'staging' command.
type StagingCmd struct{}

func (s *StagingCmd) Run(ctx context.Context, cli *CLI) error {
	return runTask(ctx, cli, buildplan.Staging)
}

// RunCmd runs an ad-hoc plan: "docsite run cleanup js,css html".
type RunCmd struct {
	Steps []string `arg:"" help:"Tasks to run in order; comma-separated names run concurrently"`
}

func (r *RunCmd) Run(ctx context.Context, cli *CLI) error {
	steps, err := tasks.ParsePlan(r.Steps)
	if err != nil {
		return errors.WrapError(err, errors.CategoryValidation, "invalid plan").Build()
	}
	s, err := openSession(ctx, cli)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.seq.Run(ctx, steps...)
}

func runTask(ctx context.Context, cli *CLI, name string) error {
	s, err := openSession(ctx, cli)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.seq.RunTask(ctx, name); err != nil {
		return err
	}
	slog.Debug("Command finished", slog.String("command", name))
	return nil
}
