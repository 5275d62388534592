package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/eventstore"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// HistoryCmd prints recent runs from the run history database.
type HistoryCmd struct {
	Limit int  `short:"n" help:"Number of runs to show" default:"20"`
	JSON  bool `help:"Print summaries as JSON"`
}

func (h *HistoryCmd) Run(ctx context.Context, cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	if !cfg.History.IsEnabled() {
		return errors.ConfigError("run history is disabled").
			WithContext("key", "history.enabled").
			Build()
	}
	s := &session{cfg: cfg, root: cli.root()}
	store, err := eventstore.NewSQLiteStore(s.path(cfg.History.Path))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := eventstore.History(ctx, store, h.Limit)
	if err != nil {
		return err
	}

	out := cli.stdout()
	if h.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	if len(runs) == 0 {
		_, err = fmt.Fprintln(out, "No runs recorded")
		return err
	}
	tbl := newTable(cli).Headers("RUN", "STARTED", "PLAN", "STATUS", "DURATION", "FAILED TASK")
	for _, r := range runs {
		tbl.Row(
			shortID(r.RunID),
			r.StartedAt.Local().Format(time.DateTime),
			r.Plan,
			r.Status,
			r.Duration.Round(time.Millisecond).String(),
			r.FailedTask,
		)
	}
	_, err = fmt.Fprintln(out, tbl.Render())
	return err
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
