package commands

import (
	"context"
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/docsite/internal/buildplan"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/preview"
)

// ServeCmd builds the site, serves the output tree and rebuilds on change.
type ServeCmd struct {
	Host string `help:"Interface to bind (overrides serve.host)"`
	Port int    `short:"p" help:"Port to listen on (overrides serve.port)"`

	// ready is called with the bound address; tests use it.
	ready func(addr string) `kong:"-"`
}

func (s *ServeCmd) Run(ctx context.Context, cli *CLI) error {
	sess, err := openSession(ctx, cli)
	if err != nil {
		return err
	}
	defer sess.Close()

	cfg := sess.cfg.Serve
	mappings := make([]preview.Mapping, 0, len(cfg.Watch))
	for _, w := range cfg.Watch {
		if _, err := sess.seq.Registry().Resolve(w.Task); err != nil {
			return err
		}
		mappings = append(mappings, preview.Mapping{Task: w.Task, Patterns: w.Patterns, Reload: w.ReloadEnabled()})
	}

	if err := sess.seq.RunTask(ctx, buildplan.Build); err != nil {
		return err
	}

	opts := preview.Options{
		Root:         sess.root,
		OutputDir:    sess.path(sess.cfg.Paths.Output),
		Host:         cfg.Host,
		Port:         cfg.Port,
		LiveReload:   cfg.LiveReloadEnabled(),
		Debounce:     cfg.Debounce,
		PollInterval: cfg.PollInterval,
		Mappings:     mappings,
		Recorder:     sess.metrics,
		OnReady:      s.onReady,
	}
	if s.Host != "" {
		opts.Host = s.Host
	}
	if s.Port != 0 {
		opts.Port = s.Port
	}
	if sess.registry != nil {
		opts.Metrics = metricsHandler(sess)
	}
	return preview.Serve(ctx, sess.seq, opts)
}

func (s *ServeCmd) onReady(addr string) {
	slog.Info("Serving site", logfields.URL("http://"+addr+"/"))
	if s.ready != nil {
		s.ready(addr)
	}
}

func metricsHandler(sess *session) http.Handler {
	return metrics.HTTPHandler(sess.registry)
}
