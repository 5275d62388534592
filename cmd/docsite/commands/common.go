// Package commands implements the docsite command line.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docsite/internal/buildplan"
	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/eventstore"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/tasks"
)

// LogLevelEnv overrides the configured log level.
const LogLevelEnv = "DOCSITE_LOG_LEVEL"

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"docsite.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve   ServeCmd   `cmd:"" default:"withargs" help:"Build, then serve the output tree with live reload (default)"`
	Build   BuildCmd   `cmd:"" help:"Clean and build the whole site"`
	Deploy  DeployCmd  `cmd:"" help:"Build, minify and publish to the production target"`
	Staging StagingCmd `cmd:"" help:"Build, minify and publish to the staging target"`
	Run     RunCmd     `cmd:"" help:"Run tasks in order; a comma-separated argument runs concurrently"`
	Tasks   TasksCmd   `cmd:"" help:"List registered tasks"`
	History HistoryCmd `cmd:"" help:"Show recent runs"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`

	// Stdout receives command output; nil means os.Stdout.
	Stdout io.Writer `kong:"-"`
	// Stderr receives logs and lint reports; nil means os.Stderr.
	Stderr io.Writer `kong:"-"`
}

// AfterApply runs after flag parsing and sets up logging from the flags
// and environment. Configuration may refine it once loaded.
func (c *CLI) AfterApply() error {
	setupLogging(c.stderr(), c.Verbose, config.LoggingConfig{})
	return nil
}

func (c *CLI) stdout() io.Writer {
	if c.Stdout != nil {
		return c.Stdout
	}
	return os.Stdout
}

func (c *CLI) stderr() io.Writer {
	if c.Stderr != nil {
		return c.Stderr
	}
	return os.Stderr
}

// root is the project directory: the directory holding the config file.
func (c *CLI) root() string {
	return filepath.Dir(c.Config)
}

// setupLogging installs the default logger. Precedence: -v, then
// DOCSITE_LOG_LEVEL, then logging.level.
func setupLogging(w io.Writer, verbose bool, cfg config.LoggingConfig) {
	level := cfg.Level.SlogLevel()
	if env := strings.TrimSpace(os.Getenv(LogLevelEnv)); env != "" {
		level = config.NormalizeLogLevel(env).SlogLevel()
	}
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(w, opts)
	if cfg.Format == config.LogFormatJSON {
		h = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
}

// session is a loaded configuration with its task graph and sinks wired.
type session struct {
	cfg      *config.Config
	root     string
	seq      *tasks.Sequencer
	registry *prom.Registry
	metrics  metrics.Recorder
	recorder *eventstore.Recorder
}

// openSession loads the configuration, registers the tasks and attaches
// metrics and run history. Sink failures are logged; they never prevent a build.
func openSession(ctx context.Context, cli *CLI) (*session, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, err
	}
	setupLogging(cli.stderr(), cli.Verbose, cfg.Logging)

	s := &session{cfg: cfg, root: cli.root(), metrics: metrics.NoopRecorder{}}
	reg := tasks.NewRegistry()
	if err := buildplan.Register(reg, buildplan.Env{Config: cfg, Root: s.root, Reports: cli.stderr()}); err != nil {
		return nil, err
	}
	s.seq = tasks.NewSequencer(reg)

	if cfg.Serve.Metrics {
		s.registry = metrics.NewRegistry()
		s.metrics = metrics.NewPrometheusRecorder(s.registry)
		s.seq.WithRecorder(s.metrics)
	}

	var store eventstore.Store
	if cfg.History.IsEnabled() {
		path := s.path(cfg.History.Path)
		if st, err := eventstore.NewSQLiteStore(path); err != nil {
			slog.Warn("Run history disabled", logfields.Path(path), logfields.Error(err))
		} else {
			store = st
		}
	}
	var pub eventstore.Publisher
	if cfg.Events.NATSURL != "" {
		p, err := eventstore.NewNATSPublisher(ctx, eventstore.NATSConfig{
			URL:     cfg.Events.NATSURL,
			Subject: cfg.Events.Subject,
			Stream:  cfg.Events.Stream,
			Timeout: cfg.Events.Timeout,
		})
		if err != nil {
			slog.Warn("Event publishing disabled", logfields.URL(cfg.Events.NATSURL), logfields.Error(err))
		} else {
			pub = p
		}
	}
	if store != nil || pub != nil {
		s.recorder = eventstore.NewRecorder(store, pub)
		s.seq.WithObserver(s.recorder)
	}
	return s, nil
}

func (s *session) path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(s.root, rel)
}

func (s *session) Close() {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Close(); err != nil {
		slog.Warn("Failed to close run history", logfields.Error(err))
	}
}
