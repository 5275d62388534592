package preview

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
)

// Options configures Serve.
type Options struct {
	// Root is the project root; mapping patterns are relative to it.
	Root         string
	OutputDir    string
	Host         string
	Port         int
	LiveReload   bool
	Debounce     time.Duration
	PollInterval time.Duration
	Mappings     []Mapping
	// Metrics is mounted at /metrics when set.
	Metrics  http.Handler
	Recorder metrics.Recorder
	// OnReady is called with the bound address once the server is listening.
	OnReady func(addr string)
}

// Serve runs the preview server and watch loop until ctx is canceled. The
// initial build is the caller's job and must have succeeded.
func Serve(ctx context.Context, runner Runner, opts Options) error {
	var hub *Hub
	var notifier Notifier
	if opts.LiveReload {
		hub = NewHub(opts.Recorder)
		notifier = hub
	}

	srv := NewServer(ServerOptions{
		Host:    opts.Host,
		Port:    opts.Port,
		Dir:     opts.OutputDir,
		Hub:     hub,
		Metrics: opts.Metrics,
	})
	if err := srv.Start(); err != nil {
		return err
	}

	loop := NewLoop(runner, notifier, opts.Mappings, opts.Debounce)
	watcher, err := NewWatcher(opts.Root, loop.Patterns())
	if err != nil {
		shutdown(srv, hub)
		return err
	}
	go watcher.Run(ctx, loop)
	slog.Info("Watching for changes", logfields.Count(len(watcher.WatchList())))

	var poller *Poller
	if opts.PollInterval > 0 {
		poller, err = NewPoller(ctx, opts.PollInterval, loop)
		if err != nil {
			_ = watcher.Close()
			shutdown(srv, hub)
			return err
		}
		poller.Start()
	}

	if opts.OnReady != nil {
		opts.OnReady(srv.Addr())
	}

	<-ctx.Done()
	slog.Info("Stopping preview")

	if poller != nil {
		if err := poller.Stop(); err != nil {
			slog.Warn("Poll scheduler shutdown", logfields.Error(err))
		}
	}
	if err := watcher.Close(); err != nil {
		slog.Warn("File watcher shutdown", logfields.Error(err))
	}
	shutdown(srv, hub)
	loop.Wait()
	return nil
}

func shutdown(srv *Server, hub *Hub) {
	// SSE streams hold connections open, so release them first.
	if hub != nil {
		hub.Shutdown()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("Preview server shutdown", logfields.Error(err))
	}
}
