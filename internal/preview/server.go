package preview

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// ServerOptions configures the preview HTTP server.
type ServerOptions struct {
	Host string
	Port int
	// Dir is the output tree to serve.
	Dir string
	// Hub enables live reload when set.
	Hub *Hub
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// Server serves the output tree, the live-reload endpoints and metrics on one port.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// NewServer builds the server; call Start to bind it.
func NewServer(opts ServerOptions) *Server {
	return &Server{srv: &http.Server{
		Addr:              net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port)),
		Handler:           Handler(opts),
		ReadHeaderTimeout: 10 * time.Second,
		// No write timeout: SSE connections are long-lived.
		IdleTimeout: 300 * time.Second,
	}}
}

// Handler returns the request router for opts.
func Handler(opts ServerOptions) http.Handler {
	mux := http.NewServeMux()
	var site http.Handler = http.FileServer(http.Dir(opts.Dir))
	if opts.Hub != nil {
		site = InjectScript(site)
		mux.Handle("/livereload", opts.Hub)
		mux.HandleFunc("/livereload.js", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			_, _ = w.Write([]byte(Script))
		})
	}
	if opts.Metrics != nil {
		mux.Handle("/metrics", opts.Metrics)
	}
	mux.Handle("/", noCache(site))
	return mux
}

func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		next.ServeHTTP(w, r)
	})
}

// Start binds the listener and serves in the background. Binding errors
// are returned; later serve errors are logged.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return errors.WrapError(err, errors.CategoryNetwork, "failed to bind preview server").
			WithContext("addr", s.srv.Addr).
			Build()
	}
	s.ln = ln
	go func() {
		if err := s.srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			slog.Error("Preview server stopped", logfields.Error(err))
		}
	}()
	slog.Info("Preview server started", logfields.URL("http://"+s.Addr()+"/"))
	return nil
}

// Addr is the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.srv.Addr
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "preview server shutdown").Build()
	}
	return nil
}
