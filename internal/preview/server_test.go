package preview

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/metrics"
)

type reloadRecorder struct {
	metrics.NoopRecorder
	reloads atomic.Int32
}

func (r *reloadRecorder) IncReload() { r.reloads.Add(1) }

func readDataLine(t *testing.T, br *bufio.Reader) string {
	t.Helper()
	for {
		line, err := br.ReadString('\n')
		require.NoError(t, err)
		if data, ok := strings.CutPrefix(strings.TrimSpace(line), "data: "); ok {
			return data
		}
	}
}

func TestHubStreamsReloads(t *testing.T) {
	rec := &reloadRecorder{}
	hub := NewHub(rec)
	ts := httptest.NewServer(hub)
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	br := bufio.NewReader(resp.Body)
	baseline := readDataLine(t, br)
	assert.Contains(t, baseline, `"hash"`)
	assert.Equal(t, 1, hub.Clients())

	hub.Reload()
	next := readDataLine(t, br)
	assert.NotEqual(t, baseline, next)
	assert.Equal(t, int32(1), rec.reloads.Load())

	hub.Shutdown()
	_, err = io.ReadAll(br)
	require.NoError(t, err)
	assert.Zero(t, hub.Clients())

	resp2, err := http.Get(ts.URL)
	require.NoError(t, err)
	_ = resp2.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp2.StatusCode)
}

func TestHubBroadcastIgnoresRepeats(t *testing.T) {
	rec := &reloadRecorder{}
	hub := NewHub(rec)
	hub.Broadcast("abc")
	hub.Broadcast("abc")
	hub.Broadcast("")
	assert.Equal(t, int32(1), rec.reloads.Load())
}

func TestHubReloadsAreNeverDeduplicated(t *testing.T) {
	rec := &reloadRecorder{}
	hub := NewHub(rec)
	for range 100 {
		hub.Reload()
	}
	assert.Equal(t, int32(100), rec.reloads.Load())
	assert.NotEqual(t, newHash(), newHash())
}

func writeSite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"),
		[]byte("<!DOCTYPE html><html><head><title>Home</title></head><body><h1>Home</h1></body></html>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "js"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "js", "site.js"), []byte("console.log(1);"), 0o644))
	return dir
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestHandlerInjectsScriptIntoPages(t *testing.T) {
	h := Handler(ServerOptions{
		Dir: writeSite(t),
		Hub: NewHub(nil),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "metrics")
		}),
	})

	rr := get(t, h, "/")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), scriptTag+"</body>")
	assert.Equal(t, "no-cache", rr.Header().Get("Cache-Control"))

	rr = get(t, h, "/js/site.js")
	assert.Equal(t, "console.log(1);", rr.Body.String())

	rr = get(t, h, "/livereload.js")
	assert.Equal(t, Script, rr.Body.String())
	assert.Contains(t, rr.Header().Get("Content-Type"), "javascript")

	assert.Equal(t, "metrics", get(t, h, "/metrics").Body.String())
	assert.Equal(t, http.StatusNotFound, get(t, h, "/missing.html").Code)
}

func TestHandlerWithoutLiveReload(t *testing.T) {
	h := Handler(ServerOptions{Dir: writeSite(t)})

	rr := get(t, h, "/")
	assert.NotContains(t, rr.Body.String(), "livereload")
	assert.Equal(t, http.StatusNotFound, get(t, h, "/livereload.js").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/metrics").Code)
}

func TestInjectScriptPassesLargePagesThrough(t *testing.T) {
	big := "<html><body>" + strings.Repeat("x", maxInjectSize) + "</body></html>"
	h := InjectScript(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, big[:100])
		_, _ = io.WriteString(w, big[100:])
	}))
	rr := get(t, h, "/page.html")
	assert.Equal(t, big, rr.Body.String())
}

func TestInjectScriptAppendsWithoutBody(t *testing.T) {
	h := InjectScript(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "<p>fragment</p>")
	}))
	rr := get(t, h, "/frag.html")
	assert.Equal(t, "<p>fragment</p>"+scriptTag, rr.Body.String())
}

func TestServeRunsUntilCanceled(t *testing.T) {
	root := t.TempDir()
	out := writeSite(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "css"), 0o755))

	ctx, cancel := context.WithCancel(t.Context())
	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, &gatedRunner{}, Options{
			Root:       root,
			OutputDir:  out,
			Host:       "127.0.0.1",
			Port:       0,
			LiveReload: true,
			Mappings:   cssMapping(true),
			OnReady:    func(addr string) { ready <- addr },
		})
	}()

	var addr string
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("serve returned early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + addr + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), scriptTag)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}
}
