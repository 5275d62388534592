package preview

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// Watcher feeds filesystem changes under root into a Loop.
type Watcher struct {
	root string
	fsw  *fsnotify.Watcher
	// recursive holds the absolute directories whose new subdirectories are watched too.
	recursive []string
}

// NewWatcher watches the static base directory of every include pattern.
// Patterns with a "/" or "**" watch their base recursively; a bare file
// pattern such as "site.yml" watches root itself. Missing directories are
// skipped.
func NewWatcher(root string, patterns []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRuntime, "failed to create file watcher").Build()
	}
	w := &Watcher{root: root, fsw: fsw}

	added := make(map[string]bool)
	for _, p := range patterns {
		if strings.HasPrefix(p, "!") {
			continue
		}
		base, _ := doublestar.SplitPattern(p)
		dir := filepath.Join(root, filepath.FromSlash(base))
		if !strings.Contains(p, "/") {
			if !added[dir] {
				added[dir] = true
				if err := fsw.Add(dir); err != nil {
					slog.Debug("Not watching directory", logfields.Path(dir), logfields.Error(err))
				}
			}
			continue
		}
		w.recursive = append(w.recursive, dir)
		w.addRecursive(dir, added)
	}
	return w, nil
}

func (w *Watcher) addRecursive(dir string, added map[string]bool) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if added != nil {
			if added[p] {
				return nil
			}
			added[p] = true
		}
		if err := w.fsw.Add(p); err != nil {
			slog.Debug("Not watching directory", logfields.Path(p), logfields.Error(err))
		}
		return nil
	})
}

// WatchList returns the watched directories.
func (w *Watcher) WatchList() []string {
	return w.fsw.WatchList()
}

// Run delivers events to loop until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context, loop *Loop) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ctx, loop, ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("File watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handle(ctx context.Context, loop *Loop, ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod {
		return
	}
	if ev.Has(fsnotify.Create) && w.underRecursive(ev.Name) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() && !shouldIgnore(ev.Name) {
			w.addRecursive(ev.Name, nil)
		}
	}
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return
	}
	loop.HandleEvent(ctx, filepath.ToSlash(rel))
}

func (w *Watcher) underRecursive(p string) bool {
	for _, dir := range w.recursive {
		if p == dir || strings.HasPrefix(p, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
