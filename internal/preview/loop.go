// Package preview serves the output tree with live reload and rebuilds
// tasks when their source files change.
package preview

import (
	"context"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/sitefs"
)

// Runner runs one registered task. tasks.Sequencer satisfies it.
type Runner interface {
	RunTask(ctx context.Context, name string) error
}

// Notifier is told when clients should reload.
type Notifier interface {
	Reload()
}

// Mapping routes changed paths, relative to the project root, to a task.
type Mapping struct {
	Task     string
	Patterns []string
	// Reload notifies clients after a successful rebuild.
	Reload bool
}

// Loop coalesces change events into task rebuilds. Each task is either
// idle or rebuilding; events that arrive during a rebuild collapse into a
// single follow-up run.
type Loop struct {
	runner   Runner
	notifier Notifier
	mappings []Mapping
	reload   map[string]bool
	debounce time.Duration

	mu     sync.Mutex
	states map[string]*taskState
	wg     sync.WaitGroup
}

type taskState struct {
	running bool
	pending bool
	timer   *time.Timer
}

// NewLoop returns a loop. notifier may be nil.
func NewLoop(runner Runner, notifier Notifier, mappings []Mapping, debounce time.Duration) *Loop {
	reload := make(map[string]bool, len(mappings))
	for _, m := range mappings {
		reload[m.Task] = reload[m.Task] || m.Reload
	}
	return &Loop{
		runner:   runner,
		notifier: notifier,
		mappings: mappings,
		reload:   reload,
		debounce: debounce,
		states:   make(map[string]*taskState),
	}
}

// Patterns returns every pattern of every mapping.
func (l *Loop) Patterns() []string {
	var out []string
	for _, m := range l.mappings {
		out = append(out, m.Patterns...)
	}
	return out
}

// HandleEvent triggers every task whose mapping matches rel. It reports
// whether any mapping matched.
func (l *Loop) HandleEvent(ctx context.Context, rel string) bool {
	if shouldIgnore(rel) {
		return false
	}
	matched := false
	seen := make(map[string]bool)
	for _, m := range l.mappings {
		if seen[m.Task] || !sitefs.Match(m.Patterns, rel) {
			continue
		}
		seen[m.Task] = true
		matched = true
		slog.Debug("Change detected", logfields.Path(rel), logfields.Task(m.Task))
		l.Trigger(ctx, m.Task)
	}
	return matched
}

// TriggerAll schedules a rebuild of every mapped task.
func (l *Loop) TriggerAll(ctx context.Context) {
	seen := make(map[string]bool)
	for _, m := range l.mappings {
		if !seen[m.Task] {
			seen[m.Task] = true
			l.Trigger(ctx, m.Task)
		}
	}
}

// Trigger schedules a rebuild of task, after the debounce delay if one is set.
func (l *Loop) Trigger(ctx context.Context, task string) {
	if ctx.Err() != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	st := l.state(task)

	if l.debounce <= 0 {
		l.startLocked(ctx, task, st)
		return
	}
	if st.timer != nil && st.timer.Stop() {
		st.timer.Reset(l.debounce)
		return
	}
	l.wg.Add(1)
	st.timer = time.AfterFunc(l.debounce, func() {
		defer l.wg.Done()
		l.mu.Lock()
		defer l.mu.Unlock()
		l.startLocked(ctx, task, st)
	})
}

func (l *Loop) state(task string) *taskState {
	st, ok := l.states[task]
	if !ok {
		st = &taskState{}
		l.states[task] = st
	}
	return st
}

func (l *Loop) startLocked(ctx context.Context, task string, st *taskState) {
	if st.running {
		st.pending = true
		return
	}
	st.running = true
	l.wg.Add(1)
	go l.rebuild(ctx, task, st)
}

func (l *Loop) rebuild(ctx context.Context, task string, st *taskState) {
	defer l.wg.Done()
	for {
		if ctx.Err() == nil {
			l.runOnce(ctx, task)
		}

		l.mu.Lock()
		if !st.pending || ctx.Err() != nil {
			st.running = false
			st.pending = false
			l.mu.Unlock()
			return
		}
		st.pending = false
		l.mu.Unlock()
	}
}

func (l *Loop) runOnce(ctx context.Context, task string) {
	start := time.Now()
	if err := l.runner.RunTask(ctx, task); err != nil {
		slog.Error("Rebuild failed", logfields.Task(task), logfields.Error(err))
		return
	}
	slog.Info("Rebuilt", logfields.Task(task), logfields.Duration(time.Since(start)))
	if l.reload[task] && l.notifier != nil {
		l.notifier.Reload()
	}
}

// Busy reports whether task is rebuilding.
func (l *Loop) Busy(task string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.states[task]
	return ok && st.running
}

// Wait blocks until no rebuild is scheduled or running.
func (l *Loop) Wait() {
	l.wg.Wait()
}

// shouldIgnore filters hidden files and editor temp/backup files.
func shouldIgnore(p string) bool {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	if base == "" || base == "." {
		return true
	}
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") || strings.HasSuffix(base, ".tmp") {
		return true
	}
	if strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}
