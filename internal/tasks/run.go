package tasks

import (
	"sync"
	"sync/atomic"
	"time"
)

// Run is the state of one top-level Sequencer.Run: memoized task results,
// per-run memo storage and the halt flag.
type Run struct {
	id      string
	started time.Time
	seq     *Sequencer

	mu      sync.Mutex
	futures map[string]*future
	memo    map[string]*memoEntry

	halted   atomic.Bool
	haltOnce sync.Once
	firstErr error
}

type future struct {
	done chan struct{}
	err  error
}

type memoEntry struct {
	once sync.Once
	val  any
	err  error
}

// ID is the run's UUID, used in logs and history.
func (r *Run) ID() string { return r.id }

// Started is when the run began.
func (r *Run) Started() time.Time { return r.started }

// Memo returns the value stored under key, computing it with fn on first
// use. Concurrent callers for the same key wait for the single computation.
// A failed computation is memoized too.
func (r *Run) Memo(key string, fn func() (any, error)) (any, error) {
	r.mu.Lock()
	e, ok := r.memo[key]
	if !ok {
		e = &memoEntry{}
		r.memo[key] = e
	}
	r.mu.Unlock()

	e.once.Do(func() { e.val, e.err = fn() })
	return e.val, e.err
}

// MemoOf is the typed form of Run.Memo.
func MemoOf[T any](r *Run, key string, fn func() (T, error)) (T, error) {
	v, err := r.Memo(key, func() (any, error) { return fn() })
	if err != nil {
		var zero T
		return zero, err
	}
	t, _ := v.(T)
	return t, nil
}

// halt records err as the run's failure, if it is the first, and stops new actions.
func (r *Run) halt(err error) {
	r.haltOnce.Do(func() {
		r.firstErr = err
		r.halted.Store(true)
	})
}

// haltErr returns the first failure once the run is halted.
func (r *Run) haltErr() error {
	if !r.halted.Load() {
		return nil
	}
	return r.firstErr
}
