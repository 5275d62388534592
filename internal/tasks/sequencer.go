package tasks

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
)

// Sequencer runs plans of registered tasks.
type Sequencer struct {
	registry *Registry
	recorder metrics.Recorder
	observer Observer
}

// NewSequencer returns a sequencer over registry with no-op metrics and observer.
func NewSequencer(registry *Registry) *Sequencer {
	return &Sequencer{
		registry: registry,
		recorder: metrics.NoopRecorder{},
		observer: NoopObserver{},
	}
}

// WithRecorder sets the metrics recorder.
func (s *Sequencer) WithRecorder(r metrics.Recorder) *Sequencer {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithObserver sets the lifecycle observer.
func (s *Sequencer) WithObserver(o Observer) *Sequencer {
	if o != nil {
		s.observer = o
	}
	return s
}

// Registry returns the registry the sequencer resolves names against.
func (s *Sequencer) Registry() *Registry { return s.registry }

// Run validates steps, then runs them in order. A single-task step completes
// before the next step starts; a parallel step starts all of its tasks and
// completes when every one has settled.
func (s *Sequencer) Run(ctx context.Context, steps ...Step) error {
	if err := s.Validate(steps...); err != nil {
		return err
	}

	run := &Run{
		id:      uuid.NewString(),
		started: time.Now(),
		seq:     s,
		futures: make(map[string]*future),
		memo:    make(map[string]*memoEntry),
	}
	log := slog.With(logfields.RunID(run.id))
	log.Info("Run started", logfields.Step(FormatPlan(steps)))
	s.observer.OnRunStart(run, steps)

	var err error
	for _, st := range steps {
		if err = run.runStep(ctx, st); err != nil {
			break
		}
	}

	dur := time.Since(run.started)
	s.recorder.ObserveRunDuration(dur)
	s.recorder.IncRunOutcome(resultLabel(err))
	s.observer.OnRunComplete(run, dur, err)
	if err != nil {
		log.Error("Run failed", logfields.Duration(dur), logfields.Error(err))
	} else {
		log.Info("Run finished", logfields.Duration(dur))
	}
	return err
}

// RunTask is Run with a single step.
func (s *Sequencer) RunTask(ctx context.Context, name string) error {
	return s.Run(ctx, Seq(name))
}

func (r *Run) runStep(ctx context.Context, st Step) error {
	if len(st.Names) == 1 && !st.Parallel {
		return r.runTask(ctx, st.Names[0])
	}
	return r.runGroup(ctx, st.Names)
}

// runGroup starts names concurrently and returns the first failure after all
// of them have settled.
func (r *Run) runGroup(ctx context.Context, names []string) error {
	var g errgroup.Group
	for _, name := range names {
		g.Go(func() error { return r.runTask(ctx, name) })
	}
	err := g.Wait()
	if first := r.haltErr(); err != nil && first != nil {
		return first
	}
	return err
}

// runTask executes name once per run; concurrent and later callers share the result.
func (r *Run) runTask(ctx context.Context, name string) error {
	r.mu.Lock()
	if f, ok := r.futures[name]; ok {
		r.mu.Unlock()
		select {
		case <-f.done:
			return f.err
		case <-ctx.Done():
			return canceled(ctx)
		}
	}
	f := &future{done: make(chan struct{})}
	r.futures[name] = f
	r.mu.Unlock()

	f.err = r.execute(ctx, name)
	close(f.done)
	return f.err
}

func (r *Run) execute(ctx context.Context, name string) error {
	if err := r.haltErr(); err != nil {
		return err
	}
	t, err := r.seq.registry.Resolve(name)
	if err != nil {
		return err
	}

	if len(t.Deps) > 0 {
		if err := r.runGroup(ctx, t.Deps); err != nil {
			return err
		}
	}
	for _, st := range t.Plan {
		if err := r.runStep(ctx, st); err != nil {
			return err
		}
	}
	if t.Action == nil {
		return nil
	}

	if err := r.haltErr(); err != nil {
		r.seq.recorder.IncTaskResult(name, metrics.ResultSkipped)
		slog.Debug("Task skipped after earlier failure", logfields.RunID(r.id), logfields.Task(name))
		return err
	}
	if ctx.Err() != nil {
		r.seq.recorder.IncTaskResult(name, metrics.ResultCanceled)
		return canceled(ctx)
	}

	return r.act(ctx, t)
}

func (r *Run) act(ctx context.Context, t Task) error {
	log := slog.With(logfields.RunID(r.id), logfields.Task(t.Name))
	log.Info("Starting task")
	r.seq.observer.OnTaskStart(r, t.Name)

	t0 := time.Now()
	err := t.Action(ctx, r)
	dur := time.Since(t0)

	if err != nil {
		aerr := &ActionError{Task: t.Name, Err: err}
		r.halt(aerr)
		r.seq.recorder.ObserveTaskDuration(t.Name, dur)
		r.seq.recorder.IncTaskResult(t.Name, resultLabel(err))
		r.seq.observer.OnTaskComplete(r, t.Name, dur, aerr)
		log.Error("Task failed", logfields.Duration(dur), logfields.Error(err))
		return aerr
	}

	r.seq.recorder.ObserveTaskDuration(t.Name, dur)
	r.seq.recorder.IncTaskResult(t.Name, metrics.ResultSuccess)
	r.seq.observer.OnTaskComplete(r, t.Name, dur, nil)
	log.Info("Finished task", logfields.Duration(dur))
	return nil
}

func canceled(ctx context.Context) error {
	return errors.WrapError(ctx.Err(), errors.CategoryRuntime, "run canceled").Build()
}

func resultLabel(err error) metrics.ResultLabel {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return metrics.ResultCanceled
	default:
		return metrics.ResultFailed
	}
}
