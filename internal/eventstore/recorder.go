package eventstore

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/tasks"
)

// Recorder turns sequencer lifecycle callbacks into events, appends them to
// a store and hands them to a publisher. Either sink may be nil. Sink
// failures are logged and never fail the run.
type Recorder struct {
	store Store
	pub   Publisher
}

var _ tasks.Observer = (*Recorder)(nil)

// NewRecorder returns a recorder writing to store and pub.
func NewRecorder(store Store, pub Publisher) *Recorder {
	return &Recorder{store: store, pub: pub}
}

func (r *Recorder) OnRunStart(run *tasks.Run, steps []tasks.Step) {
	r.record(NewRunStarted(run.ID(), tasks.FormatPlan(steps)))
}

func (r *Recorder) OnTaskStart(run *tasks.Run, task string) {
	r.record(NewTaskStarted(run.ID(), task))
}

func (r *Recorder) OnTaskComplete(run *tasks.Run, task string, d time.Duration, err error) {
	r.record(NewTaskFinished(run.ID(), task, Outcome(err), d, err))
}

func (r *Recorder) OnRunComplete(run *tasks.Run, d time.Duration, err error) {
	r.record(NewRunFinished(run.ID(), Outcome(err), d, err))
}

// Outcome maps a task or run error to an outcome string.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	default:
		return OutcomeFailed
	}
}

func (r *Recorder) record(e *Event, err error) {
	if err != nil {
		slog.Warn("Failed to build event", logfields.Error(err))
		return
	}
	// Sinks outlive a canceled run so its final events are kept.
	ctx := context.Background()
	if r.store != nil {
		id, err := r.store.Append(ctx, e)
		if err != nil {
			slog.Warn("Failed to record event", logfields.RunID(e.RunID), slog.String("type", e.Type), logfields.Error(err))
		} else {
			e.Seq = id
		}
	}
	if r.pub != nil {
		if err := r.pub.Publish(ctx, e); err != nil {
			slog.Warn("Failed to publish event", logfields.RunID(e.RunID), slog.String("type", e.Type), logfields.Error(err))
		}
	}
}

// Close closes both sinks.
func (r *Recorder) Close() error {
	var errs []error
	if r.pub != nil {
		errs = append(errs, r.pub.Close())
	}
	if r.store != nil {
		errs = append(errs, r.store.Close())
	}
	return stderrors.Join(errs...)
}
