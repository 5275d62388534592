package tasks

import "time"

// Observer receives run and task lifecycle events. Task events fire only for
// tasks with an Action and may arrive concurrently from several goroutines.
type Observer interface {
	OnRunStart(run *Run, steps []Step)
	OnTaskStart(run *Run, task string)
	OnTaskComplete(run *Run, task string, d time.Duration, err error)
	OnRunComplete(run *Run, d time.Duration, err error)
}

// NoopObserver is a no-op implementation.
type NoopObserver struct{}

func (NoopObserver) OnRunStart(*Run, []Step)                          {}
func (NoopObserver) OnTaskStart(*Run, string)                         {}
func (NoopObserver) OnTaskComplete(*Run, string, time.Duration, error) {}
func (NoopObserver) OnRunComplete(*Run, time.Duration, error)         {}

// MultiObserver fans events out to several observers in order.
type MultiObserver []Observer

func (m MultiObserver) OnRunStart(run *Run, steps []Step) {
	for _, o := range m {
		o.OnRunStart(run, steps)
	}
}

func (m MultiObserver) OnTaskStart(run *Run, task string) {
	for _, o := range m {
		o.OnTaskStart(run, task)
	}
}

func (m MultiObserver) OnTaskComplete(run *Run, task string, d time.Duration, err error) {
	for _, o := range m {
		o.OnTaskComplete(run, task, d, err)
	}
}

func (m MultiObserver) OnRunComplete(run *Run, d time.Duration, err error) {
	for _, o := range m {
		o.OnRunComplete(run, d, err)
	}
}
