package preview

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Poller periodically rebuilds every mapped task. It is the fallback for
// filesystems where change notifications are unreliable.
type Poller struct {
	scheduler gocron.Scheduler
}

// NewPoller schedules loop.TriggerAll every interval. Call Start to begin.
func NewPoller(ctx context.Context, interval time.Duration, loop *Loop) (*Poller, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRuntime, "failed to create poll scheduler").Build()
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(loop.TriggerAll, ctx),
		gocron.WithName("poll-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to schedule poll rebuild").
			WithContext("interval", interval.String()).
			Build()
	}
	return &Poller{scheduler: s}, nil
}

// Start begins polling.
func (p *Poller) Start() {
	slog.Info("Starting poll scheduler")
	p.scheduler.Start()
}

// Stop shuts the scheduler down.
func (p *Poller) Stop() error {
	return p.scheduler.Shutdown()
}
