package tasks

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/movieontip/movieontip/internal/scheduler"
)

// Sweeper unmounts idle views.
type Sweeper interface {
	Sweep(maxIdle time.Duration) int
}

// ViewSweepTask unmounts views whose page has not been used for a while.
type ViewSweepTask struct {
	views   Sweeper
	maxIdle time.Duration
	logger  zerolog.Logger
}

func NewViewSweepTask(views Sweeper, maxIdle time.Duration, logger zerolog.Logger) *ViewSweepTask {
	return &ViewSweepTask{
		views:   views,
		maxIdle: maxIdle,
		logger:  logger.With().Str("task", "view-sweep").Logger(),
	}
}

// Run executes one sweep.
func (t *ViewSweepTask) Run(ctx context.Context) error {
	if removed := t.views.Sweep(t.maxIdle); removed > 0 {
		t.logger.Debug().Int("removed", removed).Msg("Idle views unmounted")
	}
	return nil
}

// RegisterViewSweepTask registers the view sweep with the scheduler.
func RegisterViewSweepTask(sched *scheduler.Scheduler, views Sweeper, cron string, maxIdle time.Duration, logger zerolog.Logger) error {
	if maxIdle <= 0 {
		maxIdle = 30 * time.Minute
	}
	task := NewViewSweepTask(views, maxIdle, logger)

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          "view-sweep",
		Name:        "View Sweep",
		Description: "Unmounts views that have not been used recently",
		Cron:        cron,
		Func:        task.Run,
	})
}
