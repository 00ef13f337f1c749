package tasks

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/movieontip/movieontip/internal/scheduler"
)

// Cleaner drops expired rate limit buckets.
type Cleaner interface {
	Cleanup() int
}

// RegisterRateLimitCleanupTask registers periodic pruning of the mutation
// rate limiter.
func RegisterRateLimitCleanupTask(sched *scheduler.Scheduler, limiter Cleaner, cron string, logger zerolog.Logger) error {
	log := logger.With().Str("task", "ratelimit-cleanup").Logger()

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          "ratelimit-cleanup",
		Name:        "Rate Limit Cleanup",
		Description: "Drops expired per-IP mutation counters",
		Cron:        cron,
		Func: func(ctx context.Context) error {
			if n := limiter.Cleanup(); n > 0 {
				log.Debug().Int("removed", n).Msg("Expired rate limit buckets dropped")
			}
			return nil
		},
	})
}
