package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movieontip/movieontip/internal/health"
	"github.com/movieontip/movieontip/internal/scheduler"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type countingSweeper struct {
	maxIdle time.Duration
	calls   int
}

func (s *countingSweeper) Sweep(maxIdle time.Duration) int {
	s.maxIdle = maxIdle
	s.calls++
	return 2
}

type countingCleaner struct{ calls int }

func (c *countingCleaner) Cleanup() int {
	c.calls++
	return 1
}

func TestBackendHealthTask(t *testing.T) {
	svc := health.NewService(zerolog.Nop())

	down := NewBackendHealthTask(stubPinger{err: errors.New("connection refused")}, svc, zerolog.Nop())
	assert.Error(t, down.Run(context.Background()))
	item, ok := svc.Get(health.CategoryBackend, backendHealthID)
	require.True(t, ok)
	assert.Equal(t, health.StatusError, item.Status)
	assert.Equal(t, "connection refused", item.Message)

	up := NewBackendHealthTask(stubPinger{}, svc, zerolog.Nop())
	require.NoError(t, up.Run(context.Background()))
	item, _ = svc.Get(health.CategoryBackend, backendHealthID)
	assert.Equal(t, health.StatusOK, item.Status)
}

type stubHub struct{ running bool }

func (h stubHub) Running() bool    { return h.running }
func (h stubHub) ClientCount() int { return 3 }

func TestRealtimeHealthTask(t *testing.T) {
	svc := health.NewService(zerolog.Nop())

	require.NoError(t, NewRealtimeHealthTask(stubHub{running: true}, svc, zerolog.Nop()).Run(context.Background()))
	item, ok := svc.Get(health.CategoryRealtime, realtimeHealthID)
	require.True(t, ok)
	assert.Equal(t, health.StatusOK, item.Status)

	err := NewRealtimeHealthTask(stubHub{}, svc, zerolog.Nop()).Run(context.Background())
	assert.ErrorIs(t, err, errHubStopped)
	item, _ = svc.Get(health.CategoryRealtime, realtimeHealthID)
	assert.Equal(t, health.StatusError, item.Status)
}

func TestViewSweepTask(t *testing.T) {
	sweeper := &countingSweeper{}
	task := NewViewSweepTask(sweeper, 10*time.Minute, zerolog.Nop())

	require.NoError(t, task.Run(context.Background()))
	assert.Equal(t, 1, sweeper.calls)
	assert.Equal(t, 10*time.Minute, sweeper.maxIdle)
}

func TestRegisterTasks(t *testing.T) {
	sched, err := scheduler.New(zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sched.Stop() })

	require.NoError(t, RegisterViewSweepTask(sched, &countingSweeper{}, "* * * * *", 0, zerolog.Nop()))
	require.NoError(t, RegisterBackendHealthTask(sched, stubPinger{}, health.NewService(zerolog.Nop()), "*/5 * * * *", zerolog.Nop()))
	require.NoError(t, RegisterRateLimitCleanupTask(sched, &countingCleaner{}, "*/10 * * * *", zerolog.Nop()))
	require.NoError(t, RegisterRealtimeHealthTask(sched, stubHub{running: true}, health.NewService(zerolog.Nop()), "*/5 * * * *", zerolog.Nop()))

	ids := []string{}
	for _, info := range sched.ListTasks() {
		ids = append(ids, info.ID)
	}
	assert.Equal(t, []string{"backend-health", "ratelimit-cleanup", "realtime-health", "view-sweep"}, ids)
}

func TestRateLimitCleanupTask(t *testing.T) {
	sched, err := scheduler.New(zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sched.Stop() })

	cleaner := &countingCleaner{}
	require.NoError(t, RegisterRateLimitCleanupTask(sched, cleaner, "*/10 * * * *", zerolog.Nop()))
	require.NoError(t, sched.RunNow("ratelimit-cleanup"))

	require.Eventually(t, func() bool {
		info, err := sched.GetTask("ratelimit-cleanup")
		return err == nil && info.LastRun != nil && !info.Running
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, cleaner.calls)
}
