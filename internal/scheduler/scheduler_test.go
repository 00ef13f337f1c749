package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New(zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func TestScheduler_RegisterAndList(t *testing.T) {
	s := newTestScheduler(t)
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.RegisterTask(TaskConfig{ID: "view-sweep", Name: "Sweep", Cron: "* * * * *", Func: noop}))
	require.NoError(t, s.RegisterTask(TaskConfig{ID: "backend-health", Name: "Health", Cron: "*/5 * * * *", Func: noop}))

	err := s.RegisterTask(TaskConfig{ID: "view-sweep", Cron: "* * * * *", Func: noop})
	assert.ErrorIs(t, err, ErrTaskExists)

	tasks := s.ListTasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "backend-health", tasks[0].ID)
	assert.Equal(t, "view-sweep", tasks[1].ID)
}

func TestScheduler_InvalidCron(t *testing.T) {
	s := newTestScheduler(t)
	err := s.RegisterTask(TaskConfig{ID: "bad", Cron: "not a cron", Func: func(context.Context) error { return nil }})
	assert.Error(t, err)
}

func TestScheduler_RunNowRecordsResult(t *testing.T) {
	s := newTestScheduler(t)

	var calls atomic.Int32
	require.NoError(t, s.RegisterTask(TaskConfig{
		ID:   "backend-health",
		Cron: "0 0 1 1 *",
		Func: func(context.Context) error {
			calls.Add(1)
			return errors.New("backend down")
		},
	}))
	s.Start()

	require.NoError(t, s.RunNow("backend-health"))
	require.Eventually(t, func() bool {
		info, err := s.GetTask("backend-health")
		return err == nil && info.LastRun != nil && !info.Running
	}, 2*time.Second, 10*time.Millisecond)

	info, err := s.GetTask("backend-health")
	require.NoError(t, err)
	assert.Equal(t, "backend down", info.LastError)
	assert.Equal(t, int32(1), calls.Load())
}

func TestScheduler_RunNowUnknown(t *testing.T) {
	s := newTestScheduler(t)
	assert.ErrorIs(t, s.RunNow("nope"), ErrTaskNotFound)

	_, err := s.GetTask("nope")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestScheduler_RunOnStart(t *testing.T) {
	s := newTestScheduler(t)

	ran := make(chan struct{})
	require.NoError(t, s.RegisterTask(TaskConfig{
		ID:         "boot",
		Cron:       "0 0 1 1 *",
		RunOnStart: true,
		Func: func(context.Context) error {
			close(ran)
			return nil
		},
	}))
	s.Start()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("RunOnStart task did not run")
	}
}
