package viewstate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_InitialState(t *testing.T) {
	l := NewLoader[int](context.Background())
	snap := l.Snapshot()
	assert.Equal(t, StatusLoading, snap.Status)
	assert.Zero(t, snap.Seq)
}

func TestLoader_AwaitSuccess(t *testing.T) {
	l := NewLoader[[]string](context.Background())

	snap, err := l.Await(context.Background(), func(ctx context.Context) ([]string, error) {
		return []string{"a", "b"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, StatusLoaded, snap.Status)
	assert.Equal(t, []string{"a", "b"}, snap.Payload)
	assert.NoError(t, snap.Err)
}

func TestLoader_AwaitFailure(t *testing.T) {
	l := NewLoader[int](context.Background())
	boom := errors.New("connection refused")

	snap, err := l.Await(context.Background(), func(ctx context.Context) (int, error) {
		return 0, boom
	})
	require.NoError(t, err)
	assert.Equal(t, StatusErrorLoading, snap.Status)
	assert.ErrorIs(t, snap.Err, boom)
}

func TestLoader_RerunClearsError(t *testing.T) {
	l := NewLoader[int](context.Background())
	_, _ = l.Await(context.Background(), func(ctx context.Context) (int, error) {
		return 0, errors.New("fail")
	})

	release := make(chan struct{})
	_, done := l.Run(func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	})

	snap := l.Snapshot()
	assert.Equal(t, StatusLoading, snap.Status)
	assert.NoError(t, snap.Err)

	close(release)
	<-done
	assert.Equal(t, StatusLoaded, l.Snapshot().Status)
}

func TestLoader_SupersededRunDoesNotOverwrite(t *testing.T) {
	l := NewLoader[string](context.Background())

	slowStarted := make(chan struct{})
	_, slowDone := l.Run(func(ctx context.Context) (string, error) {
		close(slowStarted)
		<-ctx.Done()
		// Simulate a backend that answers anyway after cancellation.
		return "stale", nil
	})
	<-slowStarted

	snap, err := l.Await(context.Background(), func(ctx context.Context) (string, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	<-slowDone

	assert.Equal(t, "fresh", l.Snapshot().Payload)
	assert.Equal(t, uint64(2), snap.Seq)
}

func TestLoader_SupersededRunIsCancelled(t *testing.T) {
	l := NewLoader[int](context.Background())

	cancelled := make(chan struct{})
	_, _ = l.Run(func(ctx context.Context) (int, error) {
		<-ctx.Done()
		close(cancelled)
		return 0, ctx.Err()
	})
	_, _ = l.Run(func(ctx context.Context) (int, error) { return 2, nil })

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("first run was not cancelled")
	}
}

func TestLoader_CloseDiscardsLateCompletion(t *testing.T) {
	l := NewLoader[string](context.Background())

	release := make(chan struct{})
	_, done := l.Run(func(ctx context.Context) (string, error) {
		<-release
		return "late", nil
	})

	l.Close()
	close(release)
	<-done

	snap := l.Snapshot()
	assert.Equal(t, StatusLoading, snap.Status)
	assert.Empty(t, snap.Payload)
	assert.True(t, l.Closed())
}

func TestLoader_RunAfterClose(t *testing.T) {
	l := NewLoader[int](context.Background())
	l.Close()

	_, err := l.Await(context.Background(), func(ctx context.Context) (int, error) {
		t.Fatal("op must not run after close")
		return 0, nil
	})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestLoader_AwaitTimeout(t *testing.T) {
	l := NewLoader[int](context.Background())
	defer l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	snap, err := l.Await(ctx, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StatusLoading, snap.Status)
}

func TestLoader_ObserversSeeTransitions(t *testing.T) {
	l := NewLoader[int](context.Background())

	var mu sync.Mutex
	var seen []Status
	l.OnChange(func(s Snapshot[int]) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s.Status)
	})

	_, err := l.Await(context.Background(), func(ctx context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Status{StatusLoading, StatusLoaded}, seen)
}
