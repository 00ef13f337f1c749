package startup

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func fastRetry() RetryConfig {
	return RetryConfig{InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, MaxAttempts: 4, Multiplier: 2}
}

type flakyPinger struct {
	failures int
	calls    int
	err      error
}

func (p *flakyPinger) Ping(context.Context) error {
	p.calls++
	if p.calls <= p.failures {
		return p.err
	}
	return nil
}

func TestIsNetworkError(t *testing.T) {
	assert.False(t, IsNetworkError(nil))
	assert.True(t, IsNetworkError(errors.New("dial tcp 127.0.0.1:3001: connect: connection refused")))
	assert.True(t, IsNetworkError(fmt.Errorf("HTTP request failed: %w", context.DeadlineExceeded)))
	assert.False(t, IsNetworkError(errors.New("catalog API error: status 500")))
}

func TestWaitForBackend_RecoversAfterNetworkErrors(t *testing.T) {
	p := &flakyPinger{failures: 2, err: errors.New("connection refused")}
	err := WaitForBackend(context.Background(), p, fastRetry(), zerolog.Nop())
	assert.NoError(t, err)
	assert.Equal(t, 3, p.calls)
}

func TestWaitForBackend_GivesUp(t *testing.T) {
	p := &flakyPinger{failures: 100, err: errors.New("connection refused")}
	err := WaitForBackend(context.Background(), p, fastRetry(), zerolog.Nop())
	assert.Error(t, err)
	assert.Equal(t, 4, p.calls)
}

func TestWithRetry_NonNetworkErrorFailsFast(t *testing.T) {
	p := &flakyPinger{failures: 100, err: errors.New("catalog API error: status 500")}
	err := WithRetry(context.Background(), "ping", fastRetry(), p.Ping, zerolog.Nop())
	assert.Error(t, err)
	assert.Equal(t, 1, p.calls)
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := fastRetry()
	cfg.InitialDelay = time.Hour
	p := &flakyPinger{failures: 100, err: errors.New("connection refused")}

	err := WithRetry(ctx, "ping", cfg, p.Ping, zerolog.Nop())
	assert.ErrorIs(t, err, context.Canceled)
}
