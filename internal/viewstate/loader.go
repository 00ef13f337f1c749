// Package viewstate holds the loading-state machine shared by every
// fetch-driven view.
package viewstate

import (
	"context"
	"errors"
	"sync"

	"github.com/movieontip/movieontip/internal/metrics"
)

// Status is the tri-state loading indicator.
type Status string

const (
	StatusLoading      Status = "LOADING"
	StatusLoaded       Status = "LOADED"
	StatusErrorLoading Status = "ERROR_LOADING"
)

// ErrClosed is returned by Await when the loader was closed before the run settled.
var ErrClosed = errors.New("view closed")

// Op is an asynchronous read whose result becomes the loader's payload.
type Op[T any] func(ctx context.Context) (T, error)

// Snapshot is an immutable copy of a loader's state.
type Snapshot[T any] struct {
	Status  Status
	Payload T
	Err     error
	Seq     uint64
}

// Loader runs fetches for one view. Only the most recent run may commit;
// earlier runs are cancelled and their results dropped.
type Loader[T any] struct {
	mu        sync.Mutex
	parent    context.Context
	cancel    context.CancelFunc
	runCancel context.CancelFunc
	status    Status
	payload   T
	err       error
	seq       uint64
	closed    bool
	settled   chan struct{}
	observers []func(Snapshot[T])
}

// NewLoader creates a loader in the LOADING state. Its runs are bound to
// ctx; cancelling ctx has the same effect as Close.
func NewLoader[T any](ctx context.Context) *Loader[T] {
	parent, cancel := context.WithCancel(ctx)
	return &Loader[T]{
		parent:  parent,
		cancel:  cancel,
		status:  StatusLoading,
		settled: make(chan struct{}),
	}
}

// OnChange registers fn to be called after every state transition.
// fn runs without the loader lock held.
func (l *Loader[T]) OnChange(fn func(Snapshot[T])) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, fn)
}

// Run moves the loader to LOADING, cancels any in-flight run and starts op
// in the background. It returns the sequence number of the new run and a
// channel closed once that run settles (committed or superseded).
func (l *Loader[T]) Run(op Op[T]) (uint64, <-chan struct{}) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		done := make(chan struct{})
		close(done)
		return 0, done
	}

	if l.runCancel != nil {
		l.runCancel()
		metrics.ViewFetchesSuperseded.Inc()
	}

	l.seq++
	seq := l.seq
	ctx, cancel := context.WithCancel(l.parent)
	l.runCancel = cancel
	l.status = StatusLoading
	l.err = nil
	done := make(chan struct{})
	l.settled = done
	snap := l.snapshotLocked()
	observers := l.observers
	l.mu.Unlock()

	notify(observers, snap)

	go func() {
		defer close(done)
		payload, err := op(ctx)
		l.commit(seq, cancel, payload, err)
	}()

	return seq, done
}

func (l *Loader[T]) commit(seq uint64, cancel context.CancelFunc, payload T, err error) {
	defer cancel()

	l.mu.Lock()
	if l.closed || seq != l.seq {
		l.mu.Unlock()
		return
	}

	l.runCancel = nil
	if err != nil {
		l.status = StatusErrorLoading
		l.err = err
	} else {
		l.status = StatusLoaded
		l.payload = payload
	}
	snap := l.snapshotLocked()
	observers := l.observers
	l.mu.Unlock()

	notify(observers, snap)
}

// Await starts op and waits for it to settle or for ctx to expire,
// whichever comes first. The returned snapshot is the state at that moment.
func (l *Loader[T]) Await(ctx context.Context, op Op[T]) (Snapshot[T], error) {
	_, done := l.Run(op)
	return l.Wait(ctx, done)
}

// Wait blocks until done is closed or ctx expires and returns the current state.
func (l *Loader[T]) Wait(ctx context.Context, done <-chan struct{}) (Snapshot[T], error) {
	select {
	case <-done:
	case <-ctx.Done():
		return l.Snapshot(), ctx.Err()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return l.snapshotLocked(), ErrClosed
	}
	return l.snapshotLocked(), nil
}

// Settled returns a channel closed when the latest run settles.
func (l *Loader[T]) Settled() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settled
}

// Snapshot returns the current state.
func (l *Loader[T]) Snapshot() Snapshot[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// Close cancels in-flight work. Completions arriving afterwards are dropped.
func (l *Loader[T]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.cancel()
}

// Closed reports whether Close was called.
func (l *Loader[T]) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *Loader[T]) snapshotLocked() Snapshot[T] {
	return Snapshot[T]{
		Status:  l.status,
		Payload: l.payload,
		Err:     l.err,
		Seq:     l.seq,
	}
}

func notify[T any](observers []func(Snapshot[T]), snap Snapshot[T]) {
	for _, fn := range observers {
		fn(snap)
	}
}
