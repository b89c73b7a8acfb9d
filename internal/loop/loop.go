// Package loop provides the single owning goroutine on which all editor and
// terminal state is mutated.
//
// Collaborator calls (file I/O, process spawn, backend events, timers) run on
// helper goroutines and re-enter the loop with Post. Nothing posted to a loop
// ever runs concurrently with anything else posted to the same loop, so the
// workspace and multiplexer need no locks of their own.
package loop

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Errors returned by the loop.
var (
	// ErrStopped is returned when work is submitted to a stopped loop.
	ErrStopped = errors.New("loop stopped")

	// ErrAlreadyRunning is returned when Run is called twice.
	ErrAlreadyRunning = errors.New("loop already running")
)

// Poster accepts work for the owning goroutine.
// Post reports false if the work was dropped because the loop has stopped.
type Poster interface {
	Post(fn func()) bool
}

// PosterFunc adapts a function to the Poster interface.
type PosterFunc func(fn func()) bool

// Post calls f(fn).
func (f PosterFunc) Post(fn func()) bool {
	return f(fn)
}

// PanicHandler receives panics recovered from posted tasks.
type PanicHandler func(value any, stack []byte)

// Loop is a FIFO task queue drained by a single goroutine.
type Loop struct {
	mu      sync.Mutex
	tasks   []func()
	wake    chan struct{}
	stopped bool

	running atomic.Bool
	done    chan struct{}

	onPanic PanicHandler
}

// Option configures a Loop.
type Option func(*Loop)

// WithPanicHandler installs a handler for panics in posted tasks.
// Without one, a panicking task takes the process down.
func WithPanicHandler(h PanicHandler) Option {
	return func(l *Loop) {
		l.onPanic = h
	}
}

// New creates a loop. It does nothing until Run is called.
func New(opts ...Option) *Loop {
	l := &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post enqueues fn. It never blocks, so it is safe to call from the loop
// itself and from any helper goroutine.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return true
	}

	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do posts fn and waits until it has run on the loop.
// It must not be called from the loop goroutine.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	if !l.Post(func() {
		defer close(ran)
		fn()
	}) {
		return ErrStopped
	}

	select {
	case <-ran:
		return nil
	case <-l.done:
		// The task may have been the last one drained before exit.
		select {
		case <-ran:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains the queue on the calling goroutine until ctx is canceled or
// Stop is called. Tasks already queued when the loop stops are still run.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(l.done)

	for {
		batch, stopped := l.take()
		for _, fn := range batch {
			l.run(fn)
		}
		if stopped {
			return nil
		}
		if len(batch) > 0 {
			continue
		}

		select {
		case <-l.wake:
		case <-ctx.Done():
			l.Stop()
		}
	}
}

// Stop makes Run return after the tasks already queued have run.
// Further Posts are rejected.
func (l *Loop) Stop() {
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// IsRunning reports whether Run is active.
func (l *Loop) IsRunning() bool {
	select {
	case <-l.done:
		return false
	default:
		return l.running.Load()
	}
}

func (l *Loop) take() ([]func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	batch := l.tasks
	l.tasks = nil
	return batch, l.stopped
}

func (l *Loop) run(fn func()) {
	if l.onPanic == nil {
		fn()
		return
	}
	defer func() {
		if r := recover(); r != nil {
			l.onPanic(r, debug.Stack())
		}
	}()
	fn()
}
