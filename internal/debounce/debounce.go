// Package debounce collapses bursts of calls into a single callback that
// runs on an owning loop once input has been quiet for a fixed delay.
package debounce

import (
	"sync"
	"time"

	"github.com/dollspace-gay/AuroraHeart/internal/loop"
)

// Timer is the subset of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debouncer runs a callback after no new calls have been made for the delay.
//
// The timer fires on a runtime goroutine; the callback itself is posted to
// the loop, and a sequence number recorded at scheduling time is re-checked
// there, so a callback that was superseded or canceled while in the queue
// never runs. At most one timer is pending at a time.
type Debouncer struct {
	mu       sync.Mutex
	delay    time.Duration
	timer    Timer
	pending  bool
	seq      uint64 // sequence number to detect stale callbacks
	callback func()

	poster    loop.Poster
	afterFunc AfterFunc
}

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithAfterFunc replaces the timer source. Tests use it to fire timers by hand.
func WithAfterFunc(fn AfterFunc) Option {
	return func(d *Debouncer) {
		d.afterFunc = fn
	}
}

// New creates a debouncer whose callback runs on poster.
func New(delay time.Duration, poster loop.Poster, callback func(), opts ...Option) *Debouncer {
	d := &Debouncer{
		delay:     delay,
		callback:  callback,
		poster:    poster,
		afterFunc: realAfterFunc,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Call schedules the callback, replacing any pending schedule.
func (d *Debouncer) Call() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = true
	d.seq++
	currentSeq := d.seq

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = d.afterFunc(d.delay, func() {
		d.poster.Post(func() { d.fire(currentSeq) })
	})
}

// fire runs on the loop.
func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if !d.pending || d.seq != seq || d.callback == nil {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.callback()
}

// Flush runs the callback immediately if a call is pending and cancels the
// scheduled one. It must be called on the loop.
func (d *Debouncer) Flush() {
	d.mu.Lock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	// Increment seq to invalidate any queued timer callback
	d.seq++

	if d.pending && d.callback != nil {
		d.pending = false
		d.mu.Unlock()
		d.callback()
		return
	}
	d.mu.Unlock()
}

// Cancel drops any pending call without running it.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	d.pending = false
}

// IsPending reports whether a call is waiting to fire.
func (d *Debouncer) IsPending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Delay returns the quiet period.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}
