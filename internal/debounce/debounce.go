// Package debounce delays a value until its input has been quiet for a
// fixed period.
package debounce

import (
	"sync"
	"time"
)

// Debouncer holds at most one pending value. Every Set cancels the
// pending commit and schedules a new one; the last value wins.
type Debouncer[T any] struct {
	delay time.Duration
	out   chan T

	mu      sync.Mutex
	timer   *time.Timer
	pending T
	armed   bool
	gen     uint64 // invalidates timers that fired after being superseded
	stopped bool
}

// New creates a debouncer that commits values after delay of quiet
func New[T any](delay time.Duration) *Debouncer[T] {
	return &Debouncer[T]{
		delay: delay,
		out:   make(chan T, 1),
	}
}

// C delivers committed values. Only the latest committed value is kept
// if the reader falls behind.
func (d *Debouncer[T]) C() <-chan T {
	return d.out
}

// Set records v and restarts the quiet period
func (d *Debouncer[T]) Set(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	d.gen++
	d.pending = v
	d.armed = true
	if d.timer != nil {
		d.timer.Stop()
	}
	if d.delay <= 0 {
		d.commitLocked()
		return
	}
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped || !d.armed || gen != d.gen {
		return
	}
	d.commitLocked()
}

// commitLocked publishes the pending value. Callers hold d.mu.
func (d *Debouncer[T]) commitLocked() {
	v := d.pending
	d.armed = false
	var zero T
	d.pending = zero

	// Replace an unread value rather than block
	select {
	case <-d.out:
	default:
	}
	d.out <- v
}

// Flush cancels the pending timer and returns the pending value without
// publishing it on C. ok is false when nothing was pending. A value
// already committed but not yet read from C is dropped as well.
func (d *Debouncer[T]) Flush() (v T, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok = d.pending, d.armed
	d.cancelLocked()
	return v, ok
}

// Cancel drops the pending value, if any, and any unread commit
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
}

func (d *Debouncer[T]) cancelLocked() {
	d.gen++
	d.armed = false
	var zero T
	d.pending = zero
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	select {
	case <-d.out:
	default:
	}
}

// Pending reports whether a value is waiting for its quiet period
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.armed
}

// Stop cancels any pending value and ignores all further input
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.stopped = true
}
