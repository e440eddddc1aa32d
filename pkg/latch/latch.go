// Package latch provides a one-shot countdown latch.
//
// A Latch is created with the number of completions it waits for. Each call to
// Release counts one completion down; when the counter reaches zero every
// continuation registered with OnRelease runs, in registration order. A latch
// created with a zero count is already released.
package latch

import "sync"

// Latch invokes continuations once a counter reaches zero. It is single use.
type Latch struct {
	mu        sync.Mutex
	counter   int
	callbacks []func()
}

// New creates a latch waiting for count releases. A negative count is
// treated as zero.
func New(count int) *Latch {
	if count < 0 {
		count = 0
	}
	return &Latch{counter: count}
}

// Release counts down one completion. The release that brings the counter to
// zero runs the pending continuations; releases beyond zero do nothing.
func (l *Latch) Release() {
	l.mu.Lock()
	if l.counter == 0 {
		l.mu.Unlock()
		return
	}
	l.counter--
	if l.counter > 0 {
		l.mu.Unlock()
		return
	}
	callbacks := l.callbacks
	l.callbacks = nil
	l.mu.Unlock()

	for _, callback := range callbacks {
		callback()
	}
}

// OnRelease registers a continuation. If the latch is already released the
// continuation runs immediately on the calling goroutine.
func (l *Latch) OnRelease(callback func()) {
	l.mu.Lock()
	if l.counter == 0 {
		l.mu.Unlock()
		callback()
		return
	}
	l.callbacks = append(l.callbacks, callback)
	l.mu.Unlock()
}

// Remaining returns the number of releases still expected.
func (l *Latch) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counter
}
