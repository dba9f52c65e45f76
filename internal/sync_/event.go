// Package sync_ carries small synchronization helpers on top of the standard
// sync package.
package sync_

import "sync"

// Event is an asynchronous boolean flag that goroutines can wait on, in the
// style of Python's threading.Event.
type Event struct {
	mu    sync.RWMutex
	ch    chan struct{}
	value bool
}

// IsSet returns the current state of the Event.
func (e *Event) IsSet() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.value
}

// Set ensures the Event is true (idempotent), notifying any waiters. Returns
// true if the state was changed.
func (e *Event) Set() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.value {
		return false
	}
	e.value = true
	if e.ch == nil {
		e.ch = make(chan struct{})
	}
	close(e.ch)
	return true
}

// Clear ensures the Event is false (idempotent). Returns true if the state
// was changed.
func (e *Event) Clear() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.value {
		return false
	}
	e.value = false
	e.ch = nil // next Wait() creates a fresh channel
	return true
}

// Wait returns a channel that closes when the Event is true, which may be
// immediately.
func (e *Event) Wait() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ch == nil {
		e.ch = make(chan struct{})
	}
	return e.ch
}
