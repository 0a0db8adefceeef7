// Package typing debounces the local user's typing broadcast: one start event
// when typing begins, one stop event after the inactivity window or when the
// input empties.
package typing

import (
	"strings"
	"sync"
	"time"
)

const DefaultTimeout = 3 * time.Second

type Tracker struct {
	mu      sync.Mutex
	timeout time.Duration
	timer   *time.Timer
	active  bool
	start   func()
	stop    func()
}

// New builds a tracker firing start/stop callbacks. A zero timeout means
// DefaultTimeout. Callbacks run on the timer goroutine or the caller's.
func New(timeout time.Duration, start, stop func()) *Tracker {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Tracker{timeout: timeout, start: start, stop: stop}
}

// Keystroke reports the input's current content after a keystroke. A
// non-empty input starts the broadcast if needed and re-arms the inactivity
// timer; an empty input stops it.
func (t *Tracker) Keystroke(content string) {
	if strings.TrimSpace(content) == "" {
		t.Stop()
		return
	}

	t.mu.Lock()
	if t.active {
		t.timer.Reset(t.timeout)
		t.mu.Unlock()
		return
	}
	t.active = true
	t.timer = time.AfterFunc(t.timeout, t.expire)
	t.mu.Unlock()
	// Synchronous, so a Stop right after this keystroke cannot reach the
	// wire before the start event.
	t.start()
}

func (t *Tracker) expire() {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return
	}
	t.active = false
	t.mu.Unlock()
	t.stop()
}

// Stop ends the broadcast immediately. Safe to call repeatedly; the stop
// callback fires at most once per start.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return
	}
	t.active = false
	t.timer.Stop()
	t.mu.Unlock()
	t.stop()
}
