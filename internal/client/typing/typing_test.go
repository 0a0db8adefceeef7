package typing

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStopFiresExactlyOnceAfterInactivity(t *testing.T) {
	var starts, stops atomic.Int32
	tr := New(30*time.Millisecond, func() { starts.Add(1) }, func() { stops.Add(1) })

	tr.Keystroke("h")
	tr.Keystroke("he")
	tr.Keystroke("hel")

	time.Sleep(120 * time.Millisecond)

	if got := starts.Load(); got != 1 {
		t.Errorf("expected 1 start, got %d", got)
	}
	if got := stops.Load(); got != 1 {
		t.Errorf("expected exactly 1 stop, got %d", got)
	}
}

func TestKeystrokeResetsTimer(t *testing.T) {
	var stops atomic.Int32
	tr := New(50*time.Millisecond, func() {}, func() { stops.Add(1) })

	tr.Keystroke("a")
	time.Sleep(30 * time.Millisecond)
	tr.Keystroke("ab") // inside the window, should push expiry out
	time.Sleep(30 * time.Millisecond)

	if got := stops.Load(); got != 0 {
		t.Fatalf("timer fired despite reset: %d stops", got)
	}

	time.Sleep(60 * time.Millisecond)
	if got := stops.Load(); got != 1 {
		t.Errorf("expected 1 stop after final expiry, got %d", got)
	}
}

func TestEmptyInputStopsImmediately(t *testing.T) {
	var stops atomic.Int32
	tr := New(time.Hour, func() {}, func() { stops.Add(1) })

	tr.Keystroke("draft")
	tr.Keystroke("")

	if got := stops.Load(); got != 1 {
		t.Errorf("expected immediate stop on empty input, got %d", got)
	}

	// Explicit stop after the broadcast already ended must not re-fire.
	tr.Stop()
	if got := stops.Load(); got != 1 {
		t.Errorf("stop fired twice: %d", got)
	}
}

// A single keystroke followed by an immediate Stop is the send-on-Enter path;
// the stop event reaching the peer before the start leaves its indicator stuck.
func TestStartPrecedesImmediateStop(t *testing.T) {
	for i := 0; i < 20; i++ {
		var mu sync.Mutex
		var events []string
		record := func(e string) func() {
			return func() {
				mu.Lock()
				events = append(events, e)
				mu.Unlock()
			}
		}
		tr := New(time.Hour, record("start"), record("stop"))

		tr.Keystroke("h")
		tr.Stop()

		mu.Lock()
		got := append([]string(nil), events...)
		mu.Unlock()
		if len(got) != 2 || got[0] != "start" || got[1] != "stop" {
			t.Fatalf("events emitted out of order: %v", got)
		}
	}
}

func TestRestartAfterStop(t *testing.T) {
	var starts, stops atomic.Int32
	tr := New(30*time.Millisecond, func() { starts.Add(1) }, func() { stops.Add(1) })

	tr.Keystroke("one")
	tr.Stop()
	tr.Keystroke("two")
	time.Sleep(100 * time.Millisecond)

	if got := starts.Load(); got != 2 {
		t.Errorf("expected 2 starts, got %d", got)
	}
	if got := stops.Load(); got != 2 {
		t.Errorf("expected 2 stops, got %d", got)
	}
}
