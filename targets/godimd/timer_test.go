//go:build linux

package main

import (
	"sync"
	"testing"
	"time"

	"godim/core"
)

func TestSoftTimerFires(t *testing.T) {
	fired := make(chan struct{}, 1)
	tm := newSoftTimer(func() { fired <- struct{}{} })

	tm.Program(core.Program{Prescaler: core.Prescaler8, Count: 149}) // 250us

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
}

func TestSoftTimerStopCancels(t *testing.T) {
	fired := make(chan struct{}, 1)
	tm := newSoftTimer(func() { fired <- struct{}{} })

	tm.Program(core.Program{Prescaler: core.Prescaler256, Count: 255}) // ~13.6ms
	tm.Stop()

	select {
	case <-fired:
		t.Fatal("timer fired after Stop")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSoftTimerMasksStalledMatch(t *testing.T) {
	fired := make(chan struct{}, 1)
	tm := newSoftTimer(func() { fired <- struct{}{} })

	tm.Program(core.Program{Prescaler: core.Prescaler256, Count: 255}) // ~13.6ms

	// Stall delivery the way a loaded scheduler would: the runtime
	// callback expires and parks on the mutex while the timer is
	// disarmed underneath it.
	tm.mu.Lock()
	time.Sleep(30 * time.Millisecond)
	tm.disarm()
	tm.mu.Unlock()

	select {
	case <-fired:
		t.Fatal("stale match delivered after disarm")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSoftTimerReprogramReplaces(t *testing.T) {
	var mu sync.Mutex
	fires := 0
	tm := newSoftTimer(func() {
		mu.Lock()
		fires++
		mu.Unlock()
	})

	tm.Program(core.Program{Prescaler: core.Prescaler256, Count: 255}) // ~13.6ms
	tm.Program(core.Program{Prescaler: core.Prescaler8, Count: 59})    // 100us

	// Long enough for both programs to have fired if the first survived.
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if fires != 1 {
		t.Fatalf("fired %d times, want 1", fires)
	}
}
