//go:build linux

package main

import (
	"sync"
	"time"

	"godim/core"
)

// softTimer implements core.TimerDriver on the runtime timer. Linux is
// not an RTOS; matches land within scheduler jitter of the target, which
// is close enough for resistive loads.
type softTimer struct {
	mu      sync.Mutex
	pending *time.Timer
	gen     uint64
	fire    func()
}

func newSoftTimer(fire func()) *softTimer {
	return &softTimer{fire: fire}
}

// Program replaces any pending match with one at the program's duration
// from now. A match from an earlier arming may already be in flight;
// the generation check drops it before delivery.
func (t *softTimer) Program(p core.Program) {
	d := time.Duration(p.DurationUS()) * time.Microsecond

	t.mu.Lock()
	defer t.mu.Unlock()

	t.disarm()
	gen := t.gen
	t.pending = time.AfterFunc(d, func() {
		t.mu.Lock()
		live := t.gen == gen
		t.mu.Unlock()
		if live {
			t.fire()
		}
	})
}

func (t *softTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disarm()
}

// disarm cancels the pending match. Timer.Stop cannot unschedule a
// callback that has already started, so the generation bump masks any
// in-flight match the same way the hardware targets clear a latched
// compare flag before rearming. Callers hold mu.
func (t *softTimer) disarm() {
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	t.gen++
}
