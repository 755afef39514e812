//go:build rp2350

package main

import (
	"device/rp"

	"godim/core"
)

// initClock points the core clock at the free-running 1 MHz system timer.
// The RP2350 has two system timers; TinyGo's runtime runs on TIMER0 and
// the raw reads here share it harmlessly.
func initClock() {
	core.SetClock(timeLow)
}

// timeLow reads the low word of the 64-bit microsecond counter.
func timeLow() uint32 {
	return rp.TIMER0.TIMERAWL.Get()
}
