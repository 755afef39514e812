//go:build rp2040

package main

import (
	"device/rp"

	"godim/core"
)

// initClock points the core clock at the free-running 1 MHz system timer.
func initClock() {
	core.SetClock(timeLow)
}

// timeLow reads the low word of the 64-bit microsecond counter.
func timeLow() uint32 {
	return rp.TIMER.TIMERAWL.Get()
}
