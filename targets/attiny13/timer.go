//go:build avr && attiny13

package main

import (
	"device/avr"
	"runtime/interrupt"

	"godim/core"
)

const clockSelectMask = avr.TCCR0B_CS00 | avr.TCCR0B_CS01 | avr.TCCR0B_CS02

// compareTimer implements core.TimerDriver on the 8-bit timer in normal
// mode. Arming follows the order the driver contract fixes: mask, halt,
// clear the stale match, write the compare while the count is frozen,
// clock on, unmask.
type compareTimer struct{}

func (compareTimer) Program(p core.Program) {
	avr.TIMSK0.ClearBits(avr.TIMSK0_OCIE0A)
	avr.TCCR0B.ClearBits(clockSelectMask)
	avr.TIFR0.SetBits(avr.TIFR0_OCF0A) // writing 1 clears the flag
	avr.OCR0A.Set(avr.TCNT0.Get() + p.Count)

	switch p.Prescaler {
	case core.Prescaler8:
		avr.TCCR0B.SetBits(avr.TCCR0B_CS01)
	case core.Prescaler64:
		avr.TCCR0B.SetBits(avr.TCCR0B_CS00 | avr.TCCR0B_CS01)
	case core.Prescaler256:
		avr.TCCR0B.SetBits(avr.TCCR0B_CS02)
	}

	avr.TIMSK0.SetBits(avr.TIMSK0_OCIE0A)
}

func (compareTimer) Stop() {
	avr.TIMSK0.ClearBits(avr.TIMSK0_OCIE0A)
	avr.TCCR0B.ClearBits(clockSelectMask)
}

func handleCompareMatch(interrupt.Interrupt) {
	ctrl.OnTimerMatch()
}
