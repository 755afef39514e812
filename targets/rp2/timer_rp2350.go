//go:build rp2350

package main

import (
	"device/rp"
	"runtime/interrupt"

	"godim/core"
)

// Alarm 1 of TIMER0; alarm 0 belongs to the TinyGo scheduler. TIMER1
// stays free for application use.
const alarmNum = 1

const alarmMask = uint32(1) << alarmNum

// alarmTimer implements core.TimerDriver on a system timer alarm. The
// hardware compares absolute microseconds, so the relative program
// converts through DurationUS at arm time and the prescaler model only
// shapes the granularity.
type alarmTimer struct{}

func initAlarm() alarmTimer {
	intr := interrupt.New(rp.IRQ_TIMER0_IRQ_1, handleAlarm)
	intr.Enable()
	return alarmTimer{}
}

func (alarmTimer) Program(p core.Program) {
	rp.TIMER0.INTE.ClearBits(alarmMask)
	rp.TIMER0.ARMED.Set(alarmMask) // disarm a pending alarm
	rp.TIMER0.INTR.Set(alarmMask)  // clear a latched match
	rp.TIMER0.ALARM1.Set(rp.TIMER0.TIMERAWL.Get() + p.DurationUS())
	rp.TIMER0.INTE.SetBits(alarmMask)
}

func (alarmTimer) Stop() {
	rp.TIMER0.INTE.ClearBits(alarmMask)
	rp.TIMER0.ARMED.Set(alarmMask)
	rp.TIMER0.INTR.Set(alarmMask)
}

func handleAlarm(interrupt.Interrupt) {
	rp.TIMER0.INTR.Set(alarmMask)
	ctrl.OnTimerMatch()
}
