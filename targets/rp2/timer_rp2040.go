//go:build rp2040

package main

import (
	"device/rp"
	"runtime/interrupt"

	"godim/core"
)

// Alarm 1 of the system timer; alarm 0 belongs to the TinyGo scheduler.
const alarmNum = 1

const alarmMask = uint32(1) << alarmNum

// alarmTimer implements core.TimerDriver on a system timer alarm. The
// hardware compares absolute microseconds, so the relative program
// converts through DurationUS at arm time and the prescaler model only
// shapes the granularity.
type alarmTimer struct{}

func initAlarm() alarmTimer {
	intr := interrupt.New(rp.IRQ_TIMER_IRQ_1, handleAlarm)
	intr.Enable()
	return alarmTimer{}
}

func (alarmTimer) Program(p core.Program) {
	rp.TIMER.INTE.ClearBits(alarmMask)
	rp.TIMER.ARMED.Set(alarmMask) // disarm a pending alarm
	rp.TIMER.INTR.Set(alarmMask)  // clear a latched match
	rp.TIMER.ALARM1.Set(rp.TIMER.TIMERAWL.Get() + p.DurationUS())
	rp.TIMER.INTE.SetBits(alarmMask)
}

func (alarmTimer) Stop() {
	rp.TIMER.INTE.ClearBits(alarmMask)
	rp.TIMER.ARMED.Set(alarmMask)
	rp.TIMER.INTR.Set(alarmMask)
}

func handleAlarm(interrupt.Interrupt) {
	rp.TIMER.INTR.Set(alarmMask)
	ctrl.OnTimerMatch()
}
