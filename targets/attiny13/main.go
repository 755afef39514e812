//go:build avr && attiny13

// Port for the board this controller was designed around: an ATtiny13 at
// 4.8 MHz driving an optotriac from PB0, with the zero-cross detector on
// PB1 (INT0) and the setpoint pot on PB3 (ADC3). Everything runs in the
// interrupt handlers; main just wires them up and parks.
package main

import (
	"device/avr"
	"runtime/interrupt"

	"godim/core"
)

// gateBit is PB0.
const gateBit = 1 << 0

var ctrl *core.Controller

func main() {
	core.SetGateDriver(initGate())
	core.SetTimerDriver(compareTimer{})
	core.SetSamplerDriver(initSampler())

	ctrl = core.NewController(core.DefaultTiming)

	interrupt.New(avr.IRQ_INT0, handleZeroCross)
	interrupt.New(avr.IRQ_TIM0_COMPA, handleCompareMatch)
	interrupt.New(avr.IRQ_ADC, handleConversion)

	// Detector edges may fire from here on; the controller is in place.
	enableZeroCross()

	// Prime the first conversion; each zero cross starts the next.
	core.MustSampler().Start()

	for {
	}
}

// gatePin drives the optotriac LED on PB0. High fires the triac.
type gatePin struct{}

func initGate() gatePin {
	avr.DDRB.SetBits(gateBit)
	avr.PORTB.ClearBits(gateBit)
	return gatePin{}
}

func (gatePin) Set(on bool) {
	if on {
		avr.PORTB.SetBits(gateBit)
	} else {
		avr.PORTB.ClearBits(gateBit)
	}
}

// enableZeroCross arms INT0 on the rising edge of PB1. The pin stays an
// input with the pull-up off out of reset, which the detector circuit
// expects.
func enableZeroCross() {
	avr.MCUCR.SetBits(avr.MCUCR_ISC00 | avr.MCUCR_ISC01)
	avr.GIMSK.SetBits(avr.GIMSK_INT0)
}

func handleZeroCross(interrupt.Interrupt) {
	ctrl.OnZeroCross()
}
