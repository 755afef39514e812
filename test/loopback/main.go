//go:build rp2040 || rp2350

// Hardware loopback check for the dimmer board's signal path.
//
// Jumper the gate output (GPIO15) to the zero-cross input (GPIO2) and
// flash this instead of the main firmware. It drives gate-width pulses
// out and verifies each comes back as exactly one rising edge, through
// the same pin config and interrupt path a detector edge takes into the
// firing engine. No mains wiring is involved.
//
// Usage:
//
//	tinygo flash -target=pico ./test/loopback   (pico2 for RP2350)
//
// Results go to the USB console, one line per round. The onboard LED
// stays lit after a clean run and blinks on any failure.
package main

import (
	"machine"
	"sync/atomic"
	"time"
)

const (
	pinOut = machine.GPIO15 // gate drive, jumpered to the input below
	pinIn  = machine.GPIO2  // zero-cross input

	rounds       = 5
	pulses       = 100
	pulseWidth   = 250 * time.Microsecond
	pulseSpacing = 10 * time.Millisecond // one 50 Hz half-cycle
)

var edges atomic.Uint32

func main() {
	time.Sleep(2 * time.Second) // let USB enumerate

	out := pinOut
	out.Configure(machine.PinConfig{Mode: machine.PinOutput})
	out.Low()

	// Same input setup as the firmware's detector pin.
	in := pinIn
	in.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	err := in.SetInterrupt(machine.PinRising, func(machine.Pin) {
		edges.Add(1)
	})
	if err != nil {
		println("FAIL: interrupt setup:", err.Error())
		blinkForever()
	}

	println("loopback: jumper GPIO15 to GPIO2")
	println("loopback:", rounds, "rounds of", pulses, "pulses")

	failed := 0
	for round := 1; round <= rounds; round++ {
		edges.Store(0)

		for i := 0; i < pulses; i++ {
			out.High()
			time.Sleep(pulseWidth)
			out.Low()
			time.Sleep(pulseSpacing)
		}
		// A straggling edge gets a moment to land before the count.
		time.Sleep(10 * time.Millisecond)

		got := int(edges.Load())
		if got == pulses {
			println("round", round, "PASS:", got, "edges")
		} else {
			println("round", round, "FAIL:", got, "of", pulses, "edges")
			failed++
		}
	}

	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})

	if failed == 0 {
		println("loopback PASS")
		led.High()
		select {}
	}

	println("loopback FAIL:", failed, "of", rounds, "rounds")
	blinkForever()
}

// blinkForever signals a failure on the onboard LED.
func blinkForever() {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for {
		led.High()
		time.Sleep(200 * time.Millisecond)
		led.Low()
		time.Sleep(200 * time.Millisecond)
	}
}
