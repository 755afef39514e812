//go:build rp2040 || rp2350

package main

import (
	"machine"

	"godim/core"
)

// gatePin drives the optotriac LED. The pin idles low; high fires the
// triac.
type gatePin struct {
	pin machine.Pin
}

func initGate(pin machine.Pin) gatePin {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pin.Low()
	return gatePin{pin: pin}
}

func (g gatePin) Set(on bool) {
	if on {
		g.pin.High()
	} else {
		g.pin.Low()
	}
}

// initZeroCross wires the detector edge to the controller. The detector
// releases the line once per half-cycle, a fixed lag after the true zero.
func initZeroCross(pin machine.Pin) {
	pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	pin.SetInterrupt(machine.PinRising, func(machine.Pin) {
		ctrl.OnZeroCross()
	})
}
