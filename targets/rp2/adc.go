//go:build rp2040 || rp2350

package main

import (
	"device/rp"
	"machine"

	"godim/core"
)

// oneShotSampler reads the setpoint pot on ADC channel 0. A conversion
// takes 96 cycles of the 48 MHz ADC clock, about 2 us, short enough to
// run synchronously inside the zero-cross handler.
type oneShotSampler struct{}

func initSampler() oneShotSampler {
	machine.InitADC()

	// Puts the pin in analog mode; conversions below drive the
	// peripheral directly.
	adc := machine.ADC{Pin: pinSetpoint}
	adc.Configure(machine.ADCConfig{})

	return oneShotSampler{}
}

func (oneShotSampler) Start() {
	// Select channel 0 and start a single conversion.
	rp.ADC.CS.ReplaceBits(0<<rp.ADC_CS_AINSEL_Pos, rp.ADC_CS_AINSEL_Msk, 0)
	rp.ADC.CS.SetBits(rp.ADC_CS_START_ONCE)

	for !rp.ADC.CS.HasBits(rp.ADC_CS_READY) {
	}

	// 12-bit result scaled to the 10-bit sample domain.
	raw := uint16(rp.ADC.RESULT.Get())
	ctrl.OnSample(core.AnalogSample(raw >> 2))
}
