//go:build avr && attiny13

package main

import (
	"device/avr"
	"runtime/interrupt"

	"godim/core"
)

// potSampler implements core.SamplerDriver on ADC3. One conversion per
// zero cross; free-running mode would fire the interrupt continuously
// for no benefit.
type potSampler struct{}

func initSampler() potSampler {
	// Digital input buffer off on the analog pin.
	avr.DIDR0.SetBits(avr.DIDR0_ADC3D)
	// Channel ADC3, Vcc reference, right-adjusted result.
	avr.ADMUX.SetBits(avr.ADMUX_MUX0 | avr.ADMUX_MUX1)
	// Clock /64 keeps the ADC inside its rated band at 4.8 MHz.
	avr.ADCSRA.SetBits(avr.ADCSRA_ADEN | avr.ADCSRA_ADIE |
		avr.ADCSRA_ADPS2 | avr.ADCSRA_ADPS1)
	return potSampler{}
}

func (potSampler) Start() {
	avr.ADCSRA.SetBits(avr.ADCSRA_ADSC)
}

// handleConversion reads the result pair. ADCL comes first; reading it
// locks ADCH until both are out.
func handleConversion(interrupt.Interrupt) {
	lo := avr.ADCL.Get()
	hi := avr.ADCH.Get()
	ctrl.OnSample(core.AnalogSample(uint16(hi)<<8 | uint16(lo)))
}
