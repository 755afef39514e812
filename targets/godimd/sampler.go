//go:build linux

package main

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"

	"godim/core"
)

// fullScale is the pot supply on the Pi rig. The wiper spans the whole
// rail, so the full sample range maps onto it.
const fullScale = 3300 * physic.MilliVolt

// i2cSampler implements core.SamplerDriver on an ADS1115. A conversion
// takes about a millisecond of bus traffic, so Start only pokes the
// worker and the worker delivers off the hot path.
type i2cSampler struct {
	pin     ads1x15.PinADC
	bus     i2c.BusCloser
	kick    chan struct{}
	done    chan struct{}
	deliver func(core.AnalogSample)
}

func newSampler(config *Config, deliver func(core.AnalogSample)) (*i2cSampler, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host drivers: %w", err)
	}

	bus, err := i2creg.Open(config.I2CBus)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", config.I2CBus, err)
	}

	opts := ads1x15.DefaultOpts
	opts.I2cAddress = config.ADCAddress
	adc, err := ads1x15.NewADS1115(bus, &opts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("open ads1115 at %#x: %w", config.ADCAddress, err)
	}

	pin, err := adc.PinForChannel(ads1x15.Channel0, fullScale, 860*physic.Hertz, ads1x15.SaveEnergy)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("configure adc channel 0: %w", err)
	}

	s := &i2cSampler{
		pin:     pin,
		bus:     bus,
		kick:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		deliver: deliver,
	}
	go s.worker()
	return s, nil
}

// Start requests one conversion. A request while one is in flight is
// absorbed; the result still lands before the half-cycle it matters to.
func (s *i2cSampler) Start() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *i2cSampler) worker() {
	for {
		select {
		case <-s.done:
			return
		case <-s.kick:
		}

		sample, err := s.pin.Read()
		if err != nil {
			log.Printf("adc read: %v", err)
			continue
		}
		s.deliver(scaleSample(sample.V))
	}
}

// scaleSample maps a measured voltage onto the 10-bit sample domain.
func scaleSample(v physic.ElectricPotential) core.AnalogSample {
	if v <= 0 {
		return 0
	}
	scaled := uint64(v) * core.SampleMax / uint64(fullScale)
	if scaled > core.SampleMax {
		scaled = core.SampleMax
	}
	return core.AnalogSample(scaled)
}

// Close stops the worker and releases the bus.
func (s *i2cSampler) Close() error {
	close(s.done)
	if err := s.pin.Halt(); err != nil {
		s.bus.Close()
		return fmt.Errorf("halt adc pin: %w", err)
	}
	return s.bus.Close()
}
