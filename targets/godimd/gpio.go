//go:build linux

package main

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// gateLine drives the optotriac through a GPIO character device line.
type gateLine struct {
	line *gpiocdev.Line
}

// Set drives the gate level. There is no error path on this side of the
// engine; a failed write leaves the gate where it was and the next
// half-cycle rewrites it.
func (g gateLine) Set(on bool) {
	v := 0
	if on {
		v = 1
	}
	g.line.SetValue(v)
}

// lines bundles the two GPIO requests so they release together.
type lines struct {
	chip *gpiocdev.Chip
	gate *gpiocdev.Line
	zc   *gpiocdev.Line
}

// openLines requests the gate output and the detector input. Rising edges
// on the detector line reach onEdge from the kernel event queue.
func openLines(config *Config, onEdge func()) (*lines, error) {
	chip, err := gpiocdev.NewChip(config.Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %q: %w", config.Chip, err)
	}

	gate, err := chip.RequestLine(config.GatePin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request gate line %d: %w", config.GatePin, err)
	}

	zc, err := chip.RequestLine(config.ZeroCrossPin,
		gpiocdev.AsInput,
		gpiocdev.WithRisingEdge,
		gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) { onEdge() }))
	if err != nil {
		gate.Close()
		chip.Close()
		return nil, fmt.Errorf("request zero-cross line %d: %w", config.ZeroCrossPin, err)
	}

	return &lines{chip: chip, gate: gate, zc: zc}, nil
}

// Close drops the gate and releases both lines and the chip handle.
func (l *lines) Close() error {
	var errs []error

	if l.gate != nil {
		if err := l.gate.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("drop gate: %w", err))
		}
		if err := l.gate.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close gate line: %w", err))
		}
	}
	if l.zc != nil {
		if err := l.zc.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close zero-cross line: %w", err))
		}
	}
	if l.chip != nil {
		if err := l.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("gpio close: %v", errs)
	}
	return nil
}
