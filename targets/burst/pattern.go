// Package burst provides integral-cycle gate control: whole conducting
// half-cycles spread evenly through a repeating window, switched only at
// the zero cross. No phase cutting means no RFI; the tradeoff is flicker,
// which suits heaters and not lamps.
package burst

import "errors"

var ErrBadDuty = errors.New("burst: duty outside window")

// Pattern decides which half-cycles conduct. On half-cycles are spread
// evenly through the window with an error accumulator, so 25/100 fires
// every fourth half-cycle instead of a 25-long burst.
type Pattern struct {
	on     int
	window int
	acc    int
}

// NewPattern builds a pattern conducting on of window half-cycles.
func NewPattern(on, window int) (*Pattern, error) {
	if window <= 0 || on < 0 || on > window {
		return nil, ErrBadDuty
	}
	return &Pattern{on: on, window: window}, nil
}

// SetDuty changes the pattern. Takes effect on the next half-cycle.
func (p *Pattern) SetDuty(on, window int) error {
	if window <= 0 || on < 0 || on > window {
		return ErrBadDuty
	}
	p.on = on
	p.window = window
	if p.acc >= window {
		p.acc = 0
	}
	return nil
}

// Next advances one half-cycle and reports whether it conducts.
func (p *Pattern) Next() bool {
	p.acc += p.on
	if p.acc >= p.window {
		p.acc -= p.window
		return true
	}
	return false
}
