//go:build rp2040 || rp2350

package burst

import (
	"machine"
	"time"

	pio "github.com/tinygo-org/pio/rp2-pio"
	"github.com/tinygo-org/pio/rp2-pio/piolib"
)

// DefaultWindow is the half-cycle count one duty window spans: one second
// of 50 Hz mains.
const DefaultWindow = 100

// Gater drives the optotriac gate from a PIO state machine. The latch
// pulse is hardware timed, so its width holds even when the CPU is busy.
type Gater struct {
	pulsar  *piolib.Pulsar
	pattern *Pattern
}

// NewGater claims the state machine's program slot and prepares the gate
// pulse generator. pulseUS is the latch pulse width.
func NewGater(sm pio.StateMachine, pin machine.Pin, pulseUS uint32) (*Gater, error) {
	pulsar, err := piolib.NewPulsar(sm, pin)
	if err != nil {
		return nil, err
	}

	// One queued count is a full square-wave cycle; the pin sits high
	// for half the period, so the period is twice the pulse width.
	if err := pulsar.SetPeriod(2 * time.Duration(pulseUS) * time.Microsecond); err != nil {
		return nil, err
	}

	pattern, err := NewPattern(0, DefaultWindow)
	if err != nil {
		return nil, err
	}

	return &Gater{pulsar: pulsar, pattern: pattern}, nil
}

// SetDuty sets how many half-cycles conduct per window. Not safe against
// a concurrent OnZeroCross; call it with the detector interrupt masked or
// accept one oddly placed pulse at the change.
func (g *Gater) SetDuty(on, window int) error {
	return g.pattern.SetDuty(on, window)
}

// OnZeroCross is called from the detector pin interrupt. Conducting
// half-cycles get one hardware-timed latch pulse right at the edge.
func (g *Gater) OnZeroCross() {
	if g.pattern.Next() {
		// A full queue means pulses are outpacing the mains; dropping
		// this one beats blocking in the handler.
		_ = g.pulsar.TryQueue(1)
	}
}

// Stop clears the queue and stops pulsing until the next SetDuty.
func (g *Gater) Stop() {
	_ = g.pattern.SetDuty(0, DefaultWindow)
	g.pulsar.Stop()
}
