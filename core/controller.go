package core

import "sync/atomic"

// Controller states. The zero-cross edge unconditionally re-arms, so a
// half-cycle that never fires stays Armed until the next edge.
const (
	StateArmed  uint32 = 0 // Waiting for the firing-delay match
	StateFiring uint32 = 1 // Gate asserted (or pulse finished) until the next edge
)

// overrideNone marks the override cell as inactive.
const overrideNone uint32 = 0xFFFFFFFF

// Controller is the per-half-cycle firing engine for one triac. Its three
// On* methods are the interrupt handlers; the platform must deliver them
// one at a time. Each shared cell below has a single writer: state is
// written by the edge and match handlers (which never interleave), sample
// by OnSample, override by the host side.
type Controller struct {
	timing Timing
	pulse  Program // Gate trigger pulse, precomputed

	gate    GateDriver
	timer   TimerDriver
	sampler SamplerDriver

	state    uint32
	sample   uint32
	override uint32

	// Telemetry cells, written only by OnZeroCross.
	lastPercent uint32
	lastDelay   uint32
	lastPresc   uint32
	lastCount   uint32

	zeroCrossings uint32
	matches       uint32
	conversions   uint32
}

// NewController builds the engine on the registered drivers. The timing
// profile is fixed for the controller's lifetime.
func NewController(t Timing) *Controller {
	return &Controller{
		timing:   t,
		pulse:    t.PulseProgram(),
		gate:     MustGate(),
		timer:    MustTimer(),
		sampler:  MustSampler(),
		override: overrideNone,
	}
}

// Timing returns the controller's timing profile.
func (c *Controller) Timing() Timing {
	return c.timing
}

// OnZeroCross handles the mains zero-cross edge. Order matters: the gate
// drops before anything else, the new plan is armed, state resets, and a
// fresh conversion starts for the next half-cycle. This handler wins every
// race: whatever the other handlers were doing, the cycle restarts here.
func (c *Controller) OnZeroCross() {
	c.gate.Set(false)

	p := c.Percent()
	plan := c.timing.Plan(p)
	if plan.Run {
		c.timer.Program(plan.Prog)
	} else {
		c.timer.Stop()
		RecordTrace(TraceStop, uint32(p))
	}
	atomic.StoreUint32(&c.state, StateArmed)
	c.sampler.Start()

	atomic.AddUint32(&c.zeroCrossings, 1)
	atomic.StoreUint32(&c.lastPercent, uint32(p))
	atomic.StoreUint32(&c.lastDelay, plan.DelayUS)
	atomic.StoreUint32(&c.lastPresc, uint32(plan.Prog.Prescaler))
	atomic.StoreUint32(&c.lastCount, uint32(plan.Prog.Count))
	RecordTrace(TraceZeroCross, uint32(p))
}

// OnTimerMatch handles the compare match. Armed: the firing delay just
// elapsed, so the gate asserts and the pulse timer is armed. Firing: the
// pulse just ended, so the gate drops. The counter free-runs afterwards;
// any further match before the next edge is another harmless deassert.
func (c *Controller) OnTimerMatch() {
	switch atomic.LoadUint32(&c.state) {
	case StateArmed:
		c.gate.Set(true)
		atomic.StoreUint32(&c.state, StateFiring)
		c.timer.Program(c.pulse)
		RecordTrace(TraceFire, atomic.LoadUint32(&c.lastDelay))
	case StateFiring:
		c.gate.Set(false)
		RecordTrace(TraceGateOff, 0)
	}
	atomic.AddUint32(&c.matches, 1)
}

// OnSample latches a finished setpoint conversion. The value takes effect
// at the next zero cross.
func (c *Controller) OnSample(raw AnalogSample) {
	atomic.StoreUint32(&c.sample, uint32(raw))
	atomic.AddUint32(&c.conversions, 1)
	RecordTrace(TraceSample, uint32(raw))
}

// Percent returns the active setpoint: the host override when present,
// otherwise the mapped analog sample.
func (c *Controller) Percent() PowerPercent {
	if ov := atomic.LoadUint32(&c.override); ov != overrideNone {
		return PowerPercent(ov)
	}
	return PercentFromSample(AnalogSample(atomic.LoadUint32(&c.sample)))
}

// SetOverride forces the output power, bypassing the analog setpoint from
// the next zero cross on. Values above 100 clamp.
func (c *Controller) SetOverride(p PowerPercent) {
	if p > 100 {
		p = 100
	}
	atomic.StoreUint32(&c.override, uint32(p))
}

// ClearOverride returns control to the analog setpoint.
func (c *Controller) ClearOverride() {
	atomic.StoreUint32(&c.override, overrideNone)
}

// OverrideActive reports whether a host override is in force.
func (c *Controller) OverrideActive() bool {
	return atomic.LoadUint32(&c.override) != overrideNone
}

// State returns the current firing state.
func (c *Controller) State() uint32 {
	return atomic.LoadUint32(&c.state)
}

// Shutdown halts firing: timer stopped, gate low, state back to Armed.
// Runs with interrupts masked so a compare match cannot re-assert the
// gate halfway through.
func (c *Controller) Shutdown() {
	is := disableInterrupts()
	defer restoreInterrupts(is)

	c.timer.Stop()
	c.gate.Set(false)
	atomic.StoreUint32(&c.state, StateArmed)
}

// Snapshot is a point-in-time view of the controller for telemetry.
// Fields are read individually from the atomic cells; a reader may see
// values from adjacent half-cycles, never torn ones.
type Snapshot struct {
	ZeroCrossings uint32
	Matches       uint32
	Conversions   uint32
	Sample        AnalogSample
	Percent       PowerPercent
	DelayUS       uint32
	Prescaler     uint16
	Count         uint8
	State         uint32
	Override      bool
}

// Snapshot reads the telemetry cells.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		ZeroCrossings: atomic.LoadUint32(&c.zeroCrossings),
		Matches:       atomic.LoadUint32(&c.matches),
		Conversions:   atomic.LoadUint32(&c.conversions),
		Sample:        AnalogSample(atomic.LoadUint32(&c.sample)),
		Percent:       PowerPercent(atomic.LoadUint32(&c.lastPercent)),
		DelayUS:       atomic.LoadUint32(&c.lastDelay),
		Prescaler:     uint16(atomic.LoadUint32(&c.lastPresc)),
		Count:         uint8(atomic.LoadUint32(&c.lastCount)),
		State:         atomic.LoadUint32(&c.state),
		Override:      atomic.LoadUint32(&c.override) != overrideNone,
	}
}
