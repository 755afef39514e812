package sim

import "godim/core"

// convTimeUS approximates one ADC conversion on the reference hardware.
const convTimeUS = 100

// GateEdge is one recorded gate transition.
type GateEdge struct {
	At uint32
	On bool
}

// Gate implements core.GateDriver, recording transitions with timestamps.
// Repeated writes of the same level are not edges and are dropped.
type Gate struct {
	clk   *Clock
	On    bool
	Edges []GateEdge
}

func (g *Gate) Set(on bool) {
	if on == g.On {
		return
	}
	g.On = on
	g.Edges = append(g.Edges, GateEdge{At: g.clk.Now(), On: on})
}

// Timer implements core.TimerDriver on the virtual clock, reproducing the
// 8-bit compare model's granularity through Program.DurationUS.
type Timer struct {
	clk      *Clock
	fire     func()
	pending  *Event
	Programs []core.Program
	Stops    int
}

func (t *Timer) Program(p core.Program) {
	if t.pending != nil {
		t.pending.Cancel()
	}
	t.Programs = append(t.Programs, p)
	t.pending = t.clk.Schedule(t.clk.Now()+p.DurationUS(), t.fire)
}

func (t *Timer) Stop() {
	if t.pending != nil {
		t.pending.Cancel()
		t.pending = nil
	}
	t.Stops++
}

// Sampler implements core.SamplerDriver, reading a scripted setpoint curve
// after a fixed conversion time.
type Sampler struct {
	clk     *Clock
	deliver func(core.AnalogSample)
	curve   func(nowUS uint32) core.AnalogSample
	Starts  int
}

func (s *Sampler) Start() {
	s.Starts++
	at := s.clk.Now() + convTimeUS
	s.clk.Schedule(at, func() {
		s.deliver(s.curve(at))
	})
}

// mains emits detector edges: the true zeros sit on half-period
// boundaries, the reported edge trails each one by the detector delay.
type mains struct {
	clk    *Clock
	timing core.Timing
	edge   func()
}

func (m *mains) start() {
	m.scheduleEdge(m.timing.DetectorDelayUS)
}

func (m *mains) scheduleEdge(at uint32) {
	m.clk.Schedule(at, func() {
		m.edge()
		m.scheduleEdge(at + m.timing.HalfPeriodUS)
	})
}

// Pulse is one complete gate pulse.
type Pulse struct {
	StartUS uint32
	EndUS   uint32
}

// WidthUS returns the pulse duration.
func (p Pulse) WidthUS() uint32 {
	return p.EndUS - p.StartUS
}

// Rig wires a real controller to virtual hardware for deterministic
// end-to-end runs.
type Rig struct {
	Clock   *Clock
	Gate    *Gate
	Timer   *Timer
	Sampler *Sampler
	Ctrl    *core.Controller
}

// NewRig builds a rig on the given timing profile. curve supplies the
// setpoint the sampler reads at any virtual time.
func NewRig(t core.Timing, curve func(nowUS uint32) core.AnalogSample) *Rig {
	clk := &Clock{}
	g := &Gate{clk: clk}
	tm := &Timer{clk: clk}
	smp := &Sampler{clk: clk, curve: curve}

	core.SetClock(clk.Now)
	core.SetGateDriver(g)
	core.SetTimerDriver(tm)
	core.SetSamplerDriver(smp)

	ctrl := core.NewController(t)
	tm.fire = ctrl.OnTimerMatch
	smp.deliver = ctrl.OnSample

	m := &mains{clk: clk, timing: t, edge: ctrl.OnZeroCross}
	m.start()

	return &Rig{Clock: clk, Gate: g, Timer: tm, Sampler: smp, Ctrl: ctrl}
}

// Run advances the virtual clock by d microseconds.
func (r *Rig) Run(d uint32) {
	r.Clock.Advance(d)
}

// Pulses pairs the recorded gate edges into complete pulses.
func (r *Rig) Pulses() []Pulse {
	var out []Pulse
	start := uint32(0)
	open := false
	for _, e := range r.Gate.Edges {
		if e.On {
			start = e.At
			open = true
		} else if open {
			out = append(out, Pulse{StartUS: start, EndUS: e.At})
			open = false
		}
	}
	return out
}
