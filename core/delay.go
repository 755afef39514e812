package core

// Timer clock model. The firing timer is an 8-bit compare unit fed from a
// 4.8 MHz clock through one of three prescalers. One-shot reach per
// prescaler: 8 covers up to 425 us, 64 up to 3400 us, 256 up to 13600 us.
const (
	TimerClockHz = 4800000

	Prescaler8   = 8
	Prescaler64  = 64
	Prescaler256 = 256

	prescaler8MaxUS  = 425  // exclusive
	prescaler64MaxUS = 3400 // exclusive
)

// Program is a one-shot compare timer setup: which prescaler feeds the
// counter and how many ticks ahead of the current count the match fires.
type Program struct {
	Prescaler uint16
	Count     uint8 // Match fires Count+1 ticks after arming
}

// DurationUS converts a program back to microseconds, rounded to the
// nearest microsecond. Timers with finer native resolution use this to
// reproduce the 8-bit model's granularity.
func (p Program) DurationUS() uint32 {
	ticks := uint32(p.Count) + 1
	return (ticks*uint32(p.Prescaler)*10 + 24) / 48
}

// Timing carries the electrical timing of one mains half-cycle. All delay
// math derives from these three values.
type Timing struct {
	HalfPeriodUS    uint32 // Mains half period
	DetectorDelayUS uint32 // Detector skew: the edge arrives this long after true zero
	GatePulseUS     uint32 // Gate trigger pulse width
}

// DefaultTiming is the 50 Hz mains profile.
var DefaultTiming = Timing{
	HalfPeriodUS:    10000,
	DetectorDelayUS: 1000,
	GatePulseUS:     250,
}

// Timing60Hz is the proportionally rescaled 60 Hz profile.
var Timing60Hz = Timing{
	HalfPeriodUS:    8333,
	DetectorDelayUS: 833,
	GatePulseUS:     250,
}

// DelayFromPercent returns the firing delay for a mid-range percent,
// measured from the detector edge. Valid for p in [1, 99]; 0 and 100 are
// planned as special cases. Higher percent fires earlier, down to a
// floor: percents in the 90s put the ideal firing instant at or before
// the edge itself, which cannot be reached, so they saturate at the
// same delay the full-power plan uses instead of firing ahead of it.
func (t Timing) DelayFromPercent(p PowerPercent) uint32 {
	used := t.HalfPeriodUS/100*uint32(p) + t.DetectorDelayUS
	if used >= t.HalfPeriodUS {
		return t.DetectorDelayUS
	}
	return t.HalfPeriodUS - used
}

// PulseProgram is the gate trigger pulse as a timer program.
func (t Timing) PulseProgram() Program {
	return ProgramFromDelay(t.GatePulseUS)
}

// FiringPlan is one half-cycle's timer decision.
type FiringPlan struct {
	Run     bool    // False: no firing this half-cycle, timer stopped
	DelayUS uint32  // Delay from the detector edge to the gate pulse
	Prog    Program // Compare program implementing DelayUS
}

// Plan translates a percent into the half-cycle's timer action. Zero
// percent stops the timer, full power fires a fixed short delay after the
// edge, everything else fires after DelayFromPercent. The pot mapper
// never produces the 90s; an override there shares the full-power delay.
func (t Timing) Plan(p PowerPercent) FiringPlan {
	switch {
	case p == 0:
		return FiringPlan{}
	case p >= 100:
		return FiringPlan{Run: true, DelayUS: t.DetectorDelayUS, Prog: ProgramFromDelay(t.DetectorDelayUS)}
	default:
		us := t.DelayFromPercent(p)
		return FiringPlan{Run: true, DelayUS: us, Prog: ProgramFromDelay(us)}
	}
}

// ProgramFromDelay picks the smallest prescaler that can reach the delay
// and converts microseconds to a compare count.
func ProgramFromDelay(us uint32) Program {
	switch {
	case us < prescaler8MaxUS:
		return Program{Prescaler8, countFor(Prescaler8, us)}
	case us < prescaler64MaxUS:
		return Program{Prescaler64, countFor(Prescaler64, us)}
	default:
		return Program{Prescaler256, countFor(Prescaler256, us)}
	}
}

// countFor converts a delay to whole timer ticks at the given prescaler,
// rounding to the nearest tick. ticks = round(us * 4.8 / prescaler), kept
// in [1, 256] so the stored count fits the 8-bit compare register.
func countFor(prescaler uint16, us uint32) uint8 {
	p := uint32(prescaler)
	ticks := (us*48 + p*5) / (p * 10)
	if ticks < 1 {
		ticks = 1
	}
	if ticks > 256 {
		ticks = 256
	}
	return uint8(ticks - 1)
}
