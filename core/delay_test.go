package core

import "testing"

func TestDelayFromPercent(t *testing.T) {
	cases := []struct {
		percent PowerPercent
		want    uint32
	}{
		{1, 8900},
		{10, 8000},
		{25, 6500},
		{48, 4200},
		{50, 4000},
		{75, 1500},
		{85, 500},
		{89, 100},
		{90, 1000}, // ideal instant is at the detector edge: saturated
		{95, 1000},
		{99, 1000},
	}

	for _, tc := range cases {
		if got := DefaultTiming.DelayFromPercent(tc.percent); got != tc.want {
			t.Errorf("DelayFromPercent(%d) = %d, want %d", tc.percent, got, tc.want)
		}
	}
}

func TestDelayFromPercentEarlierForMorePower(t *testing.T) {
	// The pot's linear branch tops out at 89; the delay falls strictly
	// across that range.
	prev := DefaultTiming.DelayFromPercent(1)
	for p := PowerPercent(2); p <= 89; p++ {
		got := DefaultTiming.DelayFromPercent(p)
		if got >= prev {
			t.Fatalf("DelayFromPercent(%d) = %d, not below DelayFromPercent(%d) = %d", p, got, p-1, prev)
		}
		if got >= DefaultTiming.HalfPeriodUS {
			t.Fatalf("DelayFromPercent(%d) = %d, outside the half period", p, got)
		}
		prev = got
	}
}

func TestDelayFromPercentOverrideRangeFloor(t *testing.T) {
	// Percents in the 90s are only reachable through an override. They
	// must never fire before the fixed full-power program does.
	for p := PowerPercent(90); p <= 99; p++ {
		got := DefaultTiming.DelayFromPercent(p)
		if got != DefaultTiming.DetectorDelayUS {
			t.Errorf("DelayFromPercent(%d) = %d, want the full-power delay %d", p, got, DefaultTiming.DetectorDelayUS)
		}
	}
	for p := PowerPercent(91); p <= 99; p++ {
		got := Timing60Hz.DelayFromPercent(p)
		if got != Timing60Hz.DetectorDelayUS {
			t.Errorf("60 Hz DelayFromPercent(%d) = %d, want the full-power delay %d", p, got, Timing60Hz.DetectorDelayUS)
		}
	}
}

func TestProgramFromDelayPrescalerSelection(t *testing.T) {
	cases := []struct {
		us   uint32
		want uint16
	}{
		{1, Prescaler8},
		{100, Prescaler8},
		{424, Prescaler8},
		{425, Prescaler64}, // the boundary itself takes the larger prescaler
		{1000, Prescaler64},
		{3399, Prescaler64},
		{3400, Prescaler256},
		{4200, Prescaler256},
		{8900, Prescaler256},
	}

	for _, tc := range cases {
		if got := ProgramFromDelay(tc.us).Prescaler; got != tc.want {
			t.Errorf("ProgramFromDelay(%d).Prescaler = %d, want %d", tc.us, got, tc.want)
		}
	}
}

func TestProgramFromDelayCounts(t *testing.T) {
	cases := []struct {
		us   uint32
		want Program
	}{
		{100, Program{Prescaler8, 59}},
		{250, Program{Prescaler8, 149}},  // gate pulse
		{1000, Program{Prescaler64, 74}}, // detector delay
		{4200, Program{Prescaler256, 78}},
		{8900, Program{Prescaler256, 166}},
	}

	for _, tc := range cases {
		if got := ProgramFromDelay(tc.us); got != tc.want {
			t.Errorf("ProgramFromDelay(%d) = %+v, want %+v", tc.us, got, tc.want)
		}
	}
}

func TestProgramFromDelayCountClamps(t *testing.T) {
	if got := ProgramFromDelay(0); got.Count != 0 {
		t.Errorf("ProgramFromDelay(0).Count = %d, want 0", got.Count)
	}
	// Beyond the 256-prescaler reach the count saturates at the register
	// maximum instead of wrapping.
	if got := ProgramFromDelay(20000); got != (Program{Prescaler256, 255}) {
		t.Errorf("ProgramFromDelay(20000) = %+v, want saturated count", got)
	}
}

func TestProgramDurationUS(t *testing.T) {
	cases := []struct {
		prog Program
		want uint32
	}{
		{Program{Prescaler8, 149}, 250},
		{Program{Prescaler64, 74}, 1000},
		{Program{Prescaler256, 78}, 4213},
		{Program{Prescaler8, 0}, 2},
	}

	for _, tc := range cases {
		if got := tc.prog.DurationUS(); got != tc.want {
			t.Errorf("%+v.DurationUS() = %d, want %d", tc.prog, got, tc.want)
		}
	}
}

func TestPlan(t *testing.T) {
	if plan := DefaultTiming.Plan(0); plan.Run {
		t.Errorf("Plan(0) = %+v, want stop", plan)
	}

	full := DefaultTiming.Plan(100)
	if !full.Run || full.DelayUS != 1000 || full.Prog != (Program{Prescaler64, 74}) {
		t.Errorf("Plan(100) = %+v, want the fixed detector-delay program", full)
	}

	mid := DefaultTiming.Plan(48)
	if !mid.Run || mid.DelayUS != 4200 || mid.Prog != (Program{Prescaler256, 78}) {
		t.Errorf("Plan(48) = %+v, want 4200us on prescaler 256 count 78", mid)
	}

	top := DefaultTiming.Plan(89)
	if !top.Run || top.DelayUS != 100 || top.Prog.Prescaler != Prescaler8 {
		t.Errorf("Plan(89) = %+v, want 100us on prescaler 8", top)
	}

	over := DefaultTiming.Plan(95)
	if !over.Run || over.DelayUS != 1000 || over.Prog != (Program{Prescaler64, 74}) {
		t.Errorf("Plan(95) = %+v, want the full-power delay floor", over)
	}
}

func TestPlanCoversEveryPercent(t *testing.T) {
	for p := PowerPercent(1); p <= 100; p++ {
		plan := DefaultTiming.Plan(p)
		if !plan.Run {
			t.Fatalf("Plan(%d) stopped the timer", p)
		}
		if plan.Prog.DurationUS() >= DefaultTiming.HalfPeriodUS {
			t.Fatalf("Plan(%d) program runs %dus, past the half period", p, plan.Prog.DurationUS())
		}
	}
}

func TestPulseProgram(t *testing.T) {
	if got := DefaultTiming.PulseProgram(); got != (Program{Prescaler8, 149}) {
		t.Errorf("PulseProgram() = %+v, want {8 149}", got)
	}
}

func TestTiming60Hz(t *testing.T) {
	for p := PowerPercent(1); p <= 100; p++ {
		plan := Timing60Hz.Plan(p)
		if !plan.Run {
			t.Fatalf("60 Hz Plan(%d) stopped the timer", p)
		}
		if plan.DelayUS >= Timing60Hz.HalfPeriodUS {
			t.Fatalf("60 Hz Plan(%d) delay %dus, outside the half period", p, plan.DelayUS)
		}
	}
	if got := Timing60Hz.PulseProgram(); got != (Program{Prescaler8, 149}) {
		t.Errorf("60 Hz PulseProgram() = %+v, want {8 149}", got)
	}
}
