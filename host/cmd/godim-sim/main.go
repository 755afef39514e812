// Command godim-sim runs the firing engine against simulated mains and
// prints what the gate would do, cycle by cycle, without any hardware.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"godim/core"
	"godim/sim"
)

var (
	percent = flag.Int("percent", -1, "Host override percent 0-100 (takes precedence over -sample)")
	sample  = flag.Int("sample", 600, "Pot reading 0-1023")
	cycles  = flag.Int("cycles", 10, "Half-cycles to run")
	hz      = flag.Int("hz", 50, "Mains frequency (50 or 60)")
)

func main() {
	flag.Parse()

	timing := core.DefaultTiming
	switch *hz {
	case 50:
	case 60:
		timing = core.Timing60Hz
	default:
		fmt.Fprintf(os.Stderr, "error: unsupported mains frequency %d\n", *hz)
		os.Exit(1)
	}

	if *sample < 0 || *sample > core.SampleMax {
		fmt.Fprintf(os.Stderr, "error: sample %d outside 0-%d\n", *sample, core.SampleMax)
		os.Exit(1)
	}
	if *cycles < 1 {
		fmt.Fprintln(os.Stderr, "error: need at least one cycle")
		os.Exit(1)
	}

	rig := sim.NewRig(timing, func(uint32) core.AnalogSample {
		return core.AnalogSample(*sample)
	})

	if *percent >= 0 {
		ov := *percent
		if ov > 100 {
			ov = 100
		}
		rig.Ctrl.SetOverride(core.PowerPercent(ov))
	}

	rig.Run(uint32(*cycles+1) * timing.HalfPeriodUS)

	snap := rig.Ctrl.Snapshot()
	pulses := rig.Pulses()

	if *percent >= 0 {
		fmt.Printf("godim-sim: %d Hz profile, host override -> %d%%\n", *hz, snap.Percent)
	} else {
		fmt.Printf("godim-sim: %d Hz profile, pot sample %d -> %d%%\n", *hz, *sample, snap.Percent)
	}

	if len(pulses) == 0 {
		fmt.Println("gate never fired")
		return
	}

	fmt.Printf("plan: delay %dus after the detector edge, timer program %d/%d, gate pulse %dus\n\n",
		snap.DelayUS, snap.Prescaler, snap.Count, timing.GatePulseUS)

	fmt.Println("cycle   fire(us)   width(us)   angle(deg)   power")
	var sum float64
	for i, p := range pulses {
		// Offset from the true zero, which sits on a half-period boundary.
		angleUS := p.StartUS % timing.HalfPeriodUS
		x := float64(angleUS) / float64(timing.HalfPeriodUS)
		frac := conductionFraction(x)
		sum += frac
		fmt.Printf("%5d   %8d   %9d   %10.1f   %4.1f%%\n",
			i+1, p.StartUS, p.WidthUS(), 180*x, 100*frac)
	}

	fmt.Printf("\naverage conduction power: %.1f%% of full wave\n",
		100*sum/float64(len(pulses)))
}

// conductionFraction returns delivered power as a fraction of full
// conduction for a triac fired at x of the way through the half wave.
// The triac latches until the next current zero, so the integral runs
// from the firing angle to pi.
func conductionFraction(x float64) float64 {
	alpha := math.Pi * x
	return 1 - x + math.Sin(2*alpha)/(2*math.Pi)
}
