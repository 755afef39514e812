package core

// TimerDriver is the abstract one-shot compare timer that core code arms.
// Implementations must make Program atomic with respect to the
// compare-match interrupt and must arm in this order:
//
//  1. mask the compare interrupt
//  2. halt the timer clock
//  3. clear any pending compare flag
//  4. compare = current count + program count (modular arithmetic)
//  5. select the prescaler, which restarts the clock
//  6. unmask the compare interrupt
//
// The counter free-runs between calls; only the relative offset matters.
type TimerDriver interface {
	// Program arms a one-shot compare match relative to the current count.
	Program(p Program)

	// Stop masks the compare interrupt and halts the clock.
	Stop()
}

// Global singleton used by core code.
var timerDriver TimerDriver

// SetTimerDriver is called by target-specific code to register its driver.
func SetTimerDriver(d TimerDriver) {
	timerDriver = d
}

// MustTimer returns the configured driver or panics if missing.
func MustTimer() TimerDriver {
	if timerDriver == nil {
		panic("timer driver not configured")
	}
	return timerDriver
}
