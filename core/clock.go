package core

// nowUS is the platform microsecond clock. Targets install theirs at boot,
// before interrupts are enabled; the zero default keeps host tests and the
// simulator deterministic.
var nowUS func() uint32 = func() uint32 { return 0 }

// SetClock installs the platform microsecond clock source.
func SetClock(f func() uint32) {
	if f != nil {
		nowUS = f
	}
}

// Now returns the current platform time in microseconds. The value wraps
// roughly every 71.6 minutes; consumers compare deltas only.
func Now() uint32 {
	return nowUS()
}
