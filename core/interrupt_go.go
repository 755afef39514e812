//go:build !tinygo

package core

// State stands in for the saved interrupt mask when built as regular Go,
// where handlers run as ordinary function calls.
type State uintptr

// disableInterrupts does nothing off-target; host callers serialize
// handler access themselves.
func disableInterrupts() State {
	return 0
}

func restoreInterrupts(State) {
}
