//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts opens a critical section, masking interrupts until
// restoreInterrupts is handed back the returned state.
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
