//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts masks interrupts so nothing can run between the
// standby preparation and WFI
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

// restoreInterrupts is only reached if WFI returns, i.e. standby was refused
func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
