//go:build stm32f103

package stm32f103

import "device/arm"

// WFI halts the core until an interrupt or wake-up event. With SLEEPDEEP
// and PDDS set this is standby; the next thing the MCU does is reset.
func WFI() {
	arm.Asm("wfi")
}
