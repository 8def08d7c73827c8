package core

// PrepareStandby readies the chip for Standby mode so that the RTC alarm
// is the wake-up source:
//   - the calibration clock output is switched off
//   - all pending EXTI lines are cleared
//   - a stale WUF is cleared in case the WKUP pin was already high
//   - PDDS selects Standby and SLEEPDEEP makes WFI enter it
func PrepareStandby(port RegisterPort) {
	clearBits(port, BKPRTCCR, RTCCR_CCO)
	port.Set(EXTIPR, EXTI_ALL)
	setBits(port, PWRCR, PWR_CWUF)
	setBits(port, PWRCR, PWR_PDDS)
	setBits(port, SCBSCR, SCR_SLEEPDEEP)
}

// EnterStandby disables interrupts, prepares the power controller and calls
// wfi. On hardware wfi does not return; the next thing that runs is the
// reset handler after the alarm fires.
func EnterStandby(port RegisterPort, wfi func()) {
	state := disableInterrupts()
	PrepareStandby(port)
	wfi()
	// Only reached on host builds where wfi is a stub
	restoreInterrupts(state)
}
