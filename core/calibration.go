package core

import (
	"math"

	"golang.org/x/exp/constraints"
)

// CalibrationStepPPM is the slowdown per BKP_RTCCR.CAL step: one RTCCLK
// pulse dropped every 2^20 pulses.
const CalibrationStepPPM = 1e6 / (1 << 20)

// MaxCalibration is the largest CAL value (7 bits, about 121 ppm)
const MaxCalibration = RTCCR_CAL

// applyCalibration loads Config.Calibration into BKP_RTCCR.CAL,
// leaving CCO/ASOE/ASOS as they are
func (c *Clock) applyCalibration() {
	v := c.port.Get(BKPRTCCR)
	c.port.Set(BKPRTCCR, v&^RTCCR_CAL|uint32(c.cfg.Calibration))
}

// SetCalibration changes the trim value at runtime.
// The backup domain keeps it across resets as long as VBAT is present.
func (c *Clock) SetCalibration(cal uint8) {
	c.cfg.Calibration = cal & RTCCR_CAL
	c.applyCalibration()
}

// Calibration returns the CAL field currently in BKP_RTCCR
func (c *Clock) Calibration() uint8 {
	return uint8(c.port.Get(BKPRTCCR) & RTCCR_CAL)
}

// EnableCalibrationOutput routes RTCCLK/64 (512 Hz with the LSE) to the
// tamper pin (PC13 on the F103) for frequency measurement
func (c *Clock) EnableCalibrationOutput(on bool) {
	if on {
		setBits(c.port, BKPRTCCR, RTCCR_CCO)
	} else {
		clearBits(c.port, BKPRTCCR, RTCCR_CCO)
	}
}

// DriftPPM compares an RTC interval against a reference interval of the
// same events. Positive means the RTC runs fast.
func DriftPPM(rtcElapsed, refElapsed float64) float64 {
	if refElapsed <= 0 {
		return 0
	}
	return (rtcElapsed - refElapsed) / refElapsed * 1e6
}

// SecondsPerDay converts a ppm drift into seconds gained per day
func SecondsPerDay(ppm float64) float64 {
	return ppm * 86400 / 1e6
}

// CalibrationFromDrift converts a measured drift into a CAL value.
// The F103 can only slow the clock down, so a slow RTC maps to 0.
func CalibrationFromDrift(ppm float64) uint8 {
	steps := int(math.Round(ppm / CalibrationStepPPM))
	return uint8(clamp(steps, 0, MaxCalibration))
}

// clamp limits v to [lo, hi]
func clamp[T constraints.Integer](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
