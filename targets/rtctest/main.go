//go:build stm32f103

package main

import (
	"machine"
	"time"

	"bluepill/console"
	"bluepill/core"
	"bluepill/refclock"
	"bluepill/targets/stm32f103"
)

const (
	// timezone is the POSIX TZ rule used for the log.
	// core.ZoneNewZealand is the other zone the board was tested in.
	timezone = core.ZoneAmsterdam

	awake      = 10 * time.Second
	sleepFor   = 20 // seconds after the start time
	statusTick = 2 * time.Second

	// debug routes the core [RTC] trace to the console
	debug = false
)

var uart *machine.UART

func logln(s string) {
	uart.Write([]byte(s))
	uart.Write([]byte("\r\n"))
}

func main() {
	booted := time.Now()
	uart = stm32f103.InitDebugUART()
	core.SetDebugEnabled(debug)

	port := stm32f103.Port{}
	clock := core.NewClock(port, core.DefaultConfig())

	// Unbounded polls: Init only returns once the hardware answered
	boot, err := clock.Init()
	core.DebugError("init", err)
	if boot.WokeByAlarm {
		core.DebugError("clear alarm", clock.ClearAlarm())
	}

	loc, err := core.LoadPOSIXZone(timezone)
	core.DebugError("timezone", err)
	if err != nil {
		loc = time.UTC
	}

	clock.EnableCalibrationOutput(true)

	logln("\r\n")
	logln(console.StartLine(boot.Start, loc, boot.Reason()))
	if boot.Reset {
		logln(console.ResetLine())
	}

	measureDrift(clock, boot)

	for {
		if time.Since(booted) > awake {
			alarm := boot.Start + sleepFor
			logln(console.SleepLine(alarm, loc))
			// let the last byte leave the shift register
			time.Sleep(5 * time.Millisecond)

			core.DebugError("set alarm", clock.SetAlarm(alarm))
			core.EnterStandby(port, stm32f103.WFI)
		}

		now, err := clock.Now()
		core.DebugError("read", err)
		logln(console.TimeLine(now, loc))
		time.Sleep(statusTick)
	}
}

// measureDrift compares the RTC with a DS3231 on I2C1 (PB6/PB7), if one is
// fitted. The DS3231 is synced whenever the RTC is reseeded, so every later
// boot measures the drift since the seed. The anchor is only good to a
// second, which the one hour minimum span keeps below 300 ppm.
func measureDrift(clock *core.Clock, boot core.Boot) {
	bus := machine.I2C0
	if err := bus.Configure(machine.I2CConfig{Frequency: 400 * machine.KHz}); err != nil {
		return
	}
	ref := refclock.New(bus)

	now, err := clock.Now()
	if err != nil {
		return
	}
	if boot.Reset || !ref.Valid() {
		if err := ref.Sync(now); err != nil {
			core.Debugf("[REF] no DS3231: %v", err)
		}
		return
	}

	refNow, err := ref.Now()
	if err != nil {
		return
	}
	seed := clock.Config().Seed
	d, err := refclock.Measure(
		refclock.Sample{RTC: seed, Ref: seed},
		refclock.Sample{RTC: now, Ref: refNow},
	)
	if err != nil {
		core.Debugf("[REF] %v", err)
		return
	}
	logln(console.ReferenceLine(d.Offset, d.PPM, d.Calibration))
}
